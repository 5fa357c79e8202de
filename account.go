package main

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// The mnemonic DEADCLIC captures the effect of debits and credits per account type.
// DEAD: Debit increases Expense, Asset and Drawing accounts.
// CLIC: Credit increases Liability, Income and Capital accounts.
//
//	            Debit       Credit
//	Asset       Increase    Decrease
//	Liability   Decrease    Increase
//	Equity      Decrease    Increase
//	Revenue     Decrease    Increase
//	Cost        Increase    Decrease
//	Expense     Increase    Decrease

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeCost      AccountType = "cost"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists the six valid account types in display order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeCost,
	AccountTypeExpense,
}

// allowedChildren maps a parent account type to the set of types its
// children may carry. Cost accounts are leaf-only and never parent anything.
var allowedChildren = map[AccountType][]AccountType{
	AccountTypeAsset:     {AccountTypeAsset},
	AccountTypeLiability: {AccountTypeLiability},
	AccountTypeEquity:    {AccountTypeEquity},
	AccountTypeRevenue:   {AccountTypeRevenue},
	AccountTypeExpense:   {AccountTypeExpense, AccountTypeCost},
	AccountTypeCost:      {},
}

// IsValid reports whether t is one of the six account types.
func (t AccountType) IsValid() bool {
	_, ok := allowedChildren[t]
	return ok
}

// CanHaveChildren reports whether accounts of this type may parent other accounts.
func (t AccountType) CanHaveChildren() bool {
	return len(allowedChildren[t]) > 0
}

// AllowsChild reports whether an account of type t may parent an account of type child.
func (t AccountType) AllowsChild(child AccountType) bool {
	for _, c := range allowedChildren[t] {
		if c == child {
			return true
		}
	}
	return false
}

// IsDebitNature reports whether a positive balance on this account type is
// conventionally a debit amount. Asset, Expense and Cost accounts are
// debit-nature; Liability, Equity and Revenue are credit-nature.
func (t AccountType) IsDebitNature() bool {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeCost:
		return true
	default:
		return false
	}
}

// ParseAccountType parses a canonical account type string.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", AppErrorf(CodeInvalidAccountType, "invalid account type: %s", s)
	}
	return t, nil
}

// Account represents a node in the chart of accounts. Grouping accounts
// (IsDetail=false) exist only to aggregate their children; ledger lines may
// only reference detail accounts.
type Account struct {
	ID         uint        `gorm:"primaryKey"`
	Code       string      `gorm:"column:code;not null;uniqueIndex"`
	Name       string      `gorm:"column:name;not null"`
	Type       AccountType `gorm:"column:account_type;not null;index:idx_accounts_type"`
	Subtype    string      `gorm:"column:subtype"`
	CurrencyID *uint       `gorm:"column:currency_id"`
	ParentID   *uint       `gorm:"column:parent_id;index:idx_accounts_parent"`
	IsDetail   bool        `gorm:"column:is_detail;not null"`
	IsActive   bool        `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// codeSegments splits a canonical DDD-DDD-DDD code into its three digit
// groups. ok is false for legacy free-form codes.
func codeSegments(code string) (segments [3]string, ok bool) {
	parts := strings.Split(code, "-")
	if len(parts) != 3 {
		return segments, false
	}
	for i, p := range parts {
		if len(p) != 3 {
			return segments, false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return segments, false
			}
		}
		segments[i] = p
	}
	return segments, true
}

// AccountLevel computes the hierarchy level of a code: the count of
// significant (non-zero) digit positions across the three segments,
// 1-indexed. Legacy free-form codes report level 1.
func AccountLevel(code string) int {
	segments, ok := codeSegments(code)
	if !ok {
		return 1
	}
	level := 0
	for _, seg := range segments {
		for _, r := range seg {
			if r != '0' {
				level++
			}
		}
	}
	if level == 0 {
		level = 1
	}
	return level
}

// ParentCode derives the ancestor code one level up by zeroing the last
// significant digit, so 111-000-000 parents to 110-000-000 and 110-100-000
// to 110-000-000. It returns "" when the code is a root or free-form.
func ParentCode(code string) string {
	segments, ok := codeSegments(code)
	if !ok {
		return ""
	}
	digits := []byte(segments[0] + segments[1] + segments[2])
	for i := len(digits) - 1; i >= 1; i-- {
		if digits[i] != '0' {
			digits[i] = '0'
			return string(digits[0:3]) + "-" + string(digits[3:6]) + "-" + string(digits[6:9])
		}
	}
	return ""
}

// TypeFromCode infers a best-effort account type from the leading digit of
// a code, following the conventional numbering of the chart.
func TypeFromCode(code string) (AccountType, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	switch code[0] {
	case '1':
		return AccountTypeAsset, true
	case '2':
		return AccountTypeLiability, true
	case '3':
		return AccountTypeEquity, true
	case '4':
		return AccountTypeRevenue, true
	case '5':
		return AccountTypeCost, true
	case '6':
		return AccountTypeExpense, true
	default:
		return "", false
	}
}

// AccountFilter narrows account queries.
type AccountFilter struct {
	Types           []AccountType
	IncludeInactive bool
	OnlyDetail      bool
}

// GetAccounts retrieves accounts matching the filter, ordered by code then name.
func GetAccounts(db *gorm.DB, filter AccountFilter) ([]Account, error) {
	q := db.Model(&Account{})
	if len(filter.Types) > 0 {
		q = q.Where("account_type IN ?", filter.Types)
	}
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filter.OnlyDetail {
		q = q.Where("is_detail = ?", true)
	}

	var accounts []Account
	if err := q.Order("code ASC, name ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccountByID retrieves one account. A missing row maps to AccountNotFound.
func GetAccountByID(db *gorm.DB, id uint) (Account, error) {
	var account Account
	if err := db.First(&account, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return Account{}, AppErrorf(CodeAccountNotFound, "account %d not found", id)
		}
		return Account{}, err
	}
	return account, nil
}

// GetAccountByCode retrieves one account by its code.
func GetAccountByCode(db *gorm.DB, code string) (Account, error) {
	var account Account
	if err := db.Where("code = ?", code).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return Account{}, AppErrorf(CodeAccountNotFound, "account with code %s not found", code)
		}
		return Account{}, err
	}
	return account, nil
}

// GetActiveChildren returns the active children of an account.
func GetActiveChildren(db *gorm.DB, parentID uint) ([]Account, error) {
	var children []Account
	err := db.Where("parent_id = ? AND is_active = ?", parentID, true).
		Order("code ASC, name ASC").
		Find(&children).Error
	if err != nil {
		return nil, err
	}
	return children, nil
}
