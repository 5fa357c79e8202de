package main

import (
	"strings"

	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/log"
)

// AccountService enforces the structural invariants of the chart of accounts.
// Every mutation validates type compatibility, parent linkage and cycle
// freedom inside one transaction, so a validation always observes a
// consistent snapshot of the account table.
type AccountService struct {
	db    *gorm.DB
	audit *AuditStore
	lg    log.Logger
}

func NewAccountService(db *gorm.DB, audit *AuditStore, lg log.Logger) *AccountService {
	return &AccountService{
		db:    db,
		audit: audit,
		lg:    lg.WithName("accounts"),
	}
}

// CreateAccountParams describes a new account.
type CreateAccountParams struct {
	Code       string `json:"code" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Type       string `json:"type" validate:"required"`
	Subtype    string `json:"subtype,omitempty"`
	CurrencyID *uint  `json:"currency_id,omitempty"`
	ParentID   *uint  `json:"parent_id,omitempty"`
	IsDetail   bool   `json:"is_detail"`
}

// Create validates and inserts a new account.
func (s *AccountService) Create(actor string, params CreateAccountParams) (Account, error) {
	accountType, err := ParseAccountType(params.Type)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		Code:       strings.TrimSpace(params.Code),
		Name:       strings.TrimSpace(params.Name),
		Type:       accountType,
		Subtype:    params.Subtype,
		CurrencyID: params.CurrencyID,
		ParentID:   params.ParentID,
		IsDetail:   params.IsDetail,
		IsActive:   true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := validateTypeAndStructure(tx, accountType, params.ParentID, nil); err != nil {
			return err
		}
		if err := validateCurrency(tx, params.CurrencyID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&Account{}).Where("code = ?", account.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return AppErrorf(CodeDuplicateCode, "account code already exists: %s", account.Code)
		}

		return tx.Create(&account).Error
	})
	if err != nil {
		return Account{}, err
	}

	s.audit.Record(actor, AuditOpCreate, "account", account.ID, nil, account)
	s.lg.Info("account created", "id", account.ID, "code", account.Code, "type", account.Type)
	return account, nil
}

// UpdateAccountParams describes a partial account update. Nil fields stay
// unchanged; ClearParent moves the account to the root level.
type UpdateAccountParams struct {
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"type,omitempty"`
	Subtype     *string `json:"subtype,omitempty"`
	CurrencyID  *uint   `json:"currency_id,omitempty"`
	ParentID    *uint   `json:"parent_id,omitempty"`
	ClearParent bool    `json:"clear_parent,omitempty"`
	IsDetail    *bool   `json:"is_detail,omitempty"`
}

// Update validates and applies a partial update. Type and parent changes are
// re-validated against the account's existing active children and the
// resulting ancestor chain.
func (s *AccountService) Update(actor string, id uint, params UpdateAccountParams) (Account, error) {
	var before, after Account

	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := GetAccountByID(tx, id)
		if err != nil {
			return err
		}
		before = account

		newType := account.Type
		if params.Type != nil {
			if newType, err = ParseAccountType(*params.Type); err != nil {
				return err
			}
		}

		newParentID := account.ParentID
		if params.ClearParent {
			newParentID = nil
		} else if params.ParentID != nil {
			newParentID = params.ParentID
		}

		if err := validateTypeAndStructure(tx, newType, newParentID, &account.ID); err != nil {
			return err
		}
		if params.CurrencyID != nil {
			if err := validateCurrency(tx, params.CurrencyID); err != nil {
				return err
			}
			account.CurrencyID = params.CurrencyID
		}

		if params.Name != nil {
			account.Name = strings.TrimSpace(*params.Name)
		}
		if params.Subtype != nil {
			account.Subtype = *params.Subtype
		}
		if params.IsDetail != nil {
			account.IsDetail = *params.IsDetail
		}
		account.Type = newType
		account.ParentID = newParentID

		after = account
		return tx.Save(&account).Error
	})
	if err != nil {
		return Account{}, err
	}

	s.audit.Record(actor, AuditOpUpdate, "account", id, before, after)
	return after, nil
}

// Deactivate soft-deletes an account. Rows are never removed once
// referenced; deletion only flips the active flag, and is refused while the
// account still has active children.
func (s *AccountService) Deactivate(actor string, id uint) error {
	var before Account

	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := GetAccountByID(tx, id)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return AppErrorf(CodeAccountNotFound, "account %d is already inactive", id)
		}
		before = account

		children, err := GetActiveChildren(tx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			codes := make([]string, len(children))
			for i, child := range children {
				codes[i] = child.Code
			}
			return AppErrorf(CodeConflictChildAccounts,
				"account %s has active children: %s", account.Code, strings.Join(codes, ", "))
		}

		return tx.Model(&Account{}).Where("id = ?", id).Update("is_active", false).Error
	})
	if err != nil {
		return err
	}

	after := before
	after.IsActive = false
	s.audit.Record(actor, AuditOpDeactivate, "account", id, before, after)
	s.lg.Info("account deactivated", "id", id, "code", before.Code)
	return nil
}

// Tree returns the chart of accounts as a sorted forest.
func (s *AccountService) Tree(filter AccountFilter) ([]*AccountNode, error) {
	accounts, err := GetAccounts(s.db, filter)
	if err != nil {
		return nil, err
	}
	return BuildAccountTree(accounts), nil
}

// validateTypeAndStructure enforces the compatibility table and cycle
// freedom. accountID is nil on create and set on update, in which case the
// account's existing active children constrain the new type and the ancestor
// walk guards against re-parenting cycles.
func validateTypeAndStructure(tx *gorm.DB, accountType AccountType, parentID *uint, accountID *uint) error {
	if !accountType.IsValid() {
		return AppErrorf(CodeInvalidAccountType, "invalid account type: %s", accountType)
	}

	if parentID != nil {
		parent, err := GetAccountByID(tx, *parentID)
		if err != nil {
			if HasErrorCode(err, CodeAccountNotFound) {
				return AppErrorf(CodeInvalidParent, "parent account %d does not exist", *parentID)
			}
			return err
		}
		if !parent.Type.CanHaveChildren() {
			return AppErrorf(CodeInvalidParent,
				"account type %s cannot have children", parent.Type)
		}
		if !parent.Type.AllowsChild(accountType) {
			return AppErrorf(CodeInvalidParent,
				"parent type %s does not allow children of type %s", parent.Type, accountType)
		}
	}

	if accountID == nil {
		return nil
	}

	children, err := GetActiveChildren(tx, *accountID)
	if err != nil {
		return err
	}
	if len(children) > 0 && !accountType.CanHaveChildren() {
		return AppErrorf(CodeInvalidAccountType,
			"cannot change account with active children to leaf-only type %s", accountType)
	}
	for _, child := range children {
		if !accountType.AllowsChild(child.Type) {
			return AppErrorf(CodeInvalidAccountType,
				"type %s does not allow existing child %s of type %s", accountType, child.Code, child.Type)
		}
	}

	if parentID != nil {
		cyclic, err := wouldIntroduceCycle(tx, *accountID, *parentID)
		if err != nil {
			return err
		}
		if cyclic {
			return AppErrorf(CodeInvalidParent,
				"setting parent %d on account %d would create a cycle", *parentID, *accountID)
		}
	}

	return nil
}

// wouldIntroduceCycle walks the ancestor chain upward from the proposed
// parent inside the transaction snapshot. Reaching the account itself, or
// revisiting any ancestor, is a cycle.
func wouldIntroduceCycle(tx *gorm.DB, accountID, parentID uint) (bool, error) {
	visited := map[uint]bool{accountID: true}
	current := parentID
	for {
		if visited[current] {
			return true, nil
		}
		visited[current] = true

		ancestor, err := GetAccountByID(tx, current)
		if err != nil {
			if HasErrorCode(err, CodeAccountNotFound) {
				return false, nil
			}
			return false, err
		}
		if ancestor.ParentID == nil {
			return false, nil
		}
		current = *ancestor.ParentID
	}
}

func validateCurrency(tx *gorm.DB, currencyID *uint) error {
	if currencyID == nil {
		return nil
	}
	exists, err := CurrencyExists(tx, *currencyID)
	if err != nil {
		return err
	}
	if !exists {
		return AppErrorf(CodeInvalidCurrency, "unknown currency id: %d", *currencyID)
	}
	return nil
}
