package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NatureSide names the conventional side of a positive balance.
type NatureSide string

const (
	NatureDebit  NatureSide = "debit"
	NatureCredit NatureSide = "credit"
)

// AccountBalance is the per-account aggregate over a date boundary.
// Derived and ephemeral: recomputed on every report request, never persisted.
type AccountBalance struct {
	AccountID   uint            `gorm:"column:account_id"`
	DebitTotal  decimal.Decimal `gorm:"column:debit_total"`
	CreditTotal decimal.Decimal `gorm:"column:credit_total"`
}

// Net converts the debit/credit pair into a signed nature-aware balance.
// Debit-nature accounts net to debit minus credit, credit-nature accounts
// to credit minus debit; a positive result always lies on the account's
// conventional side.
func (b AccountBalance) Net(accountType AccountType) decimal.Decimal {
	if accountType.IsDebitNature() {
		return b.DebitTotal.Sub(b.CreditTotal)
	}
	return b.CreditTotal.Sub(b.DebitTotal)
}

// Side returns the conventional side for the account's type.
func (b AccountBalance) Side(accountType AccountType) NatureSide {
	if accountType.IsDebitNature() {
		return NatureDebit
	}
	return NatureCredit
}

// CalculateBalances is the single aggregation primitive behind every report:
// it sums debit and credit amounts of all posted, non-reversed ledger lines
// within the date bounds, per account, restricted to the given account types
// and active-state filter. Accounts without movement are absent from the map.
func CalculateBalances(db *gorm.DB, filter DateFilter, types []AccountType, includeInactive bool) (map[uint]AccountBalance, error) {
	q := db.Model(&JournalLine{}).
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Joins("JOIN accounts ON accounts.id = journal_lines.account_id").
		Where("journal_entries.status = ?", EntryStatusPosted)

	if len(types) > 0 {
		q = q.Where("accounts.account_type IN ?", types)
	}
	if !includeInactive {
		q = q.Where("accounts.is_active = ?", true)
	}
	q = filter.apply(q)

	switch db.Dialector.Name() {
	case "postgres":
		var rows []AccountBalance
		err := q.Select("journal_lines.account_id, " +
			"COALESCE(SUM(journal_lines.debit), 0) AS debit_total, " +
			"COALESCE(SUM(journal_lines.credit), 0) AS credit_total").
			Group("journal_lines.account_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		balances := make(map[uint]AccountBalance, len(rows))
		for _, row := range rows {
			balances[row.AccountID] = row
		}
		return balances, nil

	case "sqlite":
		// Sum in Go to avoid SQLite coercing decimals through floats.
		var lines []JournalLine
		err := q.Select("journal_lines.account_id, journal_lines.debit, journal_lines.credit").
			Find(&lines).Error
		if err != nil {
			return nil, err
		}
		balances := make(map[uint]AccountBalance)
		for _, line := range lines {
			b := balances[line.AccountID]
			b.AccountID = line.AccountID
			b.DebitTotal = b.DebitTotal.Add(line.Debit)
			b.CreditTotal = b.CreditTotal.Add(line.Credit)
			balances[line.AccountID] = b
		}
		return balances, nil

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.Dialector.Name())
	}
}
