package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const monthLayout = "2006-01"

// MonthlyPoint is one month of a historical series. Month is formatted
// YYYY-MM; Value is the nature-aware net movement for that month.
type MonthlyPoint struct {
	Month string          `json:"month"`
	Value decimal.Decimal `json:"value"`
}

type monthlyAggregate struct {
	Month       string          `gorm:"column:month"`
	DebitTotal  decimal.Decimal `gorm:"column:debit_total"`
	CreditTotal decimal.Decimal `gorm:"column:credit_total"`
}

// MonthlySeries aggregates posted ledger activity of the given account
// types into one net value per calendar month over [from, to]. The series
// is dense: months without movement carry an explicit zero so downstream
// consumers see evenly spaced observations.
func MonthlySeries(db *gorm.DB, types []AccountType, from, to time.Time) ([]MonthlyPoint, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("monthly series requires at least one account type")
	}
	if from.After(to) {
		return nil, AppErrorf(CodeInvalidDateRange,
			"series start %s is after end %s", from.Format(reportDateLayout), to.Format(reportDateLayout))
	}

	q := db.Model(&JournalLine{}).
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Joins("JOIN accounts ON accounts.id = journal_lines.account_id").
		Where("journal_entries.status = ?", EntryStatusPosted).
		Where("accounts.account_type IN ?", types).
		Where("journal_entries.entry_date >= ?", from).
		Where("journal_entries.entry_date <= ?", to)

	var monthExpr string
	switch db.Dialector.Name() {
	case "postgres":
		monthExpr = "to_char(journal_entries.entry_date, 'YYYY-MM')"
	case "sqlite":
		monthExpr = "strftime('%Y-%m', journal_entries.entry_date)"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.Dialector.Name())
	}

	var rows []monthlyAggregate
	err := q.Select(monthExpr + " AS month, " +
		"COALESCE(SUM(journal_lines.debit), 0) AS debit_total, " +
		"COALESCE(SUM(journal_lines.credit), 0) AS credit_total").
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// All requested types share one nature by construction of the callers
	// (revenue alone, or cost/expense together), so the first type decides
	// the sign convention for the whole series.
	debitNature := types[0].IsDebitNature()
	byMonth := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		if debitNature {
			byMonth[row.Month] = row.DebitTotal.Sub(row.CreditTotal)
		} else {
			byMonth[row.Month] = row.CreditTotal.Sub(row.DebitTotal)
		}
	}

	series := make([]MonthlyPoint, 0, monthsBetween(from, to))
	for cursor := firstOfMonth(from); !cursor.After(to); cursor = cursor.AddDate(0, 1, 0) {
		month := cursor.Format(monthLayout)
		value, ok := byMonth[month]
		if !ok {
			value = decimal.Zero
		}
		series = append(series, MonthlyPoint{Month: month, Value: value})
	}
	return series, nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()) + 1
	if months < 0 {
		return 0
	}
	return months
}
