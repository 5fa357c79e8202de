package main

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSheetParams controls balance sheet generation. The report is a
// point-in-time snapshot at AsOfDate; CompareDate enables variance.
type BalanceSheetParams struct {
	AsOfDate         string `json:"as_of_date" validate:"required"`
	CompareDate      string `json:"compare_date,omitempty"`
	ShowZeroBalances bool   `json:"show_zero_balances,omitempty"`
	IncludeInactive  bool   `json:"include_inactive,omitempty"`
}

// BalanceSheetEntry is one account row. Balance is the absolute value of
// the nature-aware net balance: presentation convention for the statement.
type BalanceSheetEntry struct {
	AccountID uint            `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Level     int             `json:"level"`
	ParentID  *uint           `json:"parent_id,omitempty"`
	IsDetail  bool            `json:"is_detail"`
	Balance   decimal.Decimal `json:"balance"`
	Side      NatureSide      `json:"side"`
	Variance  *Variance       `json:"variance,omitempty"`
}

// BalanceSheetSection groups entries of one statement section. Totals sum
// only detail accounts so grouping rows never double-count.
type BalanceSheetSection struct {
	Entries []BalanceSheetEntry `json:"entries"`
	Total   decimal.Decimal     `json:"total"`
}

// BalanceSheetReport is the statement of financial position at a date.
type BalanceSheetReport struct {
	AsOfDate         string                          `json:"as_of_date"`
	CompareDate      string                          `json:"compare_date,omitempty"`
	Sections         map[string]*BalanceSheetSection `json:"sections"`
	TotalAssets      decimal.Decimal                 `json:"total_assets"`
	TotalLiabilities decimal.Decimal                 `json:"total_liabilities"`
	TotalEquity      decimal.Decimal                 `json:"total_equity"`
	Difference       decimal.Decimal                 `json:"difference"`
	IsBalanced       bool                            `json:"is_balanced"`
	GeneratedAt      time.Time                       `json:"generated_at"`
}

// balanceSheetSections maps account types to statement sections.
var balanceSheetSections = map[AccountType]string{
	AccountTypeAsset:     "assets",
	AccountTypeLiability: "liabilities",
	AccountTypeEquity:    "equity",
}

var balanceSheetTypes = []AccountType{AccountTypeAsset, AccountTypeLiability, AccountTypeEquity}

// BalanceSheet reports assets, liabilities and equity as of a date.
// Balanced means assets equal liabilities plus equity within tolerance.
func (s *ReportService) BalanceSheet(params BalanceSheetParams) (*BalanceSheetReport, error) {
	asOf, err := parseReportDate(params.AsOfDate)
	if err != nil {
		return nil, err
	}

	var compareBalances map[uint]AccountBalance
	if params.CompareDate != "" {
		compareDate, err := parseReportDate(params.CompareDate)
		if err != nil {
			return nil, err
		}
		compareBalances, err = CalculateBalances(s.db,
			DateFilter{AsOf: &compareDate}, balanceSheetTypes, params.IncludeInactive)
		if err != nil {
			return nil, err
		}
	}

	accounts, err := GetAccounts(s.db, AccountFilter{
		Types:           balanceSheetTypes,
		IncludeInactive: params.IncludeInactive,
	})
	if err != nil {
		return nil, err
	}
	balances, err := CalculateBalances(s.db, DateFilter{AsOf: &asOf}, balanceSheetTypes, params.IncludeInactive)
	if err != nil {
		return nil, err
	}

	report := &BalanceSheetReport{
		AsOfDate:    params.AsOfDate,
		CompareDate: params.CompareDate,
		Sections: map[string]*BalanceSheetSection{
			"assets":      {Entries: []BalanceSheetEntry{}},
			"liabilities": {Entries: []BalanceSheetEntry{}},
			"equity":      {Entries: []BalanceSheetEntry{}},
		},
		GeneratedAt: time.Now().UTC(),
	}

	totals := map[string]decimal.Decimal{
		"assets":      decimal.Zero,
		"liabilities": decimal.Zero,
		"equity":      decimal.Zero,
	}

	for _, account := range accounts {
		balance, hasMovement := balances[account.ID]
		net := balance.Net(account.Type)
		if !params.ShowZeroBalances && (!hasMovement || net.IsZero()) {
			continue
		}

		section := balanceSheetSections[account.Type]
		entry := BalanceSheetEntry{
			AccountID: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Type:      account.Type,
			Level:     AccountLevel(account.Code),
			ParentID:  account.ParentID,
			IsDetail:  account.IsDetail,
			Balance:   round2(net.Abs()),
			Side:      balance.Side(account.Type),
		}
		if compareBalances != nil {
			v := computeVariance(net.Abs(), compareBalances[account.ID].Net(account.Type).Abs())
			entry.Variance = &v
		}
		report.Sections[section].Entries = append(report.Sections[section].Entries, entry)

		if account.IsDetail {
			totals[section] = totals[section].Add(net)
		}
	}

	for name, section := range report.Sections {
		section.Total = round2(totals[name])
	}
	report.TotalAssets = round2(totals["assets"])
	report.TotalLiabilities = round2(totals["liabilities"])
	report.TotalEquity = round2(totals["equity"])

	difference := totals["assets"].Sub(totals["liabilities"].Add(totals["equity"])).Abs()
	report.Difference = round2(difference)
	report.IsBalanced = difference.LessThan(balanceTolerance)

	s.observe("balance_sheet")
	return report, nil
}
