package main

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeStatementParams controls income statement generation over the
// [StartDate, EndDate] period.
type IncomeStatementParams struct {
	StartDate        string `json:"start_date" validate:"required"`
	EndDate          string `json:"end_date" validate:"required"`
	CompareStartDate string `json:"compare_start_date,omitempty"`
	CompareEndDate   string `json:"compare_end_date,omitempty"`
	ShowZeroBalances bool   `json:"show_zero_balances,omitempty"`
	IncludeInactive  bool   `json:"include_inactive,omitempty"`
}

// IncomeStatementEntry is one account row. Amount is the absolute value of
// the nature-aware net movement for the period.
type IncomeStatementEntry struct {
	AccountID uint            `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Level     int             `json:"level"`
	ParentID  *uint           `json:"parent_id,omitempty"`
	IsDetail  bool            `json:"is_detail"`
	Amount    decimal.Decimal `json:"amount"`
	Variance  *Variance       `json:"variance,omitempty"`
}

// IncomeStatementSection groups entries of one statement category. Totals
// sum only detail accounts.
type IncomeStatementSection struct {
	Entries []IncomeStatementEntry `json:"entries"`
	Total   decimal.Decimal        `json:"total"`
}

// IncomeStatementReport is the profit and loss statement for a period.
// Margins are percentages of total revenue and zero when revenue is zero.
type IncomeStatementReport struct {
	Period                Period                             `json:"period"`
	ComparePeriod         *Period                            `json:"compare_period,omitempty"`
	Sections              map[string]*IncomeStatementSection `json:"sections"`
	TotalRevenue          decimal.Decimal                    `json:"total_revenue"`
	TotalCosts            decimal.Decimal                    `json:"total_costs"`
	TotalExpenses         decimal.Decimal                    `json:"total_expenses"`
	GrossProfit           decimal.Decimal                    `json:"gross_profit"`
	GrossMargin           decimal.Decimal                    `json:"gross_margin"`
	OperatingIncome       decimal.Decimal                    `json:"operating_income"`
	OperatingMargin       decimal.Decimal                    `json:"operating_margin"`
	GeneratedAt           time.Time                          `json:"generated_at"`
}

var incomeStatementSections = map[AccountType]string{
	AccountTypeRevenue: "revenue",
	AccountTypeCost:    "costs",
	AccountTypeExpense: "operating_expenses",
}

var incomeStatementTypes = []AccountType{AccountTypeRevenue, AccountTypeCost, AccountTypeExpense}

// IncomeStatement reports revenue, cost of sales and operating expenses for
// a period, with gross profit and operating income derived lines.
func (s *ReportService) IncomeStatement(params IncomeStatementParams) (*IncomeStatementReport, error) {
	from, to, err := parseReportRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	var compareBalances map[uint]AccountBalance
	var comparePeriod *Period
	if params.CompareStartDate != "" || params.CompareEndDate != "" {
		compareFrom, compareTo, err := parseReportRange(params.CompareStartDate, params.CompareEndDate)
		if err != nil {
			return nil, err
		}
		compareBalances, err = CalculateBalances(s.db,
			DateFilter{From: &compareFrom, To: &compareTo}, incomeStatementTypes, params.IncludeInactive)
		if err != nil {
			return nil, err
		}
		comparePeriod = &Period{Start: params.CompareStartDate, End: params.CompareEndDate}
	}

	accounts, err := GetAccounts(s.db, AccountFilter{
		Types:           incomeStatementTypes,
		IncludeInactive: params.IncludeInactive,
	})
	if err != nil {
		return nil, err
	}
	balances, err := CalculateBalances(s.db, DateFilter{From: &from, To: &to}, incomeStatementTypes, params.IncludeInactive)
	if err != nil {
		return nil, err
	}

	report := &IncomeStatementReport{
		Period:        Period{Start: params.StartDate, End: params.EndDate},
		ComparePeriod: comparePeriod,
		Sections: map[string]*IncomeStatementSection{
			"revenue":            {Entries: []IncomeStatementEntry{}},
			"costs":              {Entries: []IncomeStatementEntry{}},
			"operating_expenses": {Entries: []IncomeStatementEntry{}},
		},
		GeneratedAt: time.Now().UTC(),
	}

	totals := map[string]decimal.Decimal{
		"revenue":            decimal.Zero,
		"costs":              decimal.Zero,
		"operating_expenses": decimal.Zero,
	}

	for _, account := range accounts {
		balance, hasMovement := balances[account.ID]
		net := balance.Net(account.Type)
		if !params.ShowZeroBalances && (!hasMovement || net.IsZero()) {
			continue
		}

		section := incomeStatementSections[account.Type]
		entry := IncomeStatementEntry{
			AccountID: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Type:      account.Type,
			Level:     AccountLevel(account.Code),
			ParentID:  account.ParentID,
			IsDetail:  account.IsDetail,
			Amount:    round2(net.Abs()),
		}
		if compareBalances != nil {
			v := computeVariance(net.Abs(), compareBalances[account.ID].Net(account.Type).Abs())
			entry.Variance = &v
		}
		report.Sections[section].Entries = append(report.Sections[section].Entries, entry)

		// Category totals sum the signed nature-aware net, so a contra
		// account (negative net) reduces its category rather than
		// inflating it. Abs is presentation only.
		if account.IsDetail {
			totals[section] = totals[section].Add(net)
		}
	}

	for name, section := range report.Sections {
		section.Total = round2(totals[name])
	}

	revenue := totals["revenue"]
	costs := totals["costs"]
	expenses := totals["operating_expenses"]
	grossProfit := revenue.Sub(costs)
	operatingIncome := grossProfit.Sub(expenses)

	report.TotalRevenue = round2(revenue)
	report.TotalCosts = round2(costs)
	report.TotalExpenses = round2(expenses)
	report.GrossProfit = round2(grossProfit)
	report.GrossMargin = percentOf(grossProfit, revenue)
	report.OperatingIncome = round2(operatingIncome)
	report.OperatingMargin = percentOf(operatingIncome, revenue)

	s.observe("income_statement")
	return report, nil
}
