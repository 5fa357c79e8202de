package main

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceParams controls trial balance generation. Comparison dates
// are optional; both must be given to enable variance. A Level of zero
// includes every hierarchy level.
type TrialBalanceParams struct {
	StartDate         string `json:"start_date" validate:"required"`
	EndDate           string `json:"end_date" validate:"required"`
	CompareStartDate  string `json:"compare_start_date,omitempty"`
	CompareEndDate    string `json:"compare_end_date,omitempty"`
	Level             int    `json:"level,omitempty"`
	OnlyWithMovements *bool  `json:"only_with_movements,omitempty"`
	IncludeInactive   bool   `json:"include_inactive,omitempty"`
}

// TrialBalanceEntry is one account row of the trial balance.
type TrialBalanceEntry struct {
	AccountID uint            `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Level     int             `json:"level"`
	ParentID  *uint           `json:"parent_id,omitempty"`
	IsDetail  bool            `json:"is_detail"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`
	Side      NatureSide      `json:"side"`
	Variance  *Variance       `json:"variance,omitempty"`
}

// TrialBalanceReport is the full trial balance over a period.
type TrialBalanceReport struct {
	Period        Period              `json:"period"`
	ComparePeriod *Period             `json:"compare_period,omitempty"`
	Entries       []TrialBalanceEntry `json:"entries"`
	TotalDebit    decimal.Decimal     `json:"total_debit"`
	TotalCredit   decimal.Decimal     `json:"total_credit"`
	Difference    decimal.Decimal     `json:"difference"`
	IsBalanced    bool                `json:"is_balanced"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// TrialBalance aggregates every account's debit and credit movement over
// the period. The report is balanced when total debits and credits agree
// within the rounding tolerance.
func (s *ReportService) TrialBalance(params TrialBalanceParams) (*TrialBalanceReport, error) {
	from, to, err := parseReportRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	var compare *Period
	var compareBalances map[uint]AccountBalance
	if params.CompareStartDate != "" || params.CompareEndDate != "" {
		cFrom, cTo, err := parseReportRange(params.CompareStartDate, params.CompareEndDate)
		if err != nil {
			return nil, err
		}
		compareBalances, err = CalculateBalances(s.db,
			DateFilter{From: &cFrom, To: &cTo}, nil, params.IncludeInactive)
		if err != nil {
			return nil, err
		}
		compare = &Period{Start: params.CompareStartDate, End: params.CompareEndDate}
	}

	accounts, err := GetAccounts(s.db, AccountFilter{IncludeInactive: params.IncludeInactive})
	if err != nil {
		return nil, err
	}
	balances, err := CalculateBalances(s.db, DateFilter{From: &from, To: &to}, nil, params.IncludeInactive)
	if err != nil {
		return nil, err
	}

	onlyWithMovements := true
	if params.OnlyWithMovements != nil {
		onlyWithMovements = *params.OnlyWithMovements
	}

	report := &TrialBalanceReport{
		Period:        Period{Start: params.StartDate, End: params.EndDate},
		ComparePeriod: compare,
		Entries:       []TrialBalanceEntry{},
		GeneratedAt:   time.Now().UTC(),
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, account := range accounts {
		balance, hasMovement := balances[account.ID]
		if onlyWithMovements && (!hasMovement || (balance.DebitTotal.IsZero() && balance.CreditTotal.IsZero())) {
			continue
		}

		level := AccountLevel(account.Code)
		if params.Level > 0 && level != params.Level {
			continue
		}

		entry := TrialBalanceEntry{
			AccountID: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Type:      account.Type,
			Level:     level,
			ParentID:  account.ParentID,
			IsDetail:  account.IsDetail,
			Debit:     round2(balance.DebitTotal),
			Credit:    round2(balance.CreditTotal),
			Balance:   round2(balance.Net(account.Type)),
			Side:      balance.Side(account.Type),
		}
		if compareBalances != nil {
			v := computeVariance(balance.Net(account.Type), compareBalances[account.ID].Net(account.Type))
			entry.Variance = &v
		}
		report.Entries = append(report.Entries, entry)

		totalDebit = totalDebit.Add(balance.DebitTotal)
		totalCredit = totalCredit.Add(balance.CreditTotal)
	}

	difference := totalDebit.Sub(totalCredit).Abs()
	report.TotalDebit = round2(totalDebit)
	report.TotalCredit = round2(totalCredit)
	report.Difference = round2(difference)
	report.IsBalanced = difference.LessThan(balanceTolerance)

	s.observe("trial_balance")
	return report, nil
}
