package main

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountMovementsParams controls the drill-down for one account over a
// period. ListOptions paginate the movement lines only; opening and closing
// balances always cover the full period regardless of the page.
type AccountMovementsParams struct {
	AccountID uint   `json:"account_id" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	ListOptions
}

// Movement is one ledger line within the drill-down with the running
// balance after applying it.
type Movement struct {
	Date        string          `json:"date"`
	EntryNumber uint            `json:"entry_number"`
	LineNumber  uint            `json:"line_number"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// AccountMovementsReport is the per-account statement: opening balance
// strictly before the period, the period's movements in chronological
// order, and the resulting closing balance.
type AccountMovementsReport struct {
	AccountID      uint            `json:"account_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Side           NatureSide      `json:"side"`
	Period         Period          `json:"period"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Movements      []Movement      `json:"movements"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	TotalMovements int             `json:"total_movements"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// AccountMovements drills into a single account: nature-adjusted opening
// balance, chronological movements with a running balance, and the closing
// balance. The running balance accumulates unrounded; only the displayed
// values are rounded.
func (s *ReportService) AccountMovements(params AccountMovementsParams) (*AccountMovementsReport, error) {
	from, to, err := parseReportRange(params.StartDate, params.EndDate)
	if err != nil {
		return nil, err
	}

	account, err := GetAccountByID(s.db, params.AccountID)
	if err != nil {
		return nil, err
	}

	// Opening balance covers everything strictly before the period start.
	openingLines, err := GetPostingLines(s.db, []uint{account.ID}, DateFilter{Before: &from})
	if err != nil {
		return nil, err
	}
	opening := AccountBalance{AccountID: account.ID}
	for _, line := range openingLines {
		opening.DebitTotal = opening.DebitTotal.Add(line.Debit)
		opening.CreditTotal = opening.CreditTotal.Add(line.Credit)
	}
	openingNet := opening.Net(account.Type)

	lines, err := GetPostingLines(s.db, []uint{account.ID}, DateFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	report := &AccountMovementsReport{
		AccountID:      account.ID,
		Code:           account.Code,
		Name:           account.Name,
		Type:           account.Type,
		Side:           opening.Side(account.Type),
		Period:         Period{Start: params.StartDate, End: params.EndDate},
		OpeningBalance: round2(openingNet),
		Movements:      []Movement{},
		TotalMovements: len(lines),
		GeneratedAt:    time.Now().UTC(),
	}

	debitNature := account.Type.IsDebitNature()
	running := openingNet
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero

	movements := make([]Movement, 0, len(lines))
	for _, line := range lines {
		if debitNature {
			running = running.Add(line.Debit).Sub(line.Credit)
		} else {
			running = running.Add(line.Credit).Sub(line.Debit)
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)

		movements = append(movements, Movement{
			Date:        line.EntryDate.Format(reportDateLayout),
			EntryNumber: line.EntryNumber,
			LineNumber:  line.LineNumber,
			Description: line.Description,
			Debit:       round2(line.Debit),
			Credit:      round2(line.Credit),
			Balance:     round2(running),
		})
	}

	report.TotalDebit = round2(totalDebit)
	report.TotalCredit = round2(totalCredit)
	report.ClosingBalance = round2(running)
	report.Movements = paginateMovements(movements, params.ListOptions)

	s.observe("account_movements")
	return report, nil
}

// paginateMovements slices the in-order movement list according to the list
// options. Sort direction applies to the page order only; running balances
// keep their chronological meaning.
func paginateMovements(movements []Movement, opts ListOptions) []Movement {
	limit := int(opts.Limit)
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := int(opts.Offset)

	if opts.Sort != nil && *opts.Sort == SortTypeDescending {
		reversed := make([]Movement, len(movements))
		for i, m := range movements {
			reversed[len(movements)-1-i] = m
		}
		movements = reversed
	}

	if offset >= len(movements) {
		return []Movement{}
	}
	end := offset + limit
	if end > len(movements) {
		end = len(movements)
	}
	return movements[offset:end]
}
