package main

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/log"
)

const reportDateLayout = "2006-01-02"

// balanceTolerance is the largest absolute difference still reported as
// balanced, covering residual rounding on the report boundary.
var balanceTolerance = decimal.NewFromFloat(0.01)

// ReportService generates the financial reports. All generation is
// read-only and side-effect free; reports may run fully in parallel.
type ReportService struct {
	db      *gorm.DB
	metrics *Metrics
	lg      log.Logger
}

func NewReportService(db *gorm.DB, metrics *Metrics, lg log.Logger) *ReportService {
	return &ReportService{
		db:      db,
		metrics: metrics,
		lg:      lg.WithName("reports"),
	}
}

func (s *ReportService) observe(reportType string) {
	if s.metrics != nil {
		s.metrics.ReportGenerations.WithLabelValues(reportType).Inc()
	}
}

// parseReportDate parses a YYYY-MM-DD date string.
func parseReportDate(value string) (time.Time, error) {
	t, err := time.Parse(reportDateLayout, value)
	if err != nil {
		return time.Time{}, AppErrorf(CodeInvalidDateFormat, "invalid date: %s", value)
	}
	return t, nil
}

// parseReportRange parses and orders a [start, end] period.
func parseReportRange(start, end string) (time.Time, time.Time, error) {
	from, err := parseReportDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseReportDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, AppErrorf(CodeInvalidDateRange,
			"start date %s is after end date %s", start, end)
	}
	return from, to, nil
}

// round2 rounds to 2 decimal places, half away from zero. Applied only at
// the output boundary; all accumulation happens on unrounded decimals so
// subtotal sums cannot drift from their entries.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Period is a closed report date range.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Variance is the period-over-period comparison attached to entries and
// totals when a comparison date or period is requested.
type Variance struct {
	Previous decimal.Decimal `json:"previous"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// computeVariance derives variance = current - previous and its percentage.
// A previous of zero yields 100% when anything moved and 0% when both sides
// are zero.
func computeVariance(current, previous decimal.Decimal) Variance {
	amount := current.Sub(previous)
	var percent decimal.Decimal
	switch {
	case !previous.IsZero():
		percent = amount.Div(previous).Mul(hundred)
	case !current.IsZero():
		percent = hundred
	default:
		percent = decimal.Zero
	}
	return Variance{
		Previous: round2(previous),
		Amount:   round2(amount),
		Percent:  round2(percent),
	}
}

// percentOf returns part/whole*100, zero-guarded for a zero whole.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return round2(part.Div(whole).Mul(hundred))
}
