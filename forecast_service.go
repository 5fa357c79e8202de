package main

import (
	"time"

	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/forecast"
	"github.com/corebooks/corebooks/pkg/log"
)

// minForecastMonths is the smallest history eligible for projection.
const minForecastMonths = 3

// defaultLookbackMonths bounds how far back the historical series reaches
// when the caller does not say.
const defaultLookbackMonths = 24

// ForecastParams controls a forecast run. BaseDate anchors the history
// window; empty means today. LookbackMonths trims the history; zero means
// the default window.
type ForecastParams struct {
	BaseDate       string `json:"base_date,omitempty"`
	LookbackMonths int    `json:"lookback_months,omitempty" validate:"omitempty,min=3,max=120"`
}

// SeriesForecast pairs a historical monthly series with its projections.
type SeriesForecast struct {
	Historical  []MonthlyPoint         `json:"historical"`
	Projections *forecast.ProjectionSet `json:"projections,omitempty"`
}

// ForecastReport is the full projection bundle: revenue, cost of sales and
// operating expenses, each projected independently from its own series.
type ForecastReport struct {
	BaseMonth            string          `json:"base_month"`
	LookbackMonths       int             `json:"lookback_months"`
	Revenue              *SeriesForecast `json:"revenue"`
	Costs                *SeriesForecast `json:"costs"`
	Expenses             *SeriesForecast `json:"expenses"`
	HasInsufficientData  bool            `json:"has_insufficient_data"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// ForecastService builds historical series from the ledger and projects
// them forward.
type ForecastService struct {
	db      *gorm.DB
	metrics *Metrics
	lg      log.Logger
}

func NewForecastService(db *gorm.DB, metrics *Metrics, lg log.Logger) *ForecastService {
	return &ForecastService{
		db:      db,
		metrics: metrics,
		lg:      lg.WithName("forecast"),
	}
}

// Forecast projects revenue, costs and expenses. Series shorter than three
// observed months are returned without projections and flag the report as
// having insufficient data.
func (s *ForecastService) Forecast(params ForecastParams) (*ForecastReport, error) {
	base := time.Now().UTC()
	if params.BaseDate != "" {
		parsed, err := parseReportDate(params.BaseDate)
		if err != nil {
			return nil, err
		}
		base = parsed
	}
	lookback := params.LookbackMonths
	if lookback <= 0 {
		lookback = defaultLookbackMonths
	}

	// History ends with the last full calendar month before the base date.
	end := firstOfMonth(base).AddDate(0, 0, -1)
	start := firstOfMonth(end).AddDate(0, -(lookback - 1), 0)

	report := &ForecastReport{
		BaseMonth:      end.Format(monthLayout),
		LookbackMonths: lookback,
		GeneratedAt:    time.Now().UTC(),
	}

	groups := []struct {
		name   string
		types  []AccountType
		target **SeriesForecast
	}{
		{"revenue", []AccountType{AccountTypeRevenue}, &report.Revenue},
		{"costs", []AccountType{AccountTypeCost}, &report.Costs},
		{"expenses", []AccountType{AccountTypeExpense}, &report.Expenses},
	}

	for _, group := range groups {
		series, err := MonthlySeries(s.db, group.types, start, end)
		if err != nil {
			return nil, err
		}
		sf := &SeriesForecast{Historical: series}
		*group.target = sf

		observed := observedMonths(series)
		if observed < minForecastMonths {
			s.lg.Info("series too short to project",
				"series", group.name, "observed_months", observed)
			report.HasInsufficientData = true
			continue
		}

		values := make([]float64, len(series))
		for i, point := range series {
			values[i], _ = point.Value.Float64()
		}
		projections, err := forecast.NewProjectionSet(values, series[len(series)-1].Month)
		if err != nil {
			return nil, err
		}
		sf.Projections = projections
	}

	if s.metrics != nil {
		s.metrics.ForecastRuns.Inc()
	}
	return report, nil
}

// observedMonths counts months with actual movement; zero-filled gaps do
// not count toward the projection minimum.
func observedMonths(series []MonthlyPoint) int {
	count := 0
	for _, point := range series {
		if !point.Value.IsZero() {
			count++
		}
	}
	return count
}
