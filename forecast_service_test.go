package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestForecastService(t testing.TB) (*ForecastService, *gorm.DB, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	return NewForecastService(db, nil, testLogger()), db, cleanup
}

// seedMonthlyRevenue posts one sale per month from January through the given
// month count of 2026, growing 100 per month.
func seedMonthlyRevenue(t testing.TB, db *gorm.DB, months int) {
	t.Helper()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)
	for m := 1; m <= months; m++ {
		amount := fmt.Sprintf("%d.00", m*100)
		postEntry(t, db, date(2026, time.Month(m), 15),
			testLine{account: cash.ID, debit: amount},
			testLine{account: sales.ID, credit: amount},
		)
	}
}

func TestForecastProjectsRevenue(t *testing.T) {
	service, db, cleanup := setupTestForecastService(t)
	defer cleanup()

	seedMonthlyRevenue(t, db, 6)

	report, err := service.Forecast(ForecastParams{BaseDate: "2026-07-10", LookbackMonths: 6})
	require.NoError(t, err)

	assert.Equal(t, "2026-06", report.BaseMonth)
	assert.Equal(t, 6, report.LookbackMonths)

	require.NotNil(t, report.Revenue)
	require.Len(t, report.Revenue.Historical, 6)
	assert.Equal(t, "2026-01", report.Revenue.Historical[0].Month)
	requireDecimalEqual(t, "600.00", report.Revenue.Historical[5].Value)

	require.NotNil(t, report.Revenue.Projections)
	require.Len(t, report.Revenue.Projections.ThreeMonths, 3)
	assert.Equal(t, "2026-07", report.Revenue.Projections.ThreeMonths[0].Month)
	assert.Equal(t, "increasing", report.Revenue.Projections.Trend)
	assert.InDelta(t, 700, report.Revenue.Projections.ThreeMonths[0].Predicted, 0.01)
}

func TestForecastInsufficientData(t *testing.T) {
	service, db, cleanup := setupTestForecastService(t)
	defer cleanup()

	// Two observed months: below the projection minimum.
	seedMonthlyRevenue(t, db, 2)

	report, err := service.Forecast(ForecastParams{BaseDate: "2026-07-10", LookbackMonths: 6})
	require.NoError(t, err)

	assert.True(t, report.HasInsufficientData)
	require.NotNil(t, report.Revenue)
	assert.Nil(t, report.Revenue.Projections)
	// The historical series is still returned for display.
	assert.Len(t, report.Revenue.Historical, 6)
}

func TestForecastZeroFilledGapsDoNotCount(t *testing.T) {
	service, db, cleanup := setupTestForecastService(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)
	// Movement in only two of six months; the dense series has six points
	// but only two observations.
	for _, m := range []time.Month{time.January, time.April} {
		postEntry(t, db, date(2026, m, 15),
			testLine{account: cash.ID, debit: "100.00"},
			testLine{account: sales.ID, credit: "100.00"},
		)
	}

	report, err := service.Forecast(ForecastParams{BaseDate: "2026-07-10", LookbackMonths: 6})
	require.NoError(t, err)
	assert.True(t, report.HasInsufficientData)
	assert.Nil(t, report.Revenue.Projections)
}

func TestForecastRejectsBadBaseDate(t *testing.T) {
	service, _, cleanup := setupTestForecastService(t)
	defer cleanup()

	_, err := service.Forecast(ForecastParams{BaseDate: "July 2026"})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidDateFormat, ErrorCodeOf(err))
}

func TestObservedMonths(t *testing.T) {
	series := []MonthlyPoint{
		{Month: "2026-01", Value: requireDecimal(t, "100")},
		{Month: "2026-02", Value: requireDecimal(t, "0")},
		{Month: "2026-03", Value: requireDecimal(t, "50")},
	}
	assert.Equal(t, 2, observedMonths(series))
	assert.Equal(t, 0, observedMonths(nil))
}
