package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountMovementsRunningBalance(t *testing.T) {
	service, db, cleanup := setupTestReportService(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	// Before the period: opening balance material.
	postEntry(t, db, date(2026, time.February, 20),
		testLine{account: cash.ID, debit: "500.00"},
		testLine{account: sales.ID, credit: "500.00"},
	)
	// Inside the period.
	postEntry(t, db, date(2026, time.March, 5),
		testLine{account: cash.ID, debit: "200.00"},
		testLine{account: sales.ID, credit: "200.00"},
	)
	postEntry(t, db, date(2026, time.March, 15),
		testLine{account: sales.ID, debit: "50.00"},
		testLine{account: cash.ID, credit: "50.00"},
	)

	report, err := service.AccountMovements(AccountMovementsParams{
		AccountID: cash.ID,
		StartDate: "2026-03-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)

	assert.Equal(t, cash.Code, report.Code)
	assert.Equal(t, NatureDebit, report.Side)
	requireDecimalEqual(t, "500.00", report.OpeningBalance)
	requireDecimalEqual(t, "200.00", report.TotalDebit)
	requireDecimalEqual(t, "50.00", report.TotalCredit)
	requireDecimalEqual(t, "650.00", report.ClosingBalance)
	assert.Equal(t, 2, report.TotalMovements)

	require.Len(t, report.Movements, 2)
	assert.Equal(t, "2026-03-05", report.Movements[0].Date)
	requireDecimalEqual(t, "700.00", report.Movements[0].Balance)
	requireDecimalEqual(t, "650.00", report.Movements[1].Balance)
}

func TestAccountMovementsOpeningExcludesStartDate(t *testing.T) {
	service, db, cleanup := setupTestReportService(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	// Posted exactly on the period start: a movement, not opening balance.
	postEntry(t, db, date(2026, time.March, 1),
		testLine{account: cash.ID, debit: "120.00"},
		testLine{account: sales.ID, credit: "120.00"},
	)

	report, err := service.AccountMovements(AccountMovementsParams{
		AccountID: cash.ID,
		StartDate: "2026-03-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)

	requireDecimalEqual(t, "0", report.OpeningBalance)
	require.Len(t, report.Movements, 1)
	requireDecimalEqual(t, "120.00", report.ClosingBalance)
}

func TestAccountMovementsOpeningIncludesTimedPriorDayEntries(t *testing.T) {
	service, db, cleanup := setupTestReportService(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	// Posted on the afternoon before the period start: opening balance
	// material even though the stored date carries a time of day.
	postEntry(t, db, date(2026, time.February, 28).Add(15*time.Hour),
		testLine{account: cash.ID, debit: "500.00"},
		testLine{account: sales.ID, credit: "500.00"},
	)
	postEntry(t, db, date(2026, time.March, 10),
		testLine{account: cash.ID, debit: "200.00"},
		testLine{account: sales.ID, credit: "200.00"},
	)

	report, err := service.AccountMovements(AccountMovementsParams{
		AccountID: cash.ID,
		StartDate: "2026-03-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)

	requireDecimalEqual(t, "500.00", report.OpeningBalance)
	require.Len(t, report.Movements, 1)
	requireDecimalEqual(t, "700.00", report.ClosingBalance)
}

func TestAccountMovementsCreditNatureAccount(t *testing.T) {
	service, db, cleanup := setupTestReportService(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	postEntry(t, db, date(2026, time.March, 5),
		testLine{account: cash.ID, debit: "300.00"},
		testLine{account: sales.ID, credit: "300.00"},
	)

	report, err := service.AccountMovements(AccountMovementsParams{
		AccountID: sales.ID,
		StartDate: "2026-03-01",
		EndDate:   "2026-03-31",
	})
	require.NoError(t, err)

	// Credit increases a revenue balance.
	assert.Equal(t, NatureCredit, report.Side)
	requireDecimalEqual(t, "300.00", report.ClosingBalance)
	requireDecimalEqual(t, "300.00", report.Movements[0].Balance)
}

func TestAccountMovementsUnknownAccount(t *testing.T) {
	service, _, cleanup := setupTestReportService(t)
	defer cleanup()

	_, err := service.AccountMovements(AccountMovementsParams{
		AccountID: 9999,
		StartDate: "2026-03-01",
		EndDate:   "2026-03-31",
	})
	require.Error(t, err)
	assert.Equal(t, CodeAccountNotFound, ErrorCodeOf(err))
}

func TestAccountMovementsPagination(t *testing.T) {
	service, db, cleanup := setupTestReportService(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	for day := 1; day <= 5; day++ {
		postEntry(t, db, date(2026, time.March, day),
			testLine{account: cash.ID, debit: fmt.Sprintf("%d.00", day*10)},
			testLine{account: sales.ID, credit: fmt.Sprintf("%d.00", day*10)},
		)
	}

	report, err := service.AccountMovements(AccountMovementsParams{
		AccountID:   cash.ID,
		StartDate:   "2026-03-01",
		EndDate:     "2026-03-31",
		ListOptions: ListOptions{Offset: 1, Limit: 2},
	})
	require.NoError(t, err)

	// Totals still cover the whole period.
	assert.Equal(t, 5, report.TotalMovements)
	requireDecimalEqual(t, "150.00", report.TotalDebit)

	require.Len(t, report.Movements, 2)
	assert.Equal(t, "2026-03-02", report.Movements[0].Date)
	assert.Equal(t, "2026-03-03", report.Movements[1].Date)
}

func TestPaginateMovementsDescending(t *testing.T) {
	movements := []Movement{
		{Date: "2026-03-01"},
		{Date: "2026-03-02"},
		{Date: "2026-03-03"},
	}

	desc := SortTypeDescending
	page := paginateMovements(movements, ListOptions{Sort: &desc})
	require.Len(t, page, 3)
	assert.Equal(t, "2026-03-03", page[0].Date)
	assert.Equal(t, "2026-03-01", page[2].Date)

	page = paginateMovements(movements, ListOptions{Offset: 10})
	assert.Empty(t, page)
}
