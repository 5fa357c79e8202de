package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBalancesSumsPerAccount(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	postEntry(t, db, date(2026, time.March, 5),
		testLine{account: cash.ID, debit: "100.00"},
		testLine{account: sales.ID, credit: "100.00"},
	)
	postEntry(t, db, date(2026, time.March, 20),
		testLine{account: cash.ID, debit: "40.50"},
		testLine{account: sales.ID, credit: "40.50"},
	)

	balances, err := CalculateBalances(db, DateFilter{}, nil, false)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	requireDecimalEqual(t, "140.50", balances[cash.ID].DebitTotal)
	requireDecimalEqual(t, "0", balances[cash.ID].CreditTotal)
	requireDecimalEqual(t, "140.50", balances[sales.ID].CreditTotal)
}

func TestCalculateBalancesSkipsUnpostedEntries(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	postEntry(t, db, date(2026, time.March, 5),
		testLine{account: cash.ID, debit: "100.00"},
		testLine{account: sales.ID, credit: "100.00"},
	)

	for _, status := range []EntryStatus{EntryStatusDraft, EntryStatusReversed} {
		testEntrySeq++
		entry := JournalEntry{Number: testEntrySeq, Date: date(2026, time.March, 6), Status: status}
		require.NoError(t, db.Create(&entry).Error)
		require.NoError(t, db.Create(&JournalLine{
			EntryID: entry.ID, LineNumber: 1, AccountID: cash.ID,
			Debit: requireDecimal(t, "999"), Credit: requireDecimal(t, ""),
		}).Error)
	}

	balances, err := CalculateBalances(db, DateFilter{}, nil, false)
	require.NoError(t, err)
	requireDecimalEqual(t, "100.00", balances[cash.ID].DebitTotal)
}

func TestCalculateBalancesDateBounds(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	for day, amount := range map[int]string{10: "10", 20: "20", 30: "30"} {
		postEntry(t, db, date(2026, time.April, day),
			testLine{account: cash.ID, debit: amount},
			testLine{account: sales.ID, credit: amount},
		)
	}

	asOf := date(2026, time.April, 20)
	balances, err := CalculateBalances(db, DateFilter{AsOf: &asOf}, nil, false)
	require.NoError(t, err)
	requireDecimalEqual(t, "30", balances[cash.ID].DebitTotal)

	from := date(2026, time.April, 15)
	to := date(2026, time.April, 30)
	balances, err = CalculateBalances(db, DateFilter{From: &from, To: &to}, nil, false)
	require.NoError(t, err)
	requireDecimalEqual(t, "50", balances[cash.ID].DebitTotal)
}

func TestCalculateBalancesTypeAndActiveFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)
	rent := seedAccount(t, db, "611-000-000", "Rent", AccountTypeExpense, nil, true)

	postEntry(t, db, date(2026, time.May, 5),
		testLine{account: cash.ID, debit: "75"},
		testLine{account: sales.ID, credit: "75"},
	)
	postEntry(t, db, date(2026, time.May, 6),
		testLine{account: rent.ID, debit: "25"},
		testLine{account: cash.ID, credit: "25"},
	)

	balances, err := CalculateBalances(db, DateFilter{}, []AccountType{AccountTypeRevenue, AccountTypeExpense}, false)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	_, hasCash := balances[cash.ID]
	assert.False(t, hasCash)

	require.NoError(t, db.Model(&Account{}).Where("id = ?", rent.ID).Update("is_active", false).Error)

	balances, err = CalculateBalances(db, DateFilter{}, nil, false)
	require.NoError(t, err)
	_, hasRent := balances[rent.ID]
	assert.False(t, hasRent)

	balances, err = CalculateBalances(db, DateFilter{}, nil, true)
	require.NoError(t, err)
	requireDecimalEqual(t, "25", balances[rent.ID].DebitTotal)
}

func TestAccountBalanceNetAndSide(t *testing.T) {
	balance := AccountBalance{
		DebitTotal:  requireDecimal(t, "120"),
		CreditTotal: requireDecimal(t, "45"),
	}

	requireDecimalEqual(t, "75", balance.Net(AccountTypeAsset))
	requireDecimalEqual(t, "-75", balance.Net(AccountTypeLiability))
	assert.Equal(t, NatureDebit, balance.Side(AccountTypeExpense))
	assert.Equal(t, NatureDebit, balance.Side(AccountTypeCost))
	assert.Equal(t, NatureCredit, balance.Side(AccountTypeRevenue))
	assert.Equal(t, NatureCredit, balance.Side(AccountTypeEquity))
}

func TestGetPostingLinesChronologicalOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	cash := seedAccount(t, db, "111-000-000", "Cash", AccountTypeAsset, nil, true)
	sales := seedAccount(t, db, "411-000-000", "Sales", AccountTypeRevenue, nil, true)

	postEntry(t, db, date(2026, time.June, 10),
		testLine{account: cash.ID, debit: "5"},
		testLine{account: sales.ID, credit: "5"},
	)
	postEntry(t, db, date(2026, time.June, 1),
		testLine{account: cash.ID, debit: "3"},
		testLine{account: sales.ID, credit: "3"},
	)

	lines, err := GetPostingLines(db, []uint{cash.ID}, DateFilter{})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].EntryDate.Before(lines[1].EntryDate))
	requireDecimalEqual(t, "3", lines[0].Debit)
	requireDecimalEqual(t, "5", lines[1].Debit)
}
