package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountTypeCompatibility(t *testing.T) {
	cases := []struct {
		parent  AccountType
		child   AccountType
		allowed bool
	}{
		{AccountTypeAsset, AccountTypeAsset, true},
		{AccountTypeAsset, AccountTypeLiability, false},
		{AccountTypeAsset, AccountTypeExpense, false},
		{AccountTypeLiability, AccountTypeLiability, true},
		{AccountTypeLiability, AccountTypeEquity, false},
		{AccountTypeEquity, AccountTypeEquity, true},
		{AccountTypeRevenue, AccountTypeRevenue, true},
		{AccountTypeRevenue, AccountTypeCost, false},
		{AccountTypeExpense, AccountTypeExpense, true},
		{AccountTypeExpense, AccountTypeCost, true},
		{AccountTypeCost, AccountTypeCost, false},
		{AccountTypeCost, AccountTypeExpense, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.parent.AllowsChild(tc.child),
			"parent %s child %s", tc.parent, tc.child)
	}
}

func TestAccountTypeCanHaveChildren(t *testing.T) {
	for _, accountType := range AccountTypes {
		if accountType == AccountTypeCost {
			assert.False(t, accountType.CanHaveChildren())
		} else {
			assert.True(t, accountType.CanHaveChildren(), "type %s", accountType)
		}
	}
}

func TestAccountTypeNature(t *testing.T) {
	assert.True(t, AccountTypeAsset.IsDebitNature())
	assert.True(t, AccountTypeExpense.IsDebitNature())
	assert.True(t, AccountTypeCost.IsDebitNature())
	assert.False(t, AccountTypeLiability.IsDebitNature())
	assert.False(t, AccountTypeEquity.IsDebitNature())
	assert.False(t, AccountTypeRevenue.IsDebitNature())
}

func TestParseAccountType(t *testing.T) {
	parsed, err := ParseAccountType("Asset")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeAsset, parsed)

	parsed, err = ParseAccountType("  REVENUE ")
	require.NoError(t, err)
	assert.Equal(t, AccountTypeRevenue, parsed)

	_, err = ParseAccountType("inventory")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidAccountType, ErrorCodeOf(err))
}

func TestAccountLevel(t *testing.T) {
	cases := map[string]int{
		"100-000-000": 1,
		"110-000-000": 2,
		"111-000-000": 3,
		"110-100-000": 3,
		"110-110-000": 4,
		"111-111-111": 9,
		"000-000-000": 1,
	}
	for code, level := range cases {
		assert.Equal(t, level, AccountLevel(code), "code %s", code)
	}
}

func TestParentCode(t *testing.T) {
	cases := map[string]string{
		"111-000-000": "110-000-000",
		"110-000-000": "100-000-000",
		"100-000-000": "",
		"110-100-000": "110-000-000",
		"110-110-000": "110-100-000",
		"110-100-100": "110-100-000",
	}
	for code, parent := range cases {
		assert.Equal(t, parent, ParentCode(code), "code %s", code)
	}
}

func TestTypeFromCode(t *testing.T) {
	cases := map[string]AccountType{
		"100-000-000": AccountTypeAsset,
		"210-000-000": AccountTypeLiability,
		"300-000-000": AccountTypeEquity,
		"410-000-000": AccountTypeRevenue,
		"510-000-000": AccountTypeCost,
		"610-000-000": AccountTypeExpense,
	}
	for code, accountType := range cases {
		parsed, ok := TypeFromCode(code)
		require.True(t, ok, "code %s", code)
		assert.Equal(t, accountType, parsed, "code %s", code)
	}

	_, ok := TypeFromCode("700-000-000")
	assert.False(t, ok)
	_, ok = TypeFromCode("abc-def-ghi")
	assert.False(t, ok)
}

func TestCodeSegments(t *testing.T) {
	_, ok := codeSegments("110-000-000")
	assert.True(t, ok)

	invalid := []string{"", "110", "110-000", "1100-000-000", "11a-000-000", "110_000_000", "110-000-000-000"}
	for _, code := range invalid {
		_, ok := codeSegments(code)
		assert.False(t, ok, "code %q", code)
	}
}

func TestGetAccountsFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	root := seedAccount(t, db, "100-000-000", "Assets", AccountTypeAsset, nil, false)
	seedAccount(t, db, "110-000-000", "Cash", AccountTypeAsset, &root.ID, true)
	inactive := seedAccount(t, db, "120-000-000", "Old Bank", AccountTypeAsset, &root.ID, true)
	require.NoError(t, db.Model(&Account{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)
	seedAccount(t, db, "410-000-000", "Sales", AccountTypeRevenue, nil, true)

	accounts, err := GetAccounts(db, AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, accounts, 3)

	accounts, err = GetAccounts(db, AccountFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, accounts, 4)

	accounts, err = GetAccounts(db, AccountFilter{Types: []AccountType{AccountTypeRevenue}})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "410-000-000", accounts[0].Code)

	accounts, err = GetAccounts(db, AccountFilter{OnlyDetail: true})
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestGetAccountByIDNotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := GetAccountByID(db, 9999)
	require.Error(t, err)
	assert.Equal(t, CodeAccountNotFound, ErrorCodeOf(err))
}
