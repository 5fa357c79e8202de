package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartImporterReadRows(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	importer := NewChartImporter(db, testLogger())

	csvData := strings.Join([]string{
		"code,name,type,parent,currency,subtype,is_detail",
		"110-000-000,Current Assets,asset,,,group,false",
		"111-000-000,Cash,asset,110-000-000,USD,,true",
		"411-000-000,Sales,revenue,,,",
	}, "\n")

	rows, err := importer.ReadRows(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "110-000-000", rows[0].Code)
	require.NotNil(t, rows[0].IsDetail)
	assert.False(t, *rows[0].IsDetail)

	assert.Equal(t, "110-000-000", rows[1].Parent)
	assert.Equal(t, "USD", rows[1].Currency)
	require.NotNil(t, rows[1].IsDetail)
	assert.True(t, *rows[1].IsDetail)

	// Short records and omitted optional columns yield empty fields.
	assert.Nil(t, rows[2].IsDetail)
	assert.Empty(t, rows[2].Parent)
}

func TestChartImporterReadRowsRejectsMissingColumns(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	importer := NewChartImporter(db, testLogger())

	_, err := importer.ReadRows(strings.NewReader("code,name\n110-000-000,Cash\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type")

	_, err = importer.ReadRows(strings.NewReader("code,name,type\n"))
	require.Error(t, err)
}
