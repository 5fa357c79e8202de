package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/log"
)

// cliImportActor is recorded in the audit trail for command-line imports.
const cliImportActor = "cli-import"

// ChartImporter reads a chart-of-accounts CSV and loads it through the
// account service, so command-line imports run through exactly the same
// validation and synthesis as RPC ones.
type ChartImporter struct {
	service *AccountService
}

// NewChartImporter creates a new chart importer
func NewChartImporter(db *gorm.DB, lg log.Logger) *ChartImporter {
	audit := NewAuditStore(db, lg)
	return &ChartImporter{
		service: NewAccountService(db, audit, lg),
	}
}

// ReadRows parses CSV content into import rows. The expected header is
// code,name,type,parent,currency,subtype,is_detail; columns after type are
// optional.
func (i *ChartImporter) ReadRows(reader io.Reader) ([]ImportRow, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	header := records[0]
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	for _, required := range []string{"code", "name", "type"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	rows := make([]ImportRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := ImportRow{
			Code:     field(record, "code"),
			Name:     field(record, "name"),
			Type:     field(record, "type"),
			Parent:   field(record, "parent"),
			Currency: field(record, "currency"),
			Subtype:  field(record, "subtype"),
		}
		if v := field(record, "is_detail"); v != "" {
			isDetail := strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
			row.IsDetail = &isDetail
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ImportFile loads a CSV file into the chart of accounts.
func (i *ChartImporter) ImportFile(path string, updateExisting bool) (ImportSummary, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer file.Close()

	rows, err := i.ReadRows(file)
	if err != nil {
		return ImportSummary{}, err
	}

	return i.service.Import(cliImportActor, rows, updateExisting)
}

func runImportAccountsCli(lg log.Logger) {
	lg = lg.WithName("import-accounts")
	if len(os.Args) < 3 || len(os.Args) > 4 {
		lg.Fatal("Usage: corebooks import-accounts <file.csv> [--update-existing]")
	}

	path := os.Args[2]
	updateExisting := len(os.Args) == 4 && os.Args[3] == "--update-existing"

	config, err := LoadConfig(lg)
	if err != nil {
		lg.Fatal("Failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		lg.Fatal("Failed to setup database", "error", err)
	}

	if err := SeedCurrencies(db, config.currencies); err != nil {
		lg.Fatal("Failed to seed currencies", "error", err)
	}

	importer := NewChartImporter(db, lg)
	summary, err := importer.ImportFile(path, updateExisting)
	if err != nil {
		lg.Fatal("Import failed", "file", path, "error", err)
	}

	lg.Info("import finished",
		"file", path,
		"created", summary.Created,
		"updated", summary.Updated,
		"failed", summary.Failed,
		"groupsCreated", summary.GroupsCreated,
	)
	for _, result := range summary.Results {
		if result.Outcome == RowFailed {
			lg.Warn("row failed", "index", result.Index, "code", result.Code, "error", result.Error)
		}
	}
}
