package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/log"
)

// TrialBalanceExportOptions contains options for exporting a trial balance
type TrialBalanceExportOptions struct {
	StartDate string
	EndDate   string
	OutputDir string
}

// TrialBalanceExporter handles exporting trial balance reports to CSV
type TrialBalanceExporter struct {
	reports *ReportService
}

// NewTrialBalanceExporter creates a new trial balance exporter
func NewTrialBalanceExporter(db *gorm.DB, lg log.Logger) *TrialBalanceExporter {
	return &TrialBalanceExporter{
		reports: NewReportService(db, nil, lg),
	}
}

// ExportToCSV exports a trial balance to CSV format
func (e *TrialBalanceExporter) ExportToCSV(writer io.Writer, options TrialBalanceExportOptions) error {
	report, err := e.reports.TrialBalance(TrialBalanceParams{
		StartDate: options.StartDate,
		EndDate:   options.EndDate,
	})
	if err != nil {
		return fmt.Errorf("failed to generate trial balance: %w", err)
	}

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	// Write header
	header := []string{"Code", "Name", "Type", "Level", "Debit", "Credit", "Balance", "Side"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header to CSV: %w", err)
	}

	// Write entries
	for _, entry := range report.Entries {
		row := []string{
			entry.Code,
			entry.Name,
			string(entry.Type),
			fmt.Sprintf("%d", entry.Level),
			entry.Debit.String(),
			entry.Credit.String(),
			entry.Balance.String(),
			string(entry.Side),
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write row to CSV: %w", err)
		}
	}

	// Write totals
	totals := []string{
		"TOTAL", "", "", "",
		report.TotalDebit.String(),
		report.TotalCredit.String(),
		report.Difference.String(),
		fmt.Sprintf("balanced=%t", report.IsBalanced),
	}
	if err := csvWriter.Write(totals); err != nil {
		return fmt.Errorf("failed to write totals to CSV: %w", err)
	}
	return nil
}

// ExportToFile exports a trial balance to a CSV file
func (e *TrialBalanceExporter) ExportToFile(options TrialBalanceExportOptions) (string, error) {
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", options.OutputDir, err)
	}

	fileName := filepath.Join(options.OutputDir, fmt.Sprintf("trial_balance_%s_%s.csv", options.StartDate, options.EndDate))
	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file %s: %w", fileName, err)
	}
	defer file.Close()

	if err := e.ExportToCSV(file, options); err != nil {
		return "", fmt.Errorf("failed to export to CSV: %w", err)
	}

	return fileName, nil
}

func runExportTrialBalanceCli(lg log.Logger) {
	lg = lg.WithName("export-trial-balance")
	if len(os.Args) < 4 || len(os.Args) > 5 {
		lg.Fatal("Usage: corebooks export-trial-balance <start:YYYY-MM-DD> <end:YYYY-MM-DD> [outputDir]")
	}

	options := TrialBalanceExportOptions{
		StartDate: os.Args[2],
		EndDate:   os.Args[3],
		OutputDir: ".",
	}
	if len(os.Args) == 5 {
		options.OutputDir = os.Args[4]
	}

	config, err := LoadConfig(lg)
	if err != nil {
		lg.Fatal("Failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		lg.Fatal("Failed to setup database", "error", err)
	}

	exporter := NewTrialBalanceExporter(db, lg)
	fileName, err := exporter.ExportToFile(options)
	if err != nil {
		lg.Fatal("Export failed", "error", err)
	}

	lg.Info("trial balance exported", "file", fileName)
}
