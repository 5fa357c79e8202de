package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/log"
)

// Metrics contains all Prometheus metrics for the application
type Metrics struct {
	// WebSocket connection metrics
	ConnectedClients prometheus.Gauge
	ConnectionsTotal prometheus.Counter
	MessageReceived  prometheus.Counter
	MessageSent      prometheus.Counter

	// RPC method metrics
	RPCRequests *prometheus.CounterVec

	// Report metrics
	ReportGenerations *prometheus.CounterVec
	ForecastRuns      prometheus.Counter

	// Chart of accounts metrics
	AccountsByType *prometheus.GaugeVec
	ImportRows     *prometheus.CounterVec

	// Ledger metrics
	JournalEntries *prometheus.GaugeVec
}

// NewMetrics initializes and registers Prometheus metrics
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers Prometheus metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	metrics := &Metrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "corebooks_connected_clients",
			Help: "The current number of connected clients",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebooks_connections_total",
			Help: "The total number of WebSocket connections made since server start",
		}),
		MessageReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebooks_ws_messages_received_total",
			Help: "The total number of WebSocket messages received",
		}),
		MessageSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebooks_ws_messages_sent_total",
			Help: "The total number of WebSocket messages sent",
		}),
		RPCRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebooks_rpc_requests_total",
				Help: "The total number of RPC requests by method",
			},
			[]string{"method", "status"},
		),
		ReportGenerations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebooks_report_generations_total",
				Help: "The total number of generated reports by type",
			},
			[]string{"report_type"},
		),
		ForecastRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "corebooks_forecast_runs_total",
			Help: "The total number of forecast runs",
		}),
		AccountsByType: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corebooks_accounts",
				Help: "The number of active accounts by type",
			},
			[]string{"account_type"},
		),
		ImportRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebooks_import_rows_total",
				Help: "The total number of imported chart rows by outcome",
			},
			[]string{"outcome"},
		),
		JournalEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corebooks_journal_entries",
				Help: "The number of journal entries by status",
			},
			[]string{"status"},
		),
	}

	return metrics
}

// RecordMetricsPeriodically refreshes the database-backed gauges on a fixed
// interval. Runs until the process exits.
func (m *Metrics) RecordMetricsPeriodically(db *gorm.DB, lg log.Logger) {
	lg = lg.WithName("metrics")
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.UpdateAccountMetrics(db, lg)
		m.UpdateJournalMetrics(db, lg)
	}
}

// UpdateAccountMetrics updates the per-type account gauges from the database
func (m *Metrics) UpdateAccountMetrics(db *gorm.DB, lg log.Logger) {
	type TypeCount struct {
		Type  AccountType `gorm:"column:account_type"`
		Count int64       `gorm:"column:count"`
	}

	var results []TypeCount
	err := db.Model(&Account{}).
		Select("account_type, COUNT(*) as count").
		Where("is_active = ?", true).
		Group("account_type").
		Scan(&results).Error
	if err != nil {
		lg.Warn("failed to refresh account metrics", "error", err)
		return
	}

	// Stage values to avoid partial update issues
	tmp := make(map[string]float64)
	for _, row := range results {
		tmp[string(row.Type)] = float64(row.Count)
	}

	m.AccountsByType.Reset()
	for accountType, count := range tmp {
		m.AccountsByType.WithLabelValues(accountType).Set(count)
	}
}

// UpdateJournalMetrics updates the per-status journal entry gauges
func (m *Metrics) UpdateJournalMetrics(db *gorm.DB, lg log.Logger) {
	type StatusCount struct {
		Status EntryStatus `gorm:"column:status"`
		Count  int64       `gorm:"column:count"`
	}

	var results []StatusCount
	err := db.Model(&JournalEntry{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		lg.Warn("failed to refresh journal metrics", "error", err)
		return
	}

	tmp := make(map[string]float64)
	for _, row := range results {
		tmp[string(row.Status)] = float64(row.Count)
	}

	m.JournalEntries.Reset()
	for status, count := range tmp {
		m.JournalEntries.WithLabelValues(status).Set(count)
	}
}
