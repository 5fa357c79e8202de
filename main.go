package main

import (
	"context"
	"embed"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corebooks/corebooks/pkg/log"
)

//go:embed config/migrations/*/*.sql
var embedMigrations embed.FS

func main() {
	var logConf log.Config
	if err := cleanenv.ReadEnv(&logConf); err != nil {
		panic(err)
	}
	lg := log.NewZapLogger(logConf).WithName("root")

	if len(os.Args) > 1 {
		// If a CLI command is provided, run it and exit
		runCli(lg, os.Args[1])
		return
	}

	config, err := LoadConfig(lg)
	if err != nil {
		lg.Fatal("failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		lg.Fatal("Failed to setup database", "error", err)
	}

	if err := SeedCurrencies(db, config.currencies); err != nil {
		lg.Fatal("Failed to seed currencies", "error", err)
	}

	// Initialize Prometheus metrics
	metrics := NewMetrics()

	auditStore := NewAuditStore(db, lg)
	accountService := NewAccountService(db, auditStore, lg)
	reportService := NewReportService(db, metrics, lg)
	forecastService := NewForecastService(db, metrics, lg)

	rpcNode := NewRPCNode(lg)
	NewRPCRouter(rpcNode, config, accountService, reportService, forecastService, db, metrics, lg)

	rpcListenAddr := config.listenAddr
	rpcListenEndpoint := "/ws"
	rpcMux := http.NewServeMux()
	rpcMux.HandleFunc(rpcListenEndpoint, rpcNode.HandleConnection)

	rpcServer := &http.Server{
		Addr:    rpcListenAddr,
		Handler: rpcMux,
	}

	metricsListenAddr := config.metricsAddr
	metricsEndpoint := "/metrics"
	// Set up a separate mux for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.Handler())

	// Start metrics server on a separate port
	metricsServer := &http.Server{
		Addr:    metricsListenAddr,
		Handler: metricsMux,
	}

	// Start metrics monitoring
	go metrics.RecordMetricsPeriodically(db, lg)

	go func() {
		lg.Info("Prometheus metrics available", "listenAddr", metricsListenAddr, "endpoint", metricsEndpoint)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("metrics server failure", "error", err)
		}
	}()

	// Start the main HTTP server.
	go func() {
		lg.Info("RPC server available", "listenAddr", rpcListenAddr, "endpoint", rpcListenEndpoint)
		if err := rpcServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("RPC server failure", "error", err)
		}
	}()

	// Wait for shutdown signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	lg.Info("shutting down")

	// Shutdown metrics server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		lg.Error("failed to shut down metrics server", "error", err)
	}

	// Shutdown RPC server
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rpcServer.Shutdown(ctx); err != nil {
		lg.Error("failed to shut down RPC server", "error", err)
	}

	lg.Info("shutdown complete")
}

func runCli(lg log.Logger, name string) {
	switch name {
	case "import-accounts":
		runImportAccountsCli(lg)
	case "export-trial-balance":
		runExportTrialBalanceCli(lg)
	default:
		lg.Fatal("Unknown CLI command", "name", name)
	}
}
