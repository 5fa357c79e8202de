package main

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/corebooks/corebooks/pkg/log"
)

type Mode string

const (
	ModeProduction Mode = "production"
	ModeTest       Mode = "test"
)

const (
	configDirPathEnv     = "COREBOOKS_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// Config represents the overall application configuration
type Config struct {
	mode        Mode
	dbConf      DatabaseConfig
	currencies  CurrenciesConfig
	listenAddr  string
	metricsAddr string
}

type serverEnvConfig struct {
	ListenAddr  string `env:"COREBOOKS_LISTEN_ADDR" env-default:":8000"`
	MetricsAddr string `env:"COREBOOKS_METRICS_ADDR" env-default:":4242"`
}

// LoadConfig builds configuration from environment variables
func LoadConfig(lg log.Logger) (*Config, error) {
	lg = lg.WithName("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	// Load .env files
	configDotEnvPath := filepath.Join(configDirPath, ".env")
	lg.Info("loading .env file", "path", configDotEnvPath)
	if err := godotenv.Load(configDotEnvPath); err != nil {
		lg.Warn(".env file not found")
	}

	mode := Mode(os.Getenv("COREBOOKS_MODE"))
	if mode == "" {
		mode = ModeProduction
	} else if mode != ModeProduction && mode != ModeTest {
		lg.Fatal("invalid COREBOOKS_MODE value", "value", mode)
	}
	lg.Info("set mode", "value", mode)

	// Get database URL from environment variables
	var dbConf DatabaseConfig
	dbURL := os.Getenv("COREBOOKS_DATABASE_URL")

	// If DATABASE_URL is not empty, parse the connection string
	// Otherwise, read the envs in usual way
	if dbURL != "" {
		var err error
		dbConf, err = ParseConnectionString(dbURL)
		if err != nil {
			lg.Error("failed to parse connection string", "err", err)
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(&dbConf); err != nil {
			lg.Error("failed to read env", "err", err)
			return nil, err
		}
	}

	var serverConf serverEnvConfig
	if err := cleanenv.ReadEnv(&serverConf); err != nil {
		lg.Error("failed to read env", "err", err)
		return nil, err
	}

	currencies, err := LoadCurrencies(configDirPath)
	if err != nil {
		lg.Fatal("failed to load currencies", "error", err)
	}

	config := Config{
		mode:        mode,
		dbConf:      dbConf,
		currencies:  currencies,
		listenAddr:  serverConf.ListenAddr,
		metricsAddr: serverConf.MetricsAddr,
	}

	return &config, nil
}
