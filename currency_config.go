package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const currenciesFileName = "currencies.yaml"

// CurrenciesConfig represents the root configuration structure for the
// currencies the chart of accounts may reference.
type CurrenciesConfig struct {
	Currencies []CurrencyConfig `yaml:"currencies"`
}

// CurrencyConfig represents configuration for a single currency.
type CurrencyConfig struct {
	// Code is the ISO 4217 currency code (e.g., "USD")
	// This field is required for enabled currencies
	Code string `yaml:"code"`
	// Name is the human-readable name (e.g., "US Dollar")
	// If empty, it will inherit the Code value during validation
	Name string `yaml:"name"`
	// Symbol is the display symbol (e.g., "$")
	Symbol string `yaml:"symbol"`
	// Disabled determines if this currency should be seeded
	Disabled bool `yaml:"disabled"`
}

// LoadCurrencies loads and validates the currency configuration from
// <configDirPath>/currencies.yaml. A missing file yields an empty
// configuration; accounts then simply carry no currency reference.
func LoadCurrencies(configDirPath string) (CurrenciesConfig, error) {
	currenciesPath := filepath.Join(configDirPath, currenciesFileName)
	f, err := os.Open(currenciesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return CurrenciesConfig{}, nil
		}
		return CurrenciesConfig{}, err
	}
	defer f.Close()

	var cfg CurrenciesConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return CurrenciesConfig{}, err
	}

	if err := cfg.verifyVariables(); err != nil {
		return CurrenciesConfig{}, err
	}

	return cfg, nil
}

func (c *CurrenciesConfig) verifyVariables() error {
	seen := make(map[string]bool, len(c.Currencies))
	for i := range c.Currencies {
		currency := &c.Currencies[i]
		if currency.Disabled {
			continue
		}

		currency.Code = strings.ToUpper(strings.TrimSpace(currency.Code))
		if currency.Code == "" {
			return fmt.Errorf("currency at index %d has no code", i)
		}
		if len(currency.Code) != 3 {
			return fmt.Errorf("currency code %q is not a 3-letter ISO code", currency.Code)
		}
		if seen[currency.Code] {
			return fmt.Errorf("duplicate currency code %q", currency.Code)
		}
		seen[currency.Code] = true

		if currency.Name == "" {
			currency.Name = currency.Code
		}
	}
	return nil
}

// SeedCurrencies upserts the configured currencies into the database so
// account rows can reference them by ID. Disabled entries are skipped;
// existing rows are updated in place, never deleted.
func SeedCurrencies(db *gorm.DB, cfg CurrenciesConfig) error {
	for _, currency := range cfg.Currencies {
		if currency.Disabled {
			continue
		}
		row := Currency{
			Code:   currency.Code,
			Name:   currency.Name,
			Symbol: currency.Symbol,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "symbol"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to seed currency %s: %w", currency.Code, err)
		}
	}
	return nil
}
