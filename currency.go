package main

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Currency is reference data attached to detail accounts. The core never
// converts between currencies; the id is carried as metadata only.
type Currency struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"column:code;not null;uniqueIndex"`
	Name      string `gorm:"column:name;not null"`
	Symbol    string `gorm:"column:symbol"`
	Decimals  uint8  `gorm:"column:decimals;not null;default:2"`
	CreatedAt time.Time
}

func (Currency) TableName() string {
	return "currencies"
}

// CurrencyExists reports whether a currency id is known.
func CurrencyExists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(&Currency{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetCurrencyByCode retrieves a currency by its ISO-style code.
func GetCurrencyByCode(db *gorm.DB, code string) (Currency, error) {
	var currency Currency
	err := db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&currency).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Currency{}, AppErrorf(CodeInvalidCurrency, "unknown currency: %s", code)
		}
		return Currency{}, err
	}
	return currency, nil
}
