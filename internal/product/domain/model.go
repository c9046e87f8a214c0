package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	LocaleEN = "en"
	LocaleVI = "vi"
)

const (
	StockInStock    = "in_stock"
	StockOutOfStock = "out_of_stock"
	StockLowStock   = "low_stock"
)

const DefaultStyle = "default"

// Prices go over the wire as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	ID           int64                       `gorm:"primaryKey"`
	Slug         string                      `gorm:"type:text;not null;uniqueIndex"`
	Price        decimal.Decimal             `gorm:"type:numeric;not null"`
	Quantity     int                         `gorm:"not null"`
	Category     string                      `gorm:"type:text"`
	Images       datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Style        string                      `gorm:"type:text;not null"`
	IsActive     bool                        `gorm:"column:is_active;not null"`
	CreatedAt    time.Time                   `gorm:"not null"`
	Translations []ProductTranslation        `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string { return "products" }

// ProductTranslation holds localized text, one row per (product, locale).
type ProductTranslation struct {
	ProductID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Locale      string `gorm:"primaryKey;type:text"`
	Title       string `gorm:"type:text"`
	Description string `gorm:"type:text"`
}

func (ProductTranslation) TableName() string { return "product_translations" }

// NormalizeLocale maps anything other than a supported locale to English.
func NormalizeLocale(locale string) string {
	if locale == LocaleVI {
		return LocaleVI
	}
	return LocaleEN
}
