package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant is a sellable color/size combination of a product.
type Variant struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Color           string          `gorm:"column:color;not null"`
	Size            string          `gorm:"column:size;not null"`
	SKU             string          `gorm:"column:sku;type:text;not null;uniqueIndex"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(10,2);not null;default:0"`
	Product         *Product        `gorm:"foreignKey:ProductID"`
	Inventory       *Inventory      `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
