package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots a purchased variant so later catalog edits cannot
// rewrite order history.
type OrderItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID    uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ProductName  string          `gorm:"column:product_name;not null"`
	VariantColor string          `gorm:"column:variant_color;not null"`
	VariantSize  string          `gorm:"column:variant_size;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
