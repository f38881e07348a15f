package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory tracks on-hand and reserved counts per variant.
type Inventory struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID         uuid.UUID `gorm:"column:variant_id;type:uuid;not null;uniqueIndex"`
	Quantity          int       `gorm:"column:quantity;not null;default:0"`
	Reserved          int       `gorm:"column:reserved;not null;default:0"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:5"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Available is the sellable count after reservations.
func (i Inventory) Available() int {
	return i.Quantity - i.Reserved
}
