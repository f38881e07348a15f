package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoeparadise/storefront-backend/pkg/enums"
)

// Coupon is a promotional code. Codes are accepted at checkout but discounts
// are not yet applied to totals.
type Coupon struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string           `gorm:"column:code;type:text;not null;uniqueIndex"`
	Type        enums.CouponType `gorm:"column:type;not null"`
	Value       decimal.Decimal  `gorm:"column:value;type:numeric(10,2);not null"`
	MinPurchase *decimal.Decimal `gorm:"column:min_purchase;type:numeric(10,2)"`
	MaxDiscount *decimal.Decimal `gorm:"column:max_discount;type:numeric(10,2)"`
	UsageLimit  *int             `gorm:"column:usage_limit"`
	UsageCount  int              `gorm:"column:usage_count;not null;default:0"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	StartDate   *time.Time       `gorm:"column:start_date"`
	EndDate     *time.Time       `gorm:"column:end_date"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
