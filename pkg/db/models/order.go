package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoeparadise/storefront-backend/pkg/enums"
)

// Order is a placed checkout with totals frozen at creation time.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber       string              `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;default:'PENDING'"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;not null;default:'PENDING'"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null"`
	Shipping          decimal.Decimal     `gorm:"column:shipping;type:numeric(10,2);not null"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id"`
	ShippingAddressID uuid.UUID           `gorm:"column:shipping_address_id;type:uuid;not null"`
	User              *User               `gorm:"foreignKey:UserID"`
	ShippingAddress   *Address            `gorm:"foreignKey:ShippingAddressID"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
