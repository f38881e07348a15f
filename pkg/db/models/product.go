package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoeparadise/storefront-backend/pkg/enums"
)

// Product represents the canonical catalog listing.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Description string          `gorm:"column:description;not null"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	BrandID     uuid.UUID       `gorm:"column:brand_id;type:uuid;not null;index"`
	Gender      enums.Gender    `gorm:"column:gender;not null"`
	Material    *string         `gorm:"column:material"`
	Featured    bool            `gorm:"column:featured;not null;default:false"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	Brand       *Brand          `gorm:"foreignKey:BrandID"`
	Images      []ProductImage  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Variants    []Variant       `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
