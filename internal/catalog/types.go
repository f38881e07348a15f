package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	"github.com/shoeparadise/storefront-backend/pkg/pagination"
)

// Sort options accepted by the product list endpoint.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNewest    = "newest"
	SortFeatured  = "featured"
)

// ListParams carries the product list filters.
type ListParams struct {
	CategorySlug string
	BrandSlug    string
	Gender       string
	Material     string
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Sort         string
	Page         pagination.Params
}

// ProductPage is a filtered slice of the catalog plus paging metadata.
type ProductPage struct {
	Products   []models.Product
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ProductDetail bundles a product with its latest reviews.
type ProductDetail struct {
	Product models.Product  `json:"product"`
	Reviews []models.Review `json:"reviews"`
}

// CreateCategoryRequest is the admin payload for a new category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,max=100"`
}

// CreateBrandRequest is the admin payload for a new brand.
type CreateBrandRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"required,max=100"`
}

// ImageInput describes one product image in admin payloads.
type ImageInput struct {
	URL      string  `json:"url" validate:"required,url"`
	Alt      *string `json:"alt,omitempty" validate:"omitempty,max=200"`
	Position int     `json:"position" validate:"gte=0"`
}

// VariantInput describes one sellable variant in admin payloads.
type VariantInput struct {
	Color             string          `json:"color" validate:"required,max=50"`
	Size              string          `json:"size" validate:"required,max=20"`
	SKU               string          `json:"sku" validate:"required,max=60"`
	PriceAdjustment   decimal.Decimal `json:"price_adjustment"`
	InitialQuantity   int             `json:"initial_quantity" validate:"gte=0"`
	LowStockThreshold int             `json:"low_stock_threshold" validate:"gte=0"`
}

// CreateProductRequest is the admin payload for a new product.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Slug        string          `json:"slug" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"required"`
	CategoryID  uuid.UUID       `json:"category_id" validate:"required"`
	BrandID     uuid.UUID       `json:"brand_id" validate:"required"`
	Gender      enums.Gender    `json:"gender" validate:"required"`
	Material    *string         `json:"material,omitempty" validate:"omitempty,max=100"`
	Featured    bool            `json:"featured"`
	IsActive    *bool           `json:"is_active,omitempty"`
	Images      []ImageInput    `json:"images" validate:"dive"`
	Variants    []VariantInput  `json:"variants" validate:"min=1,dive"`
}

// UpdateProductRequest carries optional field updates for an existing product.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string          `json:"description,omitempty"`
	BasePrice   *decimal.Decimal `json:"base_price,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	BrandID     *uuid.UUID       `json:"brand_id,omitempty"`
	Gender      *enums.Gender    `json:"gender,omitempty"`
	Material    *string          `json:"material,omitempty" validate:"omitempty,max=100"`
	Featured    *bool            `json:"featured,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}
