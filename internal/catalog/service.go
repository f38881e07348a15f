package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/db"
	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
	"github.com/shoeparadise/storefront-backend/pkg/pagination"
)

const (
	featuredLimit      = 8
	detailReviewsLimit = 10
)

// Service exposes the storefront catalog plus its admin surface.
type Service interface {
	List(ctx context.Context, params ListParams) (*ProductPage, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDetail, error)
	Featured(ctx context.Context) ([]models.Product, error)

	ListCategories(ctx context.Context) ([]models.Category, error)
	ListBrands(ctx context.Context) ([]models.Brand, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error)
	CreateBrand(ctx context.Context, req CreateBrandRequest) (*models.Brand, error)

	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	DB   *db.Client
	Repo *Repository
}

type service struct {
	txRunner txRunner
	repo     *Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repo required")
	}
	return &service{txRunner: params.DB, repo: params.Repo}, nil
}

// List returns the filtered, sorted product page.
func (s *service) List(ctx context.Context, params ListParams) (*ProductPage, error) {
	if params.Gender != "" {
		parsed, err := enums.ParseGender(params.Gender)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender filter")
		}
		params.Gender = parsed.String()
	}

	rows, total, err := s.repo.ListProducts(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	page := params.Page.Normalize()
	return &ProductPage{
		Products:   rows,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

// GetBySlug returns the product detail with stock and its latest reviews.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}

	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	reviews, err := s.repo.LatestReviews(ctx, product.ID, detailReviewsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reviews")
	}

	return &ProductDetail{Product: *product, Reviews: reviews}, nil
}

// Featured returns the curated front-page selection.
func (s *service) Featured(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.ListFeatured(ctx, featuredLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list featured products")
	}
	return rows, nil
}

// ListCategories returns every category.
func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	return rows, nil
}

// ListBrands returns every brand.
func (s *service) ListBrands(ctx context.Context) ([]models.Brand, error) {
	rows, err := s.repo.ListBrands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list brands")
	}
	return rows, nil
}

// CreateCategory inserts a category; duplicate slugs conflict.
func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	category := &models.Category{
		ID:   uuid.New(),
		Name: strings.TrimSpace(req.Name),
		Slug: normalizeSlug(req.Slug),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return category, nil
}

// CreateBrand inserts a brand; duplicate slugs conflict.
func (s *service) CreateBrand(ctx context.Context, req CreateBrandRequest) (*models.Brand, error) {
	brand := &models.Brand{
		ID:   uuid.New(),
		Name: strings.TrimSpace(req.Name),
		Slug: normalizeSlug(req.Slug),
	}
	if err := s.repo.CreateBrand(ctx, brand); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "brand slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create brand")
	}
	return brand, nil
}

// CreateProduct inserts the product, its images, variants and stock rows in one transaction.
func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if !req.Gender.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
	}
	if len(req.Variants) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Slug:        normalizeSlug(req.Slug),
		Description: req.Description,
		BasePrice:   req.BasePrice,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		Gender:      req.Gender,
		Material:    req.Material,
		Featured:    req.Featured,
		IsActive:    isActive,
	}
	for _, image := range req.Images {
		product.Images = append(product.Images, models.ProductImage{
			ID:        uuid.New(),
			ProductID: product.ID,
			URL:       image.URL,
			Alt:       image.Alt,
			Position:  image.Position,
		})
	}

	variantInputs := make(map[uuid.UUID]VariantInput, len(req.Variants))
	for _, input := range req.Variants {
		variant := models.Variant{
			ID:              uuid.New(),
			ProductID:       product.ID,
			Color:           input.Color,
			Size:            input.Size,
			SKU:             strings.TrimSpace(input.SKU),
			PriceAdjustment: input.PriceAdjustment,
		}
		product.Variants = append(product.Variants, variant)
		variantInputs[variant.ID] = input
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if err := repo.CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "product slug or variant sku already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
		}
		for _, variant := range product.Variants {
			input := variantInputs[variant.ID]
			inventory := &models.Inventory{
				ID:                uuid.New(),
				VariantID:         variant.ID,
				Quantity:          input.InitialQuantity,
				LowStockThreshold: input.LowStockThreshold,
			}
			if inventory.LowStockThreshold == 0 {
				inventory.LowStockThreshold = 5
			}
			if err := repo.CreateInventory(ctx, inventory); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seed inventory")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, product.ID)
}

// UpdateProduct applies the provided field updates.
func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.BasePrice != nil {
		product.BasePrice = *req.BasePrice
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.BrandID != nil {
		product.BrandID = *req.BrandID
	}
	if req.Gender != nil {
		if !req.Gender.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gender")
		}
		product.Gender = *req.Gender
	}
	if req.Material != nil {
		product.Material = req.Material
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteProduct removes the product and cascading children.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	deleted, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
