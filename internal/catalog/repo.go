package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/db/models"
)

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) listQuery(ctx context.Context, params ListParams) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("products.is_active = ?", true)

	if params.CategorySlug != "" {
		query = query.
			Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", params.CategorySlug)
	}
	if params.BrandSlug != "" {
		query = query.
			Joins("JOIN brands ON brands.id = products.brand_id").
			Where("brands.slug = ?", params.BrandSlug)
	}
	if params.Gender != "" {
		query = query.Where("products.gender = ?", params.Gender)
	}
	if params.Material != "" {
		query = query.Where("products.material LIKE ?", "%"+params.Material+"%")
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", pattern, pattern)
	}
	if params.MinPrice != nil {
		query = query.Where("products.base_price >= ?", params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("products.base_price <= ?", params.MaxPrice)
	}

	return query
}

func orderClause(sort string) string {
	switch sort {
	case SortPriceAsc:
		return "products.base_price ASC"
	case SortPriceDesc:
		return "products.base_price DESC"
	case SortNameAsc:
		return "products.name ASC"
	case SortFeatured:
		return "products.featured DESC, products.created_at DESC"
	default:
		return "products.created_at DESC"
	}
}

// ListProducts returns the filtered page plus the unpaged total.
func (r *Repository) ListProducts(ctx context.Context, params ListParams) ([]models.Product, int64, error) {
	var total int64
	if err := r.listQuery(ctx, params).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := params.Page.Normalize()
	var rows []models.Product
	err := r.listQuery(ctx, params).
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order(orderClause(params.Sort)).
		Offset(params.Page.Offset()).
		Limit(page.Limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindBySlug loads an active product with its images, variants and stock.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Variants.Inventory").
		First(&row, "slug = ? AND is_active = ?", slug, true).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByID loads a product regardless of active state (admin surface).
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Variants.Inventory").
		First(&row, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListFeatured returns up to limit featured products.
func (r *Repository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("featured = ? AND is_active = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestReviews returns the newest reviews for a product.
func (r *Repository) LatestReviews(ctx context.Context, productID uuid.UUID, limit int) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBrands returns all brands ordered by name.
func (r *Repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var rows []models.Brand
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// CreateBrand inserts a brand.
func (r *Repository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

// CreateProduct inserts a product together with its images and variants.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// CreateInventory seeds the stock row for a variant.
func (r *Repository) CreateInventory(ctx context.Context, inventory *models.Inventory) error {
	return r.db.WithContext(ctx).Create(inventory).Error
}

// UpdateProduct persists the mutated product fields.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "description", "base_price", "category_id", "brand_id", "gender", "material", "featured", "is_active").
		Updates(product).
		Error
}

// DeleteProduct removes a product; child rows cascade.
func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
