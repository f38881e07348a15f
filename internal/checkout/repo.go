package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/db/models"
)

// Repository resolves the catalog rows checkout needs.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a checkout repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindVariants loads the requested variants with product and stock.
func (r *Repository) FindVariants(ctx context.Context, ids []uuid.UUID) ([]models.Variant, error) {
	var rows []models.Variant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Inventory").
		Where("id IN ?", ids).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
