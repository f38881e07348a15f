package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/db"
	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
)

// AddItemRequest is the payload for placing a variant in the cart.
type AddItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0,lte=99"`
}

// UpdateItemRequest sets a new quantity; zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

// Service exposes the per-user cart operations.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*models.Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	DB   *db.Client
	Repo *Repository
}

type service struct {
	txRunner txRunner
	repo     *Repository
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repo required")
	}
	return &service{txRunner: params.DB, repo: params.Repo}, nil
}

// GetCart returns the user's cart, creating an empty one on first touch.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.getOrCreate(ctx, userID)
}

// AddItem places a variant in the cart, merging quantity on duplicates.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if req.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	variant, err := s.repo.FindVariant(ctx, req.VariantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
	}
	if variant.Product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "variant has no product")
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		existing, err := repo.FindItem(ctx, cart.ID, variant.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		requested := req.Quantity
		if existing != nil {
			requested += existing.Quantity
		}
		if err := checkStock(variant, requested); err != nil {
			return err
		}

		if existing != nil {
			return repo.UpdateItemQuantity(ctx, existing.ID, requested)
		}

		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    cart.ID,
			VariantID: variant.ID,
			Quantity:  req.Quantity,
			Price:     variant.Product.BasePrice.Add(variant.PriceAdjustment),
		}
		return repo.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByUser(ctx, userID)
}

// UpdateItem sets a line's quantity; zero removes it.
func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*models.Cart, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	if req.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if item.CartID != cart.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	if req.Quantity == 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
		}
		return s.repo.FindByUser(ctx, userID)
	}

	variant, err := s.repo.FindVariant(ctx, item.VariantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variant")
	}
	if err := checkStock(variant, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, req.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.repo.FindByUser(ctx, userID)
}

// Clear removes every line from the user's cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) getOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	fresh := &models.Cart{ID: uuid.New(), UserID: userID}
	if err := s.repo.Create(ctx, fresh); err != nil {
		// another request may have created it concurrently
		if db.IsUniqueViolation(err) {
			return s.repo.FindByUser(ctx, userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	fresh.Items = []models.CartItem{}
	return fresh, nil
}

func checkStock(variant *models.Variant, requested int) error {
	available := 0
	if variant.Inventory != nil {
		available = variant.Inventory.Available()
	}
	if requested > available {
		productName := ""
		if variant.Product != nil {
			productName = variant.Product.Name
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %s", productName)).
			WithDetails(map[string]any{
				"variant_id": variant.ID,
				"requested":  requested,
				"available":  available,
			})
	}
	return nil
}
