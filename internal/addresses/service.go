package addresses

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/db"
	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
)

// CreateAddressRequest is the payload for saving a new shipping address.
type CreateAddressRequest struct {
	FullName  string  `json:"full_name" validate:"required,max=120"`
	Street    string  `json:"street" validate:"required,max=200"`
	City      string  `json:"city" validate:"required,max=100"`
	State     string  `json:"state" validate:"required,max=100"`
	ZipCode   string  `json:"zip_code" validate:"required,max=20"`
	Country   string  `json:"country" validate:"required,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsDefault bool    `json:"is_default"`
}

// Service exposes address book management for authenticated users.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the address service.
type ServiceParams struct {
	DB   *db.Client
	Repo *Repository
}

type service struct {
	txRunner txRunner
	repo     *Repository
}

// NewService builds an address service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repo required")
	}
	return &service{txRunner: params.DB, repo: params.Repo}, nil
}

// List returns every address the user has saved.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return rows, nil
}

// Create saves a new address, keeping at most one default per user.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	address := &models.Address{
		ID:        uuid.New(),
		UserID:    userID,
		FullName:  strings.TrimSpace(req.FullName),
		Street:    strings.TrimSpace(req.Street),
		City:      strings.TrimSpace(req.City),
		State:     strings.TrimSpace(req.State),
		ZipCode:   strings.TrimSpace(req.ZipCode),
		Country:   strings.TrimSpace(req.Country),
		Phone:     req.Phone,
		IsDefault: req.IsDefault,
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		if req.IsDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear default address")
			}
		}
		if err := repo.Create(ctx, address); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// Delete removes the user's address.
func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	deleted, err := s.repo.Delete(ctx, addressID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}
