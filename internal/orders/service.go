package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
	"github.com/shoeparadise/storefront-backend/pkg/pagination"
)

// UpdateStatusRequest is the admin payload for moving an order forward.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderPage is a page of orders with paging metadata.
type AdminOrderPage struct {
	Orders     []models.Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// Service exposes order history plus the admin surface.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	AdminList(ctx context.Context, page pagination.Params) (*AdminOrderPage, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*models.Order, error)
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	return &service{repo: params.Repo}, nil
}

// ListForUser returns the user's order history newest-first.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return rows, nil
}

// GetForUser returns one order the user owns.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	order, err := s.repo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

// AdminList returns every order with buyer context.
func (s *service) AdminList(ctx context.Context, page pagination.Params) (*AdminOrderPage, error) {
	normalized := page.Normalize()
	rows, total, err := s.repo.ListAll(ctx, page.Offset(), normalized.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list all orders")
	}
	return &AdminOrderPage{
		Orders:     rows,
		Total:      total,
		Page:       normalized.Page,
		Limit:      normalized.Limit,
		TotalPages: pagination.TotalPages(total, normalized.Limit),
	}, nil
}

// AdminUpdateStatus moves an order to the requested status.
func (s *service) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, req UpdateStatusRequest) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	status, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, status.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.repo.FindByID(ctx, orderID)
}
