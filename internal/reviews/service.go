package reviews

import (
	"context"
	"html"
	"strings"

	"github.com/google/uuid"

	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
)

const (
	maxTitleLength   = 120
	maxCommentLength = 2000
)

// CreateRequest is the payload for leaving a product review.
type CreateRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title   string `json:"title" validate:"required,max=120"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// Service exposes review operations.
type Service interface {
	Create(ctx context.Context, userID, productID uuid.UUID, req CreateRequest) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error)
}

// ServiceParams groups dependencies for the review service.
type ServiceParams struct {
	Repo *Repository
}

type service struct {
	repo *Repository
}

// NewService builds a review service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "review repo required")
	}
	return &service{repo: params.Repo}, nil
}

// Create stores a review after bounds checks, escaping the free-text fields
// so stored content is inert when rendered.
func (s *service) Create(ctx context.Context, userID, productID uuid.UUID, req CreateRequest) (*models.Review, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and product id are required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	title := strings.TrimSpace(req.Title)
	comment := strings.TrimSpace(req.Comment)
	if title == "" || comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and comment are required")
	}
	if len(title) > maxTitleLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is too long")
	}
	if len(comment) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment is too long")
	}

	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Title:     html.EscapeString(title),
		Comment:   html.EscapeString(comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return review, nil
}

// ListByProduct returns a product's reviews, newest first.
func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.repo.ListByProduct(ctx, productID)
}
