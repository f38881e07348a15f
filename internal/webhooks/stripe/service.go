package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/internal/orders"
	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
	"github.com/shoeparadise/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the webhook service.
type ServiceParams struct {
	TransactionRunner txRunner
	OrderRepo         *orders.Repository
	Logger            *logger.Logger
}

// Service applies Stripe payment events to orders.
type Service struct {
	txRunner  txRunner
	orderRepo *orders.Repository
	logger    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		txRunner:  params.TransactionRunner,
		orderRepo: params.OrderRepo,
		logger:    params.Logger,
	}, nil
}

// HandleEvent routes a verified Stripe event. Unhandled event types are
// acknowledged so Stripe stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.confirmPayment(ctx, &intent)
	default:
		return nil
	}
}

func (s *Service) confirmPayment(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}

	// The order is resolved through the metadata attached at checkout, not the
	// persisted intent id: an order whose intent id never got written (the
	// recoverable pending state) must still be confirmable.
	orderID, err := uuid.Parse(intent.Metadata["order_id"])
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment intent metadata missing order id")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := orders.NewRepository(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found for payment intent")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		if order.PaymentStatus == enums.PaymentStatusPaid {
			return nil
		}

		updates := map[string]any{
			"payment_status": enums.PaymentStatusPaid.String(),
			"status":         enums.OrderStatusConfirmed.String(),
		}
		if err := tx.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm order")
		}

		for _, item := range order.Items {
			err := tx.WithContext(ctx).
				Model(&models.Inventory{}).
				Where("variant_id = ?", item.VariantID).
				Update("quantity", gorm.Expr("quantity - ?", item.Quantity)).
				Error
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement inventory")
			}
		}

		logCtx := s.logger.WithOrderID(ctx, order.ID.String())
		s.logger.Info(logCtx, "order payment confirmed")
		return nil
	})
}
