package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/internal/addresses"
	"github.com/shoeparadise/storefront-backend/internal/orders"
	"github.com/shoeparadise/storefront-backend/pkg/config"
	"github.com/shoeparadise/storefront-backend/pkg/db"
	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	pkgenums "github.com/shoeparadise/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
	"github.com/shoeparadise/storefront-backend/pkg/logger"
)

// Service turns a validated checkout request into a pending order plus a
// payment intent the client confirms on its side.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, req Request) (*Result, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	DB            *db.Client
	Repo          *Repository
	AddressRepo   *addresses.Repository
	OrderRepo     *orders.Repository
	PaymentIntent PaymentIntentClient
	Config        config.CheckoutConfig
	Logger        *logger.Logger
}

type service struct {
	txRunner      txRunner
	repo          *Repository
	addressRepo   *addresses.Repository
	orderRepo     *orders.Repository
	paymentIntent PaymentIntentClient
	taxRate       decimal.Decimal
	freeShipOver  decimal.Decimal
	flatShipping  decimal.Decimal
	logger        *logger.Logger
	now           func() time.Time
}

// NewService builds the checkout service, parsing the pricing knobs up front.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout repo required")
	}
	if params.AddressRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repo required")
	}
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if params.PaymentIntent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment intent client required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}

	taxRate, err := decimal.NewFromString(params.Config.TaxRate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse tax rate")
	}
	freeShipOver, err := decimal.NewFromString(params.Config.FreeShippingThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse free shipping threshold")
	}
	flatShipping, err := decimal.NewFromString(params.Config.FlatShippingCost)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse flat shipping cost")
	}

	return &service{
		txRunner:      params.DB,
		repo:          params.Repo,
		addressRepo:   params.AddressRepo,
		orderRepo:     params.OrderRepo,
		paymentIntent: params.PaymentIntent,
		taxRate:       taxRate,
		freeShipOver:  freeShipOver,
		flatShipping:  flatShipping,
		logger:        params.Logger,
		now:           time.Now,
	}, nil
}

// Execute resolves stock and pricing, persists the order, and opens a
// payment intent for the total. The order is written before the intent is
// requested, so a provider outage leaves a pending order behind rather than
// charging for nothing.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, req Request) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for _, item := range req.Items {
		if item.VariantID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
	}
	if req.ShippingAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address id is required")
	}

	address, err := s.addressRepo.FindByIDForUser(ctx, req.ShippingAddressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipping address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipping address")
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.VariantID)
	}
	variants, err := s.repo.FindVariants(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load variants")
	}

	// A count mismatch covers both unknown ids and duplicate lines for the
	// same variant; duplicates would each pass the stock check independently.
	if len(variants) != len(req.Items) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "one or more variants not found")
	}
	byID := make(map[uuid.UUID]*models.Variant, len(variants))
	for i := range variants {
		byID[variants[i].ID] = &variants[i]
	}

	subtotal := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		variant := byID[item.VariantID]
		if variant.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "variant has no product")
		}

		available := 0
		if variant.Inventory != nil {
			available = variant.Inventory.Available()
		}
		if item.Quantity > available {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", variant.Product.Name)).
				WithDetails(map[string]any{
					"variant_id": variant.ID,
					"requested":  item.Quantity,
					"available":  available,
				})
		}

		unitPrice := variant.Product.BasePrice.Add(variant.PriceAdjustment)
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))

		orderItems = append(orderItems, models.OrderItem{
			ID:           uuid.New(),
			VariantID:    variant.ID,
			Quantity:     item.Quantity,
			Price:        unitPrice,
			ProductName:  variant.Product.Name,
			VariantColor: variant.Color,
			VariantSize:  variant.Size,
		})
	}

	// Tax stays unrounded; minor-unit rounding happens only at the Stripe
	// boundary below.
	tax := subtotal.Mul(s.taxRate)
	shipping := s.flatShipping
	if subtotal.GreaterThanOrEqual(s.freeShipOver) {
		shipping = decimal.Zero
	}
	// coupon codes ride along on the request but carry no discount yet
	discount := decimal.Zero
	total := subtotal.Add(tax).Add(shipping).Sub(discount)

	orderNumber, err := generateOrderNumber(s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	order := &models.Order{
		ID:                uuid.New(),
		UserID:            userID,
		OrderNumber:       orderNumber,
		Status:            pkgenums.OrderStatusPending,
		PaymentStatus:     pkgenums.PaymentStatusPending,
		Subtotal:          subtotal,
		Tax:               tax,
		Shipping:          shipping,
		Discount:          discount,
		Total:             total,
		ShippingAddressID: address.ID,
	}
	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	order.Items = orderItems

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := orders.NewRepository(tx).Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	amount := total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	intentParams := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	}
	intent, err := s.paymentIntent.Create(ctx, intentParams)
	if err != nil {
		logCtx := s.logger.WithOrderID(ctx, order.ID.String())
		s.logger.Error(logCtx, "create payment intent", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if err := s.orderRepo.SetPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "attach payment intent")
	}
	order.PaymentIntentID = &intent.ID

	return &Result{Order: order, ClientSecret: intent.ClientSecret}, nil
}
