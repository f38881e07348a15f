package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/internal/addresses"
	"github.com/shoeparadise/storefront-backend/internal/orders"
	stripewebhook "github.com/shoeparadise/storefront-backend/internal/webhooks/stripe"
	"github.com/shoeparadise/storefront-backend/pkg/config"
	"github.com/shoeparadise/storefront-backend/pkg/db"
	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
	"github.com/shoeparadise/storefront-backend/pkg/logger"
)

const checkoutDDL = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL,
  name TEXT NOT NULL, role TEXT NOT NULL DEFAULT 'USER',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY, user_id TEXT NOT NULL, full_name TEXT NOT NULL,
  street TEXT NOT NULL, city TEXT NOT NULL, state TEXT NOT NULL,
  zip_code TEXT NOT NULL, country TEXT NOT NULL, phone TEXT,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL UNIQUE,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS brands (
  id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL UNIQUE,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL, base_price NUMERIC NOT NULL,
  category_id TEXT NOT NULL, brand_id TEXT NOT NULL, gender TEXT NOT NULL,
  material TEXT, featured INTEGER NOT NULL DEFAULT 0, is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS variants (
  id TEXT PRIMARY KEY, product_id TEXT NOT NULL, color TEXT NOT NULL, size TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE, price_adjustment NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS inventories (
  id TEXT PRIMARY KEY, variant_id TEXT NOT NULL UNIQUE,
  quantity INTEGER NOT NULL DEFAULT 0, reserved INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 5,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY, user_id TEXT NOT NULL, order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'PENDING', payment_status TEXT NOT NULL DEFAULT 'PENDING',
  subtotal NUMERIC NOT NULL, tax NUMERIC NOT NULL, shipping NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT 0, total NUMERIC NOT NULL,
  payment_intent_id TEXT, shipping_address_id TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY, order_id TEXT NOT NULL, variant_id TEXT NOT NULL,
  quantity INTEGER NOT NULL, price NUMERIC NOT NULL,
  product_name TEXT NOT NULL, variant_color TEXT NOT NULL, variant_size TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type fakeIntentClient struct {
	calls  []*stripe.PaymentIntentParams
	err    error
	intent *stripe.PaymentIntent
}

func (f *fakeIntentClient) Create(_ context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &stripe.PaymentIntent{ID: "pi_test_123", ClientSecret: "pi_test_123_secret"}, nil
}

type checkoutFixture struct {
	svc       Service
	conn      *gorm.DB
	intents   *fakeIntentClient
	userID    uuid.UUID
	addressID uuid.UUID
	variantA  models.Variant // base 90 + adj 5 = 95, available 8
	variantB  models.Variant // base 60 + adj 0 = 60, available 3
}

func newFixture(t *testing.T) checkoutFixture {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.Exec(checkoutDDL).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}

	userID := uuid.New()
	user := models.User{ID: userID, Email: "shopper@example.com", PasswordHash: "x", Name: "Shopper", Role: enums.UserRoleUser}
	address := models.Address{
		ID: uuid.New(), UserID: userID, FullName: "Shopper",
		Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US",
	}
	category := models.Category{ID: uuid.New(), Name: "Running", Slug: "running"}
	brand := models.Brand{ID: uuid.New(), Name: "Velocita", Slug: "velocita"}
	productA := models.Product{
		ID: uuid.New(), Name: "Aero Runner", Slug: "aero-runner", Description: "Lightweight mesh racer",
		BasePrice: decimal.NewFromInt(90), CategoryID: category.ID, BrandID: brand.ID,
		Gender: enums.GenderMen, IsActive: true,
	}
	productB := models.Product{
		ID: uuid.New(), Name: "Trail Scout", Slug: "trail-scout", Description: "Grippy trail shoe",
		BasePrice: decimal.NewFromInt(60), CategoryID: category.ID, BrandID: brand.ID,
		Gender: enums.GenderWomen, IsActive: true,
	}
	variantA := models.Variant{
		ID: uuid.New(), ProductID: productA.ID, Color: "black", Size: "42",
		SKU: "AERO-BLK-42", PriceAdjustment: decimal.NewFromInt(5),
	}
	variantB := models.Variant{
		ID: uuid.New(), ProductID: productB.ID, Color: "green", Size: "38",
		SKU: "TRAIL-GRN-38", PriceAdjustment: decimal.Zero,
	}
	inventoryA := models.Inventory{ID: uuid.New(), VariantID: variantA.ID, Quantity: 10, Reserved: 2}
	inventoryB := models.Inventory{ID: uuid.New(), VariantID: variantB.ID, Quantity: 3}

	seeds := []any{&user, &address, &category, &brand, &productA, &productB, &variantA, &variantB, &inventoryA, &inventoryB}
	for _, seed := range seeds {
		if err := conn.Create(seed).Error; err != nil {
			t.Fatalf("seed %T: %v", seed, err)
		}
	}

	intents := &fakeIntentClient{}
	svc, err := NewService(ServiceParams{
		DB:            db.FromGorm(conn),
		Repo:          NewRepository(conn),
		AddressRepo:   addresses.NewRepository(conn),
		OrderRepo:     orders.NewRepository(conn),
		PaymentIntent: intents,
		Config: config.CheckoutConfig{
			TaxRate:               "0.10",
			FreeShippingThreshold: "100",
			FlatShippingCost:      "10",
		},
		Logger: logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return checkoutFixture{
		svc: svc, conn: conn, intents: intents,
		userID: userID, addressID: address.ID,
		variantA: variantA, variantB: variantB,
	}
}

func countOrders(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := conn.Model(&models.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return n
}

func TestExecute_SuccessBelowFreeShipping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// subtotal 95, tax 9.50, shipping 10 => total 114.50
	res, err := f.svc.Execute(ctx, f.userID, Request{
		Items:             []ItemInput{{VariantID: f.variantA.ID, Quantity: 1}},
		ShippingAddressID: f.addressID,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	order := res.Order
	if !order.Subtotal.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected subtotal 95, got %s", order.Subtotal)
	}
	if !order.Tax.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected tax 9.5, got %s", order.Tax)
	}
	if !order.Shipping.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected shipping 10, got %s", order.Shipping)
	}
	if !order.Total.Equal(decimal.RequireFromString("114.5")) {
		t.Fatalf("expected total 114.5, got %s", order.Total)
	}
	if order.Status != enums.OrderStatusPending || order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected pending/pending, got %s/%s", order.Status, order.PaymentStatus)
	}
	if res.ClientSecret != "pi_test_123_secret" {
		t.Fatalf("expected client secret from intent, got %q", res.ClientSecret)
	}

	var stored models.Order
	if err := f.conn.Preload("Items").First(&stored, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if stored.PaymentIntentID == nil || *stored.PaymentIntentID != "pi_test_123" {
		t.Fatalf("expected persisted intent id, got %v", stored.PaymentIntentID)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(stored.Items))
	}
	item := stored.Items[0]
	if item.ProductName != "Aero Runner" || item.VariantColor != "black" || item.VariantSize != "42" {
		t.Fatalf("unexpected snapshot %+v", item)
	}
	if !item.Price.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected snapshot price 95, got %s", item.Price)
	}

	// intent charged in minor units with order metadata attached
	if len(f.intents.calls) != 1 {
		t.Fatalf("expected 1 intent call, got %d", len(f.intents.calls))
	}
	params := f.intents.calls[0]
	if params.Amount == nil || *params.Amount != 11450 {
		t.Fatalf("expected amount 11450, got %v", params.Amount)
	}
	if params.Metadata["order_number"] != order.OrderNumber {
		t.Fatalf("expected order number metadata, got %v", params.Metadata)
	}
}

func TestExecute_FreeShippingAtThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// subtotal 95 + 60 = 155 >= 100, tax 15.50, shipping 0 => total 170.50
	res, err := f.svc.Execute(ctx, f.userID, Request{
		Items: []ItemInput{
			{VariantID: f.variantA.ID, Quantity: 1},
			{VariantID: f.variantB.ID, Quantity: 1},
		},
		ShippingAddressID: f.addressID,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Order.Shipping.Equal(decimal.Zero) {
		t.Fatalf("expected free shipping, got %s", res.Order.Shipping)
	}
	if !res.Order.Total.Equal(decimal.RequireFromString("170.5")) {
		t.Fatalf("expected total 170.5, got %s", res.Order.Total)
	}
	if len(res.Order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Order.Items))
	}
}

func TestExecute_CouponAcceptedWithoutDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code := "WELCOME10"
	res, err := f.svc.Execute(ctx, f.userID, Request{
		Items:             []ItemInput{{VariantID: f.variantA.ID, Quantity: 1}},
		ShippingAddressID: f.addressID,
		CouponCode:        &code,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Order.Discount.Equal(decimal.Zero) {
		t.Fatalf("expected zero discount, got %s", res.Order.Discount)
	}
}

func TestExecute_UnknownVariantPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Execute(ctx, f.userID, Request{
		Items: []ItemInput{
			{VariantID: f.variantA.ID, Quantity: 1},
			{VariantID: uuid.New(), Quantity: 1},
		},
		ShippingAddressID: f.addressID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := countOrders(t, f.conn); n != 0 {
		t.Fatalf("expected no orders, found %d", n)
	}
	if len(f.intents.calls) != 0 {
		t.Fatal("expected no intent calls")
	}
}

func TestExecute_InsufficientStockPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// variant A has 10 - 2 reserved = 8 available
	_, err := f.svc.Execute(ctx, f.userID, Request{
		Items:             []ItemInput{{VariantID: f.variantA.ID, Quantity: 9}},
		ShippingAddressID: f.addressID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["available"] != 8 || details["requested"] != 9 {
		t.Fatalf("unexpected details %v", details)
	}
	if n := countOrders(t, f.conn); n != 0 {
		t.Fatalf("expected no orders, found %d", n)
	}
}

func TestExecute_ForeignAddressNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Execute(ctx, uuid.New(), Request{
		Items:             []ItemInput{{VariantID: f.variantA.ID, Quantity: 1}},
		ShippingAddressID: f.addressID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign address, got %v", err)
	}
}

func TestExecute_IntentFailureLeavesPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.intents.err = errors.New("stripe is down")

	_, err := f.svc.Execute(ctx, f.userID, Request{
		Items:             []ItemInput{{VariantID: f.variantA.ID, Quantity: 1}},
		ShippingAddressID: f.addressID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	// the order survives without an intent so support can reconcile it
	var stored models.Order
	if err := f.conn.First(&stored, "user_id = ?", f.userID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if stored.Status != enums.OrderStatusPending || stored.PaymentIntentID != nil {
		t.Fatalf("expected pending order without intent, got %+v", stored)
	}
}

func TestExecute_TaxKeepsFractionalPrecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	category := models.Category{ID: uuid.New(), Name: "Lifestyle", Slug: "lifestyle"}
	brand := models.Brand{ID: uuid.New(), Name: "Cobble", Slug: "cobble"}
	product := models.Product{
		ID: uuid.New(), Name: "Court Classic", Slug: "court-classic", Description: "Leather court shoe",
		BasePrice: decimal.RequireFromString("90.05"), CategoryID: category.ID, BrandID: brand.ID,
		Gender: enums.GenderUnisex, IsActive: true,
	}
	variant := models.Variant{
		ID: uuid.New(), ProductID: product.ID, Color: "white", Size: "41",
		SKU: "COURT-WHT-41", PriceAdjustment: decimal.Zero,
	}
	inventory := models.Inventory{ID: uuid.New(), VariantID: variant.ID, Quantity: 5}
	for _, seed := range []any{&category, &brand, &product, &variant, &inventory} {
		if err := f.conn.Create(seed).Error; err != nil {
			t.Fatalf("seed %T: %v", seed, err)
		}
	}

	// subtotal 90.05, tax 9.005 (kept sub-cent), shipping 10 => total 109.055
	res, err := f.svc.Execute(ctx, f.userID, Request{
		Items:             []ItemInput{{VariantID: variant.ID, Quantity: 1}},
		ShippingAddressID: f.addressID,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Order.Tax.Equal(decimal.RequireFromString("9.005")) {
		t.Fatalf("expected tax 9.005, got %s", res.Order.Tax)
	}
	if !res.Order.Total.Equal(decimal.RequireFromString("109.055")) {
		t.Fatalf("expected total 109.055, got %s", res.Order.Total)
	}

	// only the charge amount rounds, half away from zero: 10905.5 -> 10906
	if len(f.intents.calls) != 1 {
		t.Fatalf("expected 1 intent call, got %d", len(f.intents.calls))
	}
	params := f.intents.calls[0]
	if params.Amount == nil || *params.Amount != 10906 {
		t.Fatalf("expected amount 10906, got %v", params.Amount)
	}
}

func TestExecute_DuplicateVariantLinesRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// split across two lines each request passes the 8-available check alone
	_, err := f.svc.Execute(ctx, f.userID, Request{
		Items: []ItemInput{
			{VariantID: f.variantA.ID, Quantity: 6},
			{VariantID: f.variantA.ID, Quantity: 6},
		},
		ShippingAddressID: f.addressID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for duplicate lines, got %v", err)
	}
	if n := countOrders(t, f.conn); n != 0 {
		t.Fatalf("expected no orders, found %d", n)
	}
	if len(f.intents.calls) != 0 {
		t.Fatal("expected no intent calls")
	}
}

// Checkout checks availability but never reserves stock, so two orders for the
// same last units both pass and both confirmations decrement inventory. This
// documents the current gap: the on-hand count goes negative.
func TestConcurrentCheckoutsOversellOnConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// variant B has 3 on hand and nothing reserved
	first, err := f.svc.Execute(ctx, f.userID, Request{
		Items:             []ItemInput{{VariantID: f.variantB.ID, Quantity: 3}},
		ShippingAddressID: f.addressID,
	})
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	second, err := f.svc.Execute(ctx, f.userID, Request{
		Items:             []ItemInput{{VariantID: f.variantB.ID, Quantity: 3}},
		ShippingAddressID: f.addressID,
	})
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		TransactionRunner: db.FromGorm(f.conn),
		OrderRepo:         orders.NewRepository(f.conn),
		Logger:            logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new webhook service: %v", err)
	}
	for _, order := range []*models.Order{first.Order, second.Order} {
		raw := fmt.Sprintf(`{"id": "pi_test_123", "metadata": {"order_id": %q}}`, order.ID)
		event := &stripe.Event{
			Type: stripe.EventTypePaymentIntentSucceeded,
			Data: &stripe.EventData{Raw: json.RawMessage(raw)},
		}
		if err := webhookSvc.HandleEvent(ctx, event); err != nil {
			t.Fatalf("handle event for %s: %v", order.OrderNumber, err)
		}
	}

	var inventory models.Inventory
	if err := f.conn.First(&inventory, "variant_id = ?", f.variantB.ID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if inventory.Quantity != -3 {
		t.Fatalf("expected quantity -3 after double confirmation, got %d", inventory.Quantity)
	}
}

func TestGenerateOrderNumber_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-Z]+-[0-9A-Z]{5}$`)
	now := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		number, err := generateOrderNumber(now)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !pattern.MatchString(number) {
			t.Fatalf("unexpected format %q", number)
		}
		if seen[number] {
			t.Fatalf("duplicate number %q", number)
		}
		seen[number] = true
	}
}
