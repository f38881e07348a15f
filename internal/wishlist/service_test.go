package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/pkg/db/models"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
)

const wishlistDDL = `
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
CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY, product_id TEXT NOT NULL, url TEXT NOT NULL,
  alt TEXT NOT NULL DEFAULT '', position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS wishlist_items (
  id TEXT PRIMARY KEY, user_id TEXT NOT NULL, product_id TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (user_id, product_id)
);`

type wishlistFixture struct {
	svc       Service
	conn      *gorm.DB
	userID    uuid.UUID
	productID uuid.UUID
}

func newFixture(t *testing.T) wishlistFixture {
	t.Helper()
	dsn := "file:wishlist_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.Exec(wishlistDDL).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}

	category := models.Category{ID: uuid.New(), Name: "Running", Slug: "running"}
	brand := models.Brand{ID: uuid.New(), Name: "Velocita", Slug: "velocita"}
	product := models.Product{
		ID: uuid.New(), Name: "Aero Runner", Slug: "aero-runner", Description: "Lightweight mesh racer",
		BasePrice: decimal.NewFromInt(90), CategoryID: category.ID, BrandID: brand.ID,
		Gender: enums.GenderMen, IsActive: true,
	}
	for _, seed := range []any{&category, &brand, &product} {
		if err := conn.Create(seed).Error; err != nil {
			t.Fatalf("seed %T: %v", seed, err)
		}
	}

	svc, err := NewService(ServiceParams{Repo: NewRepository(conn)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return wishlistFixture{svc: svc, conn: conn, userID: uuid.New(), productID: product.ID}
}

func TestAddListRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.Add(ctx, f.userID, f.productID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.ProductID != f.productID {
		t.Fatalf("unexpected item %+v", item)
	}

	rows, err := f.svc.List(ctx, f.userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(rows))
	}
	if rows[0].Product == nil || rows[0].Product.Name != "Aero Runner" {
		t.Fatalf("expected product preloaded, got %+v", rows[0].Product)
	}

	if err := f.svc.Remove(ctx, f.userID, f.productID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	rows, err = f.svc.List(ctx, f.userID)
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty wishlist, got %d entries", len(rows))
	}
}

func TestAdd_DuplicateConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Add(ctx, f.userID, f.productID); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := f.svc.Add(ctx, f.userID, f.productID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	// a different user can save the same product
	if _, err := f.svc.Add(ctx, uuid.New(), f.productID); err != nil {
		t.Fatalf("other user add: %v", err)
	}
}

func TestAdd_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, f.userID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemove_MissingEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Remove(ctx, f.userID, f.productID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
