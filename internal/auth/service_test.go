package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoeparadise/storefront-backend/internal/users"
	pkgauth "github.com/shoeparadise/storefront-backend/pkg/auth"
	"github.com/shoeparadise/storefront-backend/pkg/config"
	"github.com/shoeparadise/storefront-backend/pkg/db"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoeparadise/storefront-backend/pkg/errors"
)

const usersDDL = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'USER',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.Exec(usersDDL).Error; err != nil {
		t.Fatalf("create users table: %v", err)
	}

	svc, err := NewService(ServiceParams{
		DB:       db.FromGorm(conn),
		UserRepo: users.NewRepository(conn),
		JWTConfig: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "shoeparadise",
			ExpirationMinutes: 30,
		},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterRequest{
		Name:     "Jordan Fields",
		Email:    "Jordan@Example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if session.User.Email != "jordan@example.com" {
		t.Fatalf("expected lowercased email, got %q", session.User.Email)
	}
	if session.User.Role != enums.UserRoleUser {
		t.Fatalf("expected USER role, got %s", session.User.Role)
	}

	claims, err := pkgauth.ParseAccessToken(config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "shoeparadise",
		ExpirationMinutes: 30,
	}, session.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != session.User.ID {
		t.Fatal("token user id mismatch")
	}

	login, err := svc.Login(ctx, LoginRequest{Email: "jordan@example.com", Password: "correct-horse-battery"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Fatal("login returned a different user")
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := RegisterRequest{Name: "Jordan Fields", Email: "jordan@example.com", Password: "correct-horse-battery"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(ctx, req)
	if err == nil {
		t.Fatal("expected duplicate register to fail")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Name:     "Jordan Fields",
		Email:    "jordan@example.com",
		Password: "correct-horse-battery",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(ctx, LoginRequest{Email: "jordan@example.com", Password: "wrong"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad password, got %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "irrelevant"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestMe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, RegisterRequest{
		Name:     "Jordan Fields",
		Email:    "jordan@example.com",
		Password: "correct-horse-battery",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	me, err := svc.Me(ctx, session.User.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Email != "jordan@example.com" {
		t.Fatalf("unexpected email %q", me.Email)
	}

	_, err = svc.Me(ctx, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
