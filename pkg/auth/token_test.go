package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shoeparadise/storefront-backend/pkg/config"
	"github.com/shoeparadise/storefront-backend/pkg/enums"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "shoeparadise",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID: userID,
		Email:  "shopper@example.com",
		Role:   enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "shopper@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Role != enums.UserRoleUser {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}
}

func TestMintAccessToken_Validation(t *testing.T) {
	now := time.Now().UTC()
	payload := AccessTokenPayload{UserID: uuid.New(), Email: "a@b.c", Role: enums.UserRoleUser}

	if _, err := MintAccessToken(config.JWTConfig{Issuer: "i", ExpirationMinutes: 5}, now, payload); err == nil {
		t.Fatal("expected missing secret to fail")
	}
	if _, err := MintAccessToken(config.JWTConfig{Secret: "s", ExpirationMinutes: 5}, now, payload); err == nil {
		t.Fatal("expected missing issuer to fail")
	}
	bad := payload
	bad.Role = enums.UserRole("SUPERVISOR")
	if _, err := MintAccessToken(config.JWTConfig{Secret: "s", Issuer: "i", ExpirationMinutes: 5}, now, bad); err == nil {
		t.Fatal("expected invalid role to fail")
	}
}

func TestParseAccessToken_RejectsTampering(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "shoeparadise", ExpirationMinutes: 30}
	token, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		Role:   enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected wrong secret to fail")
	}

	parts := strings.Split(token, ".")
	parts[2] = "tampered"
	if _, err := ParseAccessToken(cfg, strings.Join(parts, ".")); err == nil {
		t.Fatal("expected tampered signature to fail")
	}
}

func TestParseAccessToken_RejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "shoeparadise", ExpirationMinutes: 1}
	token, err := MintAccessToken(cfg, time.Now().UTC().Add(-time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		Role:   enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}
