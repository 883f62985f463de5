package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/soultie/soultie-be/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager("secret", "soultie-test", time.Hour)
	user := models.User{ID: 42, Email: "amina@example.com", Role: models.RoleAdmin}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Email != user.Email || claims.Role != user.Role {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.Subject != "42" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", "soultie-test", time.Hour).
		Generate(models.User{ID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewTokenManager("secret-b", "soultie-test", time.Hour).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	token, err := NewTokenManager("secret", "other-issuer", time.Hour).
		Generate(models.User{ID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewTokenManager("secret", "soultie-test", time.Hour).Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	manager := NewTokenManager("secret", "soultie-test", -time.Minute)
	token, err := manager.Generate(models.User{ID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
