package auth

import (
	"errors"
	"testing"
	"time"

	"timeclock/internal/db/models"

	"github.com/google/uuid"
)

func TestHashPasswordRequiresMinimumLength(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestHashPasswordAndVerify(t *testing.T) {
	password := "correct-horse-battery"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !VerifyPassword(password, hash) {
		t.Fatalf("expected password verification to succeed")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Fatalf("expected wrong password verification to fail")
	}
	if VerifyPassword(password, "not-a-hash") {
		t.Fatalf("expected malformed hash to fail verification")
	}
}

func TestIssueAndValidate(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	worker := &models.Worker{ID: uuid.New(), Username: "ana", Role: models.RoleAdmin}

	token, expires, err := issuer.Issue(worker)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expiry should be in the future")
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.WorkerID != worker.ID || claims.Role != models.RoleAdmin || claims.Subject != "ana" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	token, _, err := issuer.Issue(&models.Worker{ID: uuid.New(), Username: "ana"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := issuer.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	token, _, err := NewIssuer("one", time.Hour).Issue(&models.Worker{ID: uuid.New(), Username: "ana"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewIssuer("two", time.Hour).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := NewIssuer("one", time.Hour).Validate("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
