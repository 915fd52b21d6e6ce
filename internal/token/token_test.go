package token

import (
	"errors"
	"testing"
	"time"

	"github.com/bmitiku/grocery-system/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    42,
		Email: "user@example.com",
		Role:  model.RoleAdmin,
	}
}

func TestIssueAndParse(t *testing.T) {
	m := NewManager("test-secret", 30*time.Minute)

	signed, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id = %d, want 42", claims.UserID)
	}
	if claims.Role != model.RoleAdmin {
		t.Fatalf("role = %q, want %q", claims.Role, model.RoleAdmin)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("email = %q, want user@example.com", claims.Email)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	m := NewManager("test-secret", 30*time.Minute)
	other := NewManager("other-secret", 30*time.Minute)

	signed, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := other.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	m := NewManager("test-secret", 30*time.Minute)

	if _, err := m.Parse("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	m := NewManager("test-secret", 30*time.Minute)

	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	signed, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = time.Now
	if _, err := m.Parse(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseForRefresh_GracePeriod(t *testing.T) {
	m := NewManager("test-secret", 30*time.Minute)

	issued := time.Now()
	m.now = func() time.Time { return issued }
	signed, err := m.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Просрочен на 30 секунд — в пределах grace-периода.
	m.now = func() time.Time { return issued.Add(30*time.Minute + 30*time.Second) }
	if _, err := m.ParseForRefresh(signed); err != nil {
		t.Fatalf("refresh within grace period: %v", err)
	}
	if _, err := m.Parse(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("plain parse after expiry must fail, got %v", err)
	}

	// Просрочен на две минуты — за пределами grace-периода.
	m.now = func() time.Time { return issued.Add(32 * time.Minute) }
	if _, err := m.ParseForRefresh(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired outside grace period, got %v", err)
	}
}
