package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/token"
)

func issueTestToken(t *testing.T, m *token.Manager, role model.Role) string {
	t.Helper()

	signed, err := m.Issue(&model.User{ID: 42, Email: "user@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return signed
}

func TestAuthMiddleware_WithValidToken(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Minute)
	m := NewAuthMiddleware(tokens)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		id, ok := GetUserIDFromContext(r.Context())
		if !ok {
			t.Fatalf("user id not in context")
		}
		if id != 42 {
			t.Fatalf("user id from context = %d, want 42", id)
		}
		role, ok := GetRoleFromContext(r.Context())
		if !ok {
			t.Fatalf("role not in context")
		}
		if role != model.RoleUser {
			t.Fatalf("role from context = %q, want %q", role, model.RoleUser)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+issueTestToken(t, tokens, model.RoleUser))

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_WithoutToken(t *testing.T) {
	m := NewAuthMiddleware(token.NewManager("test-secret", time.Minute))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)

	m.Middleware(next).ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_WithForeignToken(t *testing.T) {
	m := NewAuthMiddleware(token.NewManager("test-secret", time.Minute))
	foreign := token.NewManager("other-secret", time.Minute)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+issueTestToken(t, foreign, model.RoleUser))

	m.Middleware(next).ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestRequireAdmin_ForbidsUserRole(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Minute)
	m := NewAuthMiddleware(tokens)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	r.Header.Set("Authorization", "Bearer "+issueTestToken(t, tokens, model.RoleUser))

	m.Middleware(m.RequireAdmin(next)).ServeHTTP(w, r)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

func TestRequireAdmin_AllowsAdminRole(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Minute)
	m := NewAuthMiddleware(tokens)

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	r.Header.Set("Authorization", "Bearer "+issueTestToken(t, tokens, model.RoleAdmin))

	m.Middleware(m.RequireAdmin(next)).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}
