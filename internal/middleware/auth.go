// Package middleware содержит HTTP middleware сервиса магазина продуктов.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/token"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// AuthMiddleware выполняет проверку аутентификации по bearer-токену.
type AuthMiddleware struct {
	tokens *token.Manager
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware.
func NewAuthMiddleware(tokens *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Middleware проверяет заголовок Authorization и добавляет идентификатор
// пользователя и роль из токена в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated. Please login.")
			return
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			code := "token_invalid"
			if errors.Is(err, token.ErrTokenExpired) {
				code = "token_expired"
			}
			writeAuthError(w, http.StatusUnauthorized, code, "Unauthenticated. Please login.")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, roleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin пропускает запрос только при роли admin в токене.
// Роль берётся из подписанного claim, а не из БД: см. комментарий в пакете token.
func (a *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetRoleFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated. Please login.")
			return
		}
		if role != model.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "forbidden", "Access denied. Admin privileges required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"error_code": code,
		"message":    message,
	})
}

// GetUserIDFromContext извлекает идентификатор пользователя из контекста запроса.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetRoleFromContext извлекает роль пользователя из контекста запроса.
func GetRoleFromContext(ctx context.Context) (model.Role, bool) {
	role, ok := ctx.Value(roleKey).(model.Role)
	return role, ok
}
