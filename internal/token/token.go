// Package token отвечает за выпуск и проверку токенов доступа (JWT).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bmitiku/grocery-system/internal/model"
)

// Роль зашивается в подписанный токен при выпуске и не перечитывается из БД
// на каждом запросе: смена роли или блокировка вступают в силу после
// истечения токена. TTL токена задаёт границу этого окна.

// ErrTokenExpired возвращается при проверке токена с истекшим сроком действия.
var (
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid возвращается для токена с неверной подписью или форматом.
	ErrTokenInvalid = errors.New("token invalid")
)

// refreshGrace — допуск по времени, в течение которого просроченный токен
// ещё принимается операцией обновления.
const refreshGrace = 60 * time.Second

// Claims описывает полезную нагрузку токена доступа.
type Claims struct {
	UserID int64      `json:"uid"`
	Role   model.Role `json:"role"`
	Email  string     `json:"email"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет токены доступа.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт менеджер токенов с указанным секретом и временем жизни.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL возвращает время жизни выпускаемых токенов.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue выпускает подписанный токен для указанного пользователя.
func (m *Manager) Issue(user *model.User) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена и возвращает его claims.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil || m.now().After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

// ParseForRefresh проверяет токен для операции обновления: подпись обязана
// быть верной, а срок действия может быть истекшим не более чем на grace-период.
func (m *Manager) ParseForRefresh(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil || m.now().After(claims.ExpiresAt.Add(refreshGrace)) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
