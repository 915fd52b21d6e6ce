// Package service реализует бизнес-логику сервиса магазина продуктов.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
	"github.com/bmitiku/grocery-system/internal/token"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountRestricted возвращается при входе с ограниченной учётной записью.
	// Пароль проверяется до этой проверки, чтобы не раскрывать факт блокировки
	// тому, кто не знает пароль.
	ErrAccountRestricted = errors.New("account is restricted")
	// ErrInsufficientRole возвращается при входе в админ-панель без роли admin.
	ErrInsufficientRole = errors.New("admin privileges required")
	// ErrCannotTargetSelf возвращается при попытке изменить собственную роль.
	ErrCannotTargetSelf = errors.New("cannot change own role")
	// ErrCannotDeleteSelf возвращается при попытке удалить собственную учётную запись.
	ErrCannotDeleteSelf = errors.New("cannot delete own account")
	// ErrOTPNotRequested возвращается, если одноразовый код не запрашивался.
	ErrOTPNotRequested = errors.New("otp not requested")
	// ErrOTPExpired возвращается при использовании просроченного одноразового кода.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPInvalid возвращается при неверном одноразовом коде.
	ErrOTPInvalid = errors.New("otp invalid")
	// ErrTotalMismatch возвращается, если итог заказа не сходится с его составляющими.
	ErrTotalMismatch = errors.New("order total mismatch")
	// ErrMailDelivery возвращается, когда операция не имеет смысла без отправленного письма.
	ErrMailDelivery = errors.New("mail delivery failed")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, name, email, phone string, passwordHash []byte) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email, phone, address string) (*model.User, error)
	SetUserRole(ctx context.Context, id int64, role model.Role) (*model.User, error)
	SetUserStatus(ctx context.Context, id int64, status model.AccountStatus) (*model.User, error)
	SetVerificationStatus(ctx context.Context, id int64, status model.VerificationStatus) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetPasswordHash(ctx context.Context, id int64, passwordHash []byte) error
	SetOTP(ctx context.Context, id int64, otpHash []byte, expiresAt time.Time) error
	GetUserStats(ctx context.Context) (*repository.UserStats, error)

	CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProductStats(ctx context.Context) (*repository.ProductStats, error)

	CreateOrder(ctx context.Context, o *model.Order) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
	GetOrderStats(ctx context.Context) (*repository.OrderStats, error)

	CreateMessage(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error)
	ListMessages(ctx context.Context, filter repository.MessageFilter) ([]model.ContactMessage, error)
	GetMessageByID(ctx context.Context, id int64) (*model.ContactMessage, error)
	MarkMessageRead(ctx context.Context, id int64, read bool) (*model.ContactMessage, error)
	MarkAllMessagesRead(ctx context.Context) error
	SetMessageReply(ctx context.Context, id int64, reply string) (*model.ContactMessage, error)
	DeleteMessage(ctx context.Context, id int64) error
	GetMessageStats(ctx context.Context) (*repository.MessageStats, error)
}

// Mailer описывает контракт отправки почты.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service содержит бизнес-логику сервиса магазина продуктов.
type Service struct {
	repo       Repository
	tokens     *token.Manager
	mailer     Mailer
	logger     *zap.Logger
	adminEmail string
}

// NewService создаёт новый сервис с указанными зависимостями.
// mailer может быть nil: тогда исходящая почта отключена.
func NewService(repo Repository, tokens *token.Manager, mailer Mailer, logger *zap.Logger, adminEmail string) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		mailer:     mailer,
		logger:     logger,
		adminEmail: adminEmail,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// DashboardStats содержит сводную статистику для панели администратора.
type DashboardStats struct {
	Users    *repository.UserStats
	Products *repository.ProductStats
	Orders   *repository.OrderStats
	Messages *repository.MessageStats
}

// GetDashboardStats собирает сводную статистику по всем разделам.
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	users, err := s.repo.GetUserStats(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.GetProductStats(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.GetOrderStats(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.GetMessageStats(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Users:    users,
		Products: products,
		Orders:   orders,
		Messages: messages,
	}, nil
}
