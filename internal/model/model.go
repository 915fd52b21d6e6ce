// Package model содержит доменные сущности сервиса магазина продуктов.
package model

import "time"

// Role определяет роль учётной записи.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AccountStatus описывает статус учётной записи.
type AccountStatus string

const (
	StatusActive     AccountStatus = "active"
	StatusRestricted AccountStatus = "restricted"
)

// VerificationStatus описывает статус проверки документов пользователя.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID                  int64
	Name                string
	Email               string
	Phone               string
	Address             string
	PasswordHash        []byte
	Role                Role
	Status              AccountStatus
	VerificationStatus  VerificationStatus
	GovIDFront          *string
	GovIDBack           *string
	BalanceCents        int64
	PendingBalanceCents int64
	OTPHash             []byte
	OTPExpiresAt        *time.Time
	RestrictedAt        *time.Time
	VerifiedAt          *time.Time
	CreatedAt           time.Time
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsRestricted сообщает, ограничена ли учётная запись.
func (u *User) IsRestricted() bool {
	return u.Status == StatusRestricted
}

// Product описывает товар каталога.
type Product struct {
	ID          int64
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Stock       int64
	ImageURL    string
	CreatedAt   time.Time
}

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusOnDelivery OrderStatus = "on_delivery"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ValidOrderStatus проверяет, что строка является допустимым статусом заказа.
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusOnDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order описывает заказ пользователя.
type Order struct {
	ID               int64
	UserID           int64
	Number           string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	DeliveryAddress  string
	DeliveryCity     string
	DeliverySubcity  string
	OrderNotes       string
	PaymentMethod    string
	SubtotalCents    int64
	DeliveryFeeCents int64
	TaxCents         int64
	TotalCents       int64
	Status           OrderStatus
	Items            []OrderItem
	CreatedAt        time.Time
}

// OrderItem описывает одну позицию заказа.
type OrderItem struct {
	ID            int64
	OrderID       int64
	ProductID     int64
	ProductName   string
	PriceCents    int64
	Quantity      int64
	SubtotalCents int64
}

// ContactMessage описывает сообщение, отправленное через форму обратной связи.
type ContactMessage struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Subject   string
	Body      string
	IsRead    bool
	ReadAt    *time.Time
	Reply     *string
	RepliedAt *time.Time
	CreatedAt time.Time
}
