// Package handler содержит HTTP-обработчики API магазина продуктов.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bmitiku/grocery-system/internal/middleware"
	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
	"github.com/bmitiku/grocery-system/internal/service"
	"github.com/bmitiku/grocery-system/internal/token"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, name, email, phone, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	AdminLogin(ctx context.Context, email, password string) (*model.User, string, error)
	Refresh(ctx context.Context, tokenString string) (*model.User, string, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email, phone, address string) (*model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ResetPassword(ctx context.Context, email, otp, password string) (*model.User, string, error)

	PromoteUser(ctx context.Context, callerID, targetID int64) (*model.User, error)
	DemoteUser(ctx context.Context, callerID, targetID int64) (*model.User, error)
	RestrictUser(ctx context.Context, targetID int64) (*model.User, error)
	UnrestrictUser(ctx context.Context, targetID int64) (*model.User, error)
	VerifyUser(ctx context.Context, targetID int64) (*model.User, error)
	RejectUser(ctx context.Context, targetID int64) (*model.User, error)
	DeleteUser(ctx context.Context, callerID, targetID int64) error
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error)
	GetUserStats(ctx context.Context) (*repository.UserStats, error)

	CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProductStats(ctx context.Context) (*repository.ProductStats, error)

	PlaceOrder(ctx context.Context, userID int64, o *model.Order) (*model.Order, error)
	GetUserOrders(ctx context.Context, userID int64) ([]model.Order, error)
	GetUserOrder(ctx context.Context, userID, orderID int64) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error)
	GetOrderStats(ctx context.Context) (*repository.OrderStats, error)

	SubmitMessage(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error)
	ListMessages(ctx context.Context, filter repository.MessageFilter) ([]model.ContactMessage, error)
	GetMessage(ctx context.Context, id int64) (*model.ContactMessage, error)
	SetMessageRead(ctx context.Context, id int64, read bool) (*model.ContactMessage, error)
	MarkAllMessagesRead(ctx context.Context) error
	ReplyToMessage(ctx context.Context, id int64, reply string) (*model.ContactMessage, error)
	DeleteMessage(ctx context.Context, id int64) error
	GetMessageStats(ctx context.Context) (*repository.MessageStats, error)

	GetDashboardStats(ctx context.Context) (*service.DashboardStats, error)
}

// Handler реализует HTTP-обработчики API магазина продуктов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

// APITest отвечает на проверочный запрос фронтенда.
func (h *Handler) APITest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"message": "API is working successfully",
	})
}

// idParam извлекает числовой идентификатор из пути запроса.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// callerID извлекает идентификатор текущего пользователя из контекста.
func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return 0, false
	}
	return userID, true
}

// bearerToken извлекает токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}

// handleServiceError переводит ошибки бизнес-логики в HTTP-ответы.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, service.ErrAccountRestricted):
		writeError(w, http.StatusForbidden, "account_restricted", "account is restricted")
	case errors.Is(err, service.ErrInsufficientRole):
		writeError(w, http.StatusForbidden, "insufficient_role", "admin privileges required")
	case errors.Is(err, token.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token_expired", "token expired")
	case errors.Is(err, token.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, "token_invalid", "token invalid")
	case errors.Is(err, service.ErrCannotTargetSelf):
		writeError(w, http.StatusBadRequest, "cannot_target_self", "cannot change own role")
	case errors.Is(err, service.ErrCannotDeleteSelf):
		writeError(w, http.StatusBadRequest, "cannot_delete_self", "cannot delete own account")
	case errors.Is(err, service.ErrOTPNotRequested):
		writeError(w, http.StatusBadRequest, "otp_not_requested", "no reset code was requested")
	case errors.Is(err, service.ErrOTPExpired):
		writeError(w, http.StatusBadRequest, "otp_expired", "reset code expired")
	case errors.Is(err, service.ErrOTPInvalid):
		writeError(w, http.StatusBadRequest, "otp_invalid", "reset code invalid")
	case errors.Is(err, service.ErrTotalMismatch):
		writeError(w, http.StatusBadRequest, "total_mismatch", "order total does not match its parts")
	case errors.Is(err, service.ErrMailDelivery):
		writeError(w, http.StatusInternalServerError, "upstream_failure", "mail delivery failed")
	case errors.Is(err, repository.ErrAlreadyAdmin):
		writeError(w, http.StatusBadRequest, "already_admin", "user is already an admin")
	case errors.Is(err, repository.ErrNotAnAdmin):
		writeError(w, http.StatusBadRequest, "not_an_admin", "user is not an admin")
	case errors.Is(err, repository.ErrLastAdmin):
		writeError(w, http.StatusBadRequest, "last_admin", "cannot remove the last admin")
	case errors.Is(err, repository.ErrAlreadyRestricted):
		writeError(w, http.StatusBadRequest, "already_restricted", "account is already restricted")
	case errors.Is(err, repository.ErrNotRestricted):
		writeError(w, http.StatusBadRequest, "not_restricted", "account is not restricted")
	case errors.Is(err, repository.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, "already_verified", "account is already verified")
	case errors.Is(err, repository.ErrAlreadyRejected):
		writeError(w, http.StatusBadRequest, "already_rejected", "account verification is already rejected")
	case errors.Is(err, repository.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient_stock", "not enough stock for one of the items")
	case errors.Is(err, repository.ErrUserExists):
		writeValidationError(w, map[string][]string{"email": {"The email has already been taken."}})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		h.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
