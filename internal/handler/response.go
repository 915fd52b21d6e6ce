package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
)

// errorResponse описывает единый конверт ошибки API.
type errorResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code,omitempty"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Message: message, ErrorCode: code})
}

// writeValidationError отдаёт 422 с ошибками по полям.
func writeValidationError(w http.ResponseWriter, errs map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Message:   "The given data was invalid.",
		ErrorCode: "validation_failed",
		Errors:    errs,
	})
}

// userResponse описывает пользователя в ответах API.
// Денежные суммы отдаются в рублях, в базе хранятся копейки.
type userResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone,omitempty"`
	Address            string  `json:"address,omitempty"`
	Role               string  `json:"role"`
	Status             string  `json:"status"`
	VerificationStatus string  `json:"verification_status"`
	GovIDFront         *string `json:"gov_id_front,omitempty"`
	GovIDBack          *string `json:"gov_id_back,omitempty"`
	Balance            float64 `json:"balance"`
	PendingBalance     float64 `json:"pending_balance"`
	RestrictedAt       *string `json:"restricted_at,omitempty"`
	VerifiedAt         *string `json:"verified_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Phone:              u.Phone,
		Address:            u.Address,
		Role:               string(u.Role),
		Status:             string(u.Status),
		VerificationStatus: string(u.VerificationStatus),
		GovIDFront:         u.GovIDFront,
		GovIDBack:          u.GovIDBack,
		Balance:            centsToUnits(u.BalanceCents),
		PendingBalance:     centsToUnits(u.PendingBalanceCents),
		RestrictedAt:       formatTimePtr(u.RestrictedAt),
		VerifiedAt:         formatTimePtr(u.VerifiedAt),
		CreatedAt:          u.CreatedAt.Format(time.RFC3339),
	}
}

type productResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Stock       int64   `json:"stock"`
	ImageURL    string  `json:"image_url,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       centsToUnits(p.PriceCents),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

type orderItemResponse struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	Number          string              `json:"number"`
	UserID          int64               `json:"user_id"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	CustomerPhone   string              `json:"customer_phone"`
	DeliveryAddress string              `json:"delivery_address"`
	DeliveryCity    string              `json:"delivery_city,omitempty"`
	DeliverySubcity string              `json:"delivery_subcity,omitempty"`
	OrderNotes      string              `json:"order_notes,omitempty"`
	PaymentMethod   string              `json:"payment_method"`
	Subtotal        float64             `json:"subtotal"`
	DeliveryFee     float64             `json:"delivery_fee"`
	Tax             float64             `json:"tax"`
	Total           float64             `json:"total"`
	Status          string              `json:"status"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       string              `json:"created_at"`
}

func toOrderResponse(o *model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Price:     centsToUnits(it.PriceCents),
			Quantity:  it.Quantity,
			Subtotal:  centsToUnits(it.SubtotalCents),
		})
	}
	return orderResponse{
		ID:              o.ID,
		Number:          o.Number,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		DeliveryCity:    o.DeliveryCity,
		DeliverySubcity: o.DeliverySubcity,
		OrderNotes:      o.OrderNotes,
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        centsToUnits(o.SubtotalCents),
		DeliveryFee:     centsToUnits(o.DeliveryFeeCents),
		Tax:             centsToUnits(o.TaxCents),
		Total:           centsToUnits(o.TotalCents),
		Status:          string(o.Status),
		Items:           items,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
}

type messageResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone,omitempty"`
	Subject   string  `json:"subject"`
	Body      string  `json:"message"`
	IsRead    bool    `json:"is_read"`
	ReadAt    *string `json:"read_at,omitempty"`
	Reply     *string `json:"reply,omitempty"`
	RepliedAt *string `json:"replied_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func toMessageResponse(m *model.ContactMessage) messageResponse {
	return messageResponse{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Subject:   m.Subject,
		Body:      m.Body,
		IsRead:    m.IsRead,
		ReadAt:    formatTimePtr(m.ReadAt),
		Reply:     m.Reply,
		RepliedAt: formatTimePtr(m.RepliedAt),
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

func centsToUnits(c int64) float64 {
	return float64(c) / 100
}

func unitsToCents(u float64) int64 {
	return int64(math.Round(u * 100))
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func orderStatsResponse(s *repository.OrderStats) map[string]any {
	return map[string]any{
		"total":     s.Total,
		"by_status": s.ByStatus,
		"revenue":   centsToUnits(s.RevenueCents),
	}
}
