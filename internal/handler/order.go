package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/validation"
)

type orderItemRequest struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type orderRequest struct {
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerPhone   string             `json:"customer_phone"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryCity    string             `json:"delivery_city"`
	DeliverySubcity string             `json:"delivery_subcity"`
	OrderNotes      string             `json:"order_notes"`
	PaymentMethod   string             `json:"payment_method"`
	Subtotal        float64            `json:"subtotal"`
	DeliveryFee     float64            `json:"delivery_fee"`
	Tax             float64            `json:"tax"`
	Total           float64            `json:"total"`
	Items           []orderItemRequest `json:"items"`
}

func (req *orderRequest) validate() map[string][]string {
	errs := map[string][]string{}
	if req.CustomerName == "" {
		errs["customer_name"] = append(errs["customer_name"], "The customer name field is required.")
	}
	if !validation.IsValidEmail(req.CustomerEmail) {
		errs["customer_email"] = append(errs["customer_email"], "The customer email must be a valid email address.")
	}
	if req.CustomerPhone == "" {
		errs["customer_phone"] = append(errs["customer_phone"], "The customer phone field is required.")
	}
	if req.DeliveryAddress == "" {
		errs["delivery_address"] = append(errs["delivery_address"], "The delivery address field is required.")
	}
	if len(req.Items) == 0 {
		errs["items"] = append(errs["items"], "The order must contain at least one item.")
	}
	for _, it := range req.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			errs["items"] = append(errs["items"], "Each item needs a product and a positive quantity.")
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// PlaceOrder оформляет заказ текущего пользователя.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if errs := req.validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.OrderItem{
			ProductID:     it.ProductID,
			ProductName:   it.Name,
			PriceCents:    unitsToCents(it.Price),
			Quantity:      it.Quantity,
			SubtotalCents: unitsToCents(it.Subtotal),
		})
	}

	order, err := h.service.PlaceOrder(r.Context(), userID, &model.Order{
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		DeliveryAddress:  req.DeliveryAddress,
		DeliveryCity:     req.DeliveryCity,
		DeliverySubcity:  req.DeliverySubcity,
		OrderNotes:       req.OrderNotes,
		PaymentMethod:    req.PaymentMethod,
		SubtotalCents:    unitsToCents(req.Subtotal),
		DeliveryFeeCents: unitsToCents(req.DeliveryFee),
		TaxCents:         unitsToCents(req.Tax),
		TotalCents:       unitsToCents(req.Total),
		Items:            items,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "order": toOrderResponse(order)})
}

// GetMyOrders возвращает заказы текущего пользователя, новые первыми.
func (h *Handler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	orders, err := h.service.GetUserOrders(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": toOrderResponses(orders)})
}

// GetMyOrder возвращает заказ текущего пользователя.
// Чужой заказ неотличим от несуществующего.
func (h *Handler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	orderID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	order, err := h.service.GetUserOrder(r.Context(), userID, orderID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": toOrderResponse(order)})
}

// ListOrders возвращает все заказы для панели администратора.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": toOrderResponses(orders)})
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus переводит заказ в новый статус.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if !model.ValidOrderStatus(req.Status) {
		writeValidationError(w, map[string][]string{"status": {"The selected status is invalid."}})
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": toOrderResponse(order)})
}

// OrderStats возвращает статистику по заказам.
func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetOrderStats(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": orderStatsResponse(stats)})
}

func toOrderResponses(orders []model.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	return resp
}
