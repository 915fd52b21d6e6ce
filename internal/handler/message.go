package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
	"github.com/bmitiku/grocery-system/internal/validation"
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitMessage принимает обращение с публичной формы обратной связи.
func (h *Handler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	errs := map[string][]string{}
	if req.Name == "" {
		errs["name"] = append(errs["name"], "The name field is required.")
	}
	if !validation.IsValidEmail(req.Email) {
		errs["email"] = append(errs["email"], "The email must be a valid email address.")
	}
	if req.Subject == "" {
		errs["subject"] = append(errs["subject"], "The subject field is required.")
	}
	if req.Message == "" {
		errs["message"] = append(errs["message"], "The message field is required.")
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	m, err := h.service.SubmitMessage(r.Context(), &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Body:    req.Message,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": toMessageResponse(m)})
}

// ListMessages возвращает обращения с фильтрами для панели администратора.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.MessageFilter{
		UnreadOnly: q.Get("unread_only") == "true" || q.Get("unread_only") == "1",
		Search:     q.Get("search"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}

	messages, err := h.service.ListMessages(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for i := range messages {
		resp = append(resp, toMessageResponse(&messages[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": resp})
}

// GetMessage возвращает обращение и помечает его прочитанным.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	m, err := h.service.GetMessage(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": toMessageResponse(m)})
}

type toggleReadRequest struct {
	IsRead bool `json:"is_read"`
}

// ToggleMessageRead помечает обращение прочитанным или непрочитанным.
func (h *Handler) ToggleMessageRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	var req toggleReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	m, err := h.service.SetMessageRead(r.Context(), id, req.IsRead)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": toMessageResponse(m)})
}

// MarkAllMessagesRead помечает все обращения прочитанными.
func (h *Handler) MarkAllMessagesRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAllMessagesRead(r.Context()); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "all messages marked as read"})
}

type replyRequest struct {
	Reply string `json:"reply"`
}

// ReplyToMessage сохраняет ответ на обращение и отправляет его автору.
func (h *Handler) ReplyToMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if req.Reply == "" {
		writeValidationError(w, map[string][]string{"reply": {"The reply field is required."}})
		return
	}

	m, err := h.service.ReplyToMessage(r.Context(), id, req.Reply)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": toMessageResponse(m)})
}

// DeleteMessage удаляет обращение.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	if err := h.service.DeleteMessage(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "message deleted"})
}

// MessageStats возвращает статистику по обращениям.
func (h *Handler) MessageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetMessageStats(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]int64{
			"total":  stats.Total,
			"unread": stats.Unread,
			"today":  stats.Today,
		},
	})
}

// Dashboard возвращает сводную статистику панели администратора.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboardStats(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]any{
			"users": map[string]int64{
				"total":                stats.Users.Total,
				"admins":               stats.Users.Admins,
				"verified":             stats.Users.Verified,
				"restricted":           stats.Users.Restricted,
				"pending_verification": stats.Users.PendingVerification,
				"active":               stats.Users.Active,
				"today":                stats.Users.Today,
				"this_month":           stats.Users.ThisMonth,
			},
			"products": map[string]any{
				"total":       stats.Products.Total,
				"total_value": centsToUnits(stats.Products.TotalValueCents),
			},
			"orders": orderStatsResponse(stats.Orders),
			"messages": map[string]int64{
				"total":  stats.Messages.Total,
				"unread": stats.Messages.Unread,
				"today":  stats.Messages.Today,
			},
		},
	})
}
