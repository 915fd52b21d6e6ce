package handler

import (
	"net/http"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
)

// lifecycleOp выполняет операцию жизненного цикла над учётной записью
// и отдаёт обновлённого пользователя.
func (h *Handler) lifecycleOp(w http.ResponseWriter, r *http.Request,
	op func(callerID, targetID int64) (*model.User, error)) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	user, err := op(callerID, targetID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": toUserResponse(user)})
}

// PromoteUser назначает пользователю роль администратора.
func (h *Handler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, func(callerID, targetID int64) (*model.User, error) {
		return h.service.PromoteUser(r.Context(), callerID, targetID)
	})
}

// DemoteUser снимает с пользователя роль администратора.
func (h *Handler) DemoteUser(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, func(callerID, targetID int64) (*model.User, error) {
		return h.service.DemoteUser(r.Context(), callerID, targetID)
	})
}

// RestrictUser блокирует учётную запись.
func (h *Handler) RestrictUser(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, func(_, targetID int64) (*model.User, error) {
		return h.service.RestrictUser(r.Context(), targetID)
	})
}

// UnrestrictUser снимает блокировку учётной записи.
func (h *Handler) UnrestrictUser(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, func(_, targetID int64) (*model.User, error) {
		return h.service.UnrestrictUser(r.Context(), targetID)
	})
}

// VerifyUser подтверждает документы пользователя.
func (h *Handler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, func(_, targetID int64) (*model.User, error) {
		return h.service.VerifyUser(r.Context(), targetID)
	})
}

// RejectUser отклоняет документы пользователя.
func (h *Handler) RejectUser(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, func(_, targetID int64) (*model.User, error) {
		return h.service.RejectUser(r.Context(), targetID)
	})
}

// DeleteUser удаляет учётную запись пользователя.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	targetID, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
		return
	}

	if err := h.service.DeleteUser(r.Context(), callerID, targetID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "user deleted"})
}

// ListUsers возвращает пользователей с поиском и фильтрами.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.UserFilter{
		Search:             q.Get("search"),
		Role:               q.Get("role"),
		Status:             q.Get("status"),
		VerificationStatus: q.Get("verification_status"),
		SortBy:             q.Get("sort_by"),
		SortOrder:          q.Get("sort_order"),
	}

	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": resp})
}

// UserStats возвращает статистику по пользователям.
func (h *Handler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetUserStats(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats": map[string]int64{
			"total":                stats.Total,
			"admins":               stats.Admins,
			"verified":             stats.Verified,
			"restricted":           stats.Restricted,
			"pending_verification": stats.PendingVerification,
			"active":               stats.Active,
			"today":                stats.Today,
			"this_month":           stats.ThisMonth,
		},
	})
}
