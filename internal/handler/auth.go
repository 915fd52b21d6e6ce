package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bmitiku/grocery-system/internal/repository"
	"github.com/bmitiku/grocery-system/internal/validation"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

// Register обрабатывает регистрацию нового покупателя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
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
	if !validation.IsValidPassword(req.Password) {
		errs["password"] = append(errs["password"], "The password must be at least 6 characters.")
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, t, err := h.service.Register(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Success: true, Token: t, User: toUserResponse(user)})
}

// Login выполняет вход покупателя и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, t, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Token: t, User: toUserResponse(user)})
}

// AdminLogin выполняет вход в панель администратора.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, t, err := h.service.AdminLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Token: t, User: toUserResponse(user)})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return req, false
	}

	errs := map[string][]string{}
	if !validation.IsValidEmail(req.Email) {
		errs["email"] = append(errs["email"], "The email must be a valid email address.")
	}
	if req.Password == "" {
		errs["password"] = append(errs["password"], "The password field is required.")
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return req, false
	}
	return req, true
}

// CurrentUser возвращает актуальную запись текущего пользователя.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": toUserResponse(user)})
}

// Logout завершает сессию. Токены не хранятся на сервере, поэтому
// операция сводится к подтверждению: клиент сам забывает токен.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.callerID(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "logged out"})
}

// Refresh выдаёт новый токен по действующему или недавно истёкшему.
// Маршрут не закрыт auth-middleware: просроченный токен должен дойти
// до обработчика.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	t := bearerToken(r)
	if t == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	user, fresh, err := h.service.Refresh(r.Context(), t)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Token: fresh, User: toUserResponse(user)})
}

type profileRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateProfile обновляет профиль текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req profileRequest
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
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": toUserResponse(user)})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword генерирует одноразовый код и отправляет его на почту.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if !validation.IsValidEmail(req.Email) {
		writeValidationError(w, map[string][]string{"email": {"The email must be a valid email address."}})
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.passwordResetError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "reset code sent"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP проверяет одноразовый код без сброса пароля.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if !validation.IsValidOTP(req.OTP) {
		writeError(w, http.StatusBadRequest, "otp_invalid", "reset code invalid")
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		h.passwordResetError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "code verified"})
}

type resetPasswordRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

// ResetPassword устанавливает новый пароль по одноразовому коду.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if !validation.IsValidOTP(req.OTP) {
		writeError(w, http.StatusBadRequest, "otp_invalid", "reset code invalid")
		return
	}
	if !validation.IsValidPassword(req.Password) {
		writeValidationError(w, map[string][]string{"password": {"The password must be at least 6 characters."}})
		return
	}

	user, t, err := h.service.ResetPassword(r.Context(), req.Email, req.OTP, req.Password)
	if err != nil {
		h.passwordResetError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Success: true, Token: t, User: toUserResponse(user)})
}

// passwordResetError обрабатывает ошибки маршрутов восстановления пароля.
// Неизвестный email отдаётся как ошибка валидации поля.
func (h *Handler) passwordResetError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrUserNotFound) {
		writeValidationError(w, map[string][]string{"email": {"We can't find a user with that email address."}})
		return
	}
	h.handleServiceError(w, err)
}
