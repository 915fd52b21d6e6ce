package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bmitiku/grocery-system/internal/middleware"
	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
	"github.com/bmitiku/grocery-system/internal/service"
	"github.com/bmitiku/grocery-system/internal/token"
)

type stubService struct {
	user     *model.User
	userErr  error
	token    string
	tokenErr error

	lifecycleUser *model.User
	lifecycleErr  error
	deleteUserErr error

	product    *model.Product
	productErr error

	order    *model.Order
	orderErr error

	message    *model.ContactMessage
	messageErr error

	userFilter    repository.UserFilter
	messageFilter repository.MessageFilter
}

func (s *stubService) Register(ctx context.Context, name, email, phone, password string) (*model.User, string, error) {
	return s.user, s.token, s.tokenErr
}

func (s *stubService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return s.user, s.token, s.tokenErr
}

func (s *stubService) AdminLogin(ctx context.Context, email, password string) (*model.User, string, error) {
	return s.user, s.token, s.tokenErr
}

func (s *stubService) Refresh(ctx context.Context, tokenString string) (*model.User, string, error) {
	return s.user, s.token, s.tokenErr
}

func (s *stubService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) UpdateProfile(ctx context.Context, id int64, name, email, phone, address string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) ForgotPassword(ctx context.Context, email string) error {
	return s.userErr
}

func (s *stubService) VerifyOTP(ctx context.Context, email, otp string) error {
	return s.userErr
}

func (s *stubService) ResetPassword(ctx context.Context, email, otp, password string) (*model.User, string, error) {
	return s.user, s.token, s.tokenErr
}

func (s *stubService) PromoteUser(ctx context.Context, callerID, targetID int64) (*model.User, error) {
	return s.lifecycleUser, s.lifecycleErr
}

func (s *stubService) DemoteUser(ctx context.Context, callerID, targetID int64) (*model.User, error) {
	return s.lifecycleUser, s.lifecycleErr
}

func (s *stubService) RestrictUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.lifecycleUser, s.lifecycleErr
}

func (s *stubService) UnrestrictUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.lifecycleUser, s.lifecycleErr
}

func (s *stubService) VerifyUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.lifecycleUser, s.lifecycleErr
}

func (s *stubService) RejectUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.lifecycleUser, s.lifecycleErr
}

func (s *stubService) DeleteUser(ctx context.Context, callerID, targetID int64) error {
	return s.deleteUserErr
}

func (s *stubService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	s.userFilter = filter
	return nil, nil
}

func (s *stubService) GetUserStats(ctx context.Context) (*repository.UserStats, error) {
	return &repository.UserStats{}, nil
}

func (s *stubService) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	return s.product, s.productErr
}

func (s *stubService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.product, s.productErr
}

func (s *stubService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return nil, nil
}

func (s *stubService) UpdateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	return s.product, s.productErr
}

func (s *stubService) DeleteProduct(ctx context.Context, id int64) error {
	return s.productErr
}

func (s *stubService) GetProductStats(ctx context.Context) (*repository.ProductStats, error) {
	return &repository.ProductStats{}, nil
}

func (s *stubService) PlaceOrder(ctx context.Context, userID int64, o *model.Order) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) GetUserOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubService) GetUserOrder(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) ListOrders(ctx context.Context) ([]model.Order, error) {
	return nil, nil
}

func (s *stubService) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubService) GetOrderStats(ctx context.Context) (*repository.OrderStats, error) {
	return &repository.OrderStats{ByStatus: map[string]int64{}}, nil
}

func (s *stubService) SubmitMessage(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error) {
	return s.message, s.messageErr
}

func (s *stubService) ListMessages(ctx context.Context, filter repository.MessageFilter) ([]model.ContactMessage, error) {
	s.messageFilter = filter
	return nil, nil
}

func (s *stubService) GetMessage(ctx context.Context, id int64) (*model.ContactMessage, error) {
	return s.message, s.messageErr
}

func (s *stubService) SetMessageRead(ctx context.Context, id int64, read bool) (*model.ContactMessage, error) {
	return s.message, s.messageErr
}

func (s *stubService) MarkAllMessagesRead(ctx context.Context) error {
	return s.messageErr
}

func (s *stubService) ReplyToMessage(ctx context.Context, id int64, reply string) (*model.ContactMessage, error) {
	return s.message, s.messageErr
}

func (s *stubService) DeleteMessage(ctx context.Context, id int64) error {
	return s.messageErr
}

func (s *stubService) GetMessageStats(ctx context.Context) (*repository.MessageStats, error) {
	return &repository.MessageStats{}, nil
}

func (s *stubService) GetDashboardStats(ctx context.Context) (*service.DashboardStats, error) {
	return &service.DashboardStats{
		Users:    &repository.UserStats{},
		Products: &repository.ProductStats{},
		Orders:   &repository.OrderStats{ByStatus: map[string]int64{}},
		Messages: &repository.MessageStats{},
	}, nil
}

type testEnv struct {
	handler *Handler
	tokens  *token.Manager
}

func newTestEnv(t *testing.T, svc Service) *testEnv {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	tokens := token.NewManager("test-secret", time.Hour)
	auth := middleware.NewAuthMiddleware(tokens)

	return &testEnv{
		handler: NewHandler(svc, logger, auth),
		tokens:  tokens,
	}
}

func (e *testEnv) tokenFor(t *testing.T, role model.Role) string {
	t.Helper()
	tok, err := e.tokens.Issue(&model.User{ID: 1, Email: "t@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func doRequest(t *testing.T, h *Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec
}

func testUser() *model.User {
	return &model.User{
		ID:        1,
		Name:      "Test",
		Email:     "t@example.com",
		Role:      model.RoleUser,
		Status:    model.StatusActive,
		CreatedAt: time.Now(),
	}
}

func TestAPITest(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodGet, "/api/test", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Status || resp.Message != "API is working successfully" {
		t.Fatalf("unexpected probe response: %+v", resp)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "123",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if len(resp.Errors[field]) == 0 {
			t.Fatalf("expected field error for %q, got %+v", field, resp.Errors)
		}
	}
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t, &stubService{user: testUser(), token: "tok"})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/register", "", map[string]string{
		"name":     "Test",
		"email":    "t@example.com",
		"password": "secret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t, &stubService{tokenErr: service.ErrInvalidCredentials})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "t@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLogin_Restricted(t *testing.T) {
	env := newTestEnv(t, &stubService{tokenErr: service.ErrAccountRestricted})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "t@example.com",
		"password": "secret",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "account_restricted" {
		t.Fatalf("expected account_restricted code, got %q", resp.ErrorCode)
	}
}

func TestAdminLogin_InsufficientRole(t *testing.T) {
	env := newTestEnv(t, &stubService{tokenErr: service.ErrInsufficientRole})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email":    "t@example.com",
		"password": "secret",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCurrentUser_NoToken(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodGet, "/api/user", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCurrentUser_WithToken(t *testing.T) {
	env := newTestEnv(t, &stubService{user: testUser()})

	rec := doRequest(t, env.handler, http.MethodGet, "/api/user", env.tokenFor(t, model.RoleUser), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminRoute_UserRoleForbidden(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodGet, "/api/admin/users", env.tokenFor(t, model.RoleUser), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminRoute_AdminAllowed(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodGet, "/api/admin/users", env.tokenFor(t, model.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestListUsers_ForwardsSortParams(t *testing.T) {
	svc := &stubService{}
	env := newTestEnv(t, svc)

	rec := doRequest(t, env.handler, http.MethodGet,
		"/api/admin/users?sort_by=email&sort_order=asc", env.tokenFor(t, model.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.userFilter.SortBy != "email" || svc.userFilter.SortOrder != "asc" {
		t.Fatalf("filter = %+v, want SortBy=email SortOrder=asc", svc.userFilter)
	}
}

func TestListMessages_ForwardsSortParams(t *testing.T) {
	svc := &stubService{}
	env := newTestEnv(t, svc)

	rec := doRequest(t, env.handler, http.MethodGet,
		"/api/admin/messages?sort_by=subject&sort_order=desc", env.tokenFor(t, model.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.messageFilter.SortBy != "subject" || svc.messageFilter.SortOrder != "desc" {
		t.Fatalf("filter = %+v, want SortBy=subject SortOrder=desc", svc.messageFilter)
	}
}

func TestPromoteUser_AlreadyAdmin(t *testing.T) {
	env := newTestEnv(t, &stubService{lifecycleErr: repository.ErrAlreadyAdmin})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/admin/users/2/make-admin", env.tokenFor(t, model.RoleAdmin), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "already_admin" {
		t.Fatalf("expected already_admin code, got %q", resp.ErrorCode)
	}
}

func TestDemoteUser_LastAdmin(t *testing.T) {
	env := newTestEnv(t, &stubService{lifecycleErr: repository.ErrLastAdmin})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/admin/users/2/remove-admin", env.tokenFor(t, model.RoleAdmin), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDeleteUser_Self(t *testing.T) {
	env := newTestEnv(t, &stubService{deleteUserErr: service.ErrCannotDeleteSelf})

	rec := doRequest(t, env.handler, http.MethodDelete, "/api/admin/users/1", env.tokenFor(t, model.RoleAdmin), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "cannot_delete_self" {
		t.Fatalf("expected cannot_delete_self code, got %q", resp.ErrorCode)
	}
}

func TestDeleteUser_UnknownTarget(t *testing.T) {
	env := newTestEnv(t, &stubService{deleteUserErr: repository.ErrUserNotFound})

	rec := doRequest(t, env.handler, http.MethodDelete, "/api/admin/users/999", env.tokenFor(t, model.RoleAdmin), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPlaceOrder_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/orders", "", map[string]any{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func validOrderBody() map[string]any {
	return map[string]any{
		"customer_name":    "Test",
		"customer_email":   "t@example.com",
		"customer_phone":   "555-0100",
		"delivery_address": "Main st 1",
		"payment_method":   "cash",
		"subtotal":         10.0,
		"delivery_fee":     2.0,
		"tax":              1.5,
		"total":            13.5,
		"items": []map[string]any{
			{"product_id": 1, "name": "Milk", "price": 10.0, "quantity": 1, "subtotal": 10.0},
		},
	}
}

func TestPlaceOrder_TotalMismatch(t *testing.T) {
	env := newTestEnv(t, &stubService{orderErr: service.ErrTotalMismatch})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/orders", env.tokenFor(t, model.RoleUser), validOrderBody())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	env := newTestEnv(t, &stubService{orderErr: repository.ErrInsufficientStock})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/orders", env.tokenFor(t, model.RoleUser), validOrderBody())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestPlaceOrder_NoItems(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	body := validOrderBody()
	body["items"] = []map[string]any{}
	rec := doRequest(t, env.handler, http.MethodPost, "/api/orders", env.tokenFor(t, model.RoleUser), body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodPut, "/api/admin/orders/1/status", env.tokenFor(t, model.RoleAdmin),
		map[string]string{"status": "teleported"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestGetProduct_BadID(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodGet, "/api/products/abc", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/products", env.tokenFor(t, model.RoleUser),
		map[string]any{"name": "Milk", "price": 1.0})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSubmitMessage_Validation(t *testing.T) {
	env := newTestEnv(t, &stubService{})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/contact", "", map[string]string{
		"email": "bad",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestSubmitMessage_Success(t *testing.T) {
	env := newTestEnv(t, &stubService{message: &model.ContactMessage{
		ID:        1,
		Name:      "Test",
		Email:     "t@example.com",
		Subject:   "Hi",
		Body:      "Hello",
		CreatedAt: time.Now(),
	}})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/contact", "", map[string]string{
		"name":    "Test",
		"email":   "t@example.com",
		"subject": "Hi",
		"message": "Hello",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestReplyToMessage_MailFailure(t *testing.T) {
	env := newTestEnv(t, &stubService{messageErr: service.ErrMailDelivery})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/admin/messages/1/reply", env.tokenFor(t, model.RoleAdmin),
		map[string]string{"reply": "answer"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "upstream_failure" {
		t.Fatalf("expected upstream_failure code, got %q", resp.ErrorCode)
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t, &stubService{userErr: repository.ErrUserNotFound})

	rec := doRequest(t, env.handler, http.MethodPost, "/api/password/forgot", "", map[string]string{
		"email": "nobody@example.com",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
