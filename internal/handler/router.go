package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/bmitiku/grocery-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина продуктов.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/test", h.APITest)

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/admin/login", h.AdminLogin)
		r.Post("/refresh", h.Refresh)

		r.Post("/contact", h.SubmitMessage)

		r.Post("/password/forgot", h.ForgotPassword)
		r.Post("/password/resend-otp", h.ForgotPassword)
		r.Post("/password/verify-otp", h.VerifyOTP)
		r.Post("/password/reset", h.ResetPassword)

		r.Get("/products", h.ListProducts)
		r.Get("/products/stats", h.ProductStats)
		r.Get("/products/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/user", h.CurrentUser)
			r.Post("/logout", h.Logout)
			r.Put("/profile", h.UpdateProfile)

			r.Post("/orders", h.PlaceOrder)
			r.Get("/orders", h.GetMyOrders)
			r.Get("/orders/{id}", h.GetMyOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(h.authMiddleware.RequireAdmin)

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/admin/dashboard", h.Dashboard)

			r.Get("/admin/users", h.ListUsers)
			r.Get("/admin/users/stats", h.UserStats)
			r.Post("/admin/users/{id}/make-admin", h.PromoteUser)
			r.Post("/admin/users/{id}/remove-admin", h.DemoteUser)
			r.Post("/admin/users/{id}/restrict", h.RestrictUser)
			r.Post("/admin/users/{id}/unrestrict", h.UnrestrictUser)
			r.Post("/admin/users/{id}/verify", h.VerifyUser)
			r.Post("/admin/users/{id}/reject", h.RejectUser)
			r.Delete("/admin/users/{id}", h.DeleteUser)

			r.Get("/admin/orders", h.ListOrders)
			r.Get("/admin/orders/stats", h.OrderStats)
			r.Put("/admin/orders/{id}/status", h.UpdateOrderStatus)

			r.Get("/admin/messages", h.ListMessages)
			r.Get("/admin/messages/stats", h.MessageStats)
			r.Put("/admin/messages/mark-all-read", h.MarkAllMessagesRead)
			r.Get("/admin/messages/{id}", h.GetMessage)
			r.Put("/admin/messages/{id}/toggle-read", h.ToggleMessageRead)
			r.Post("/admin/messages/{id}/reply", h.ReplyToMessage)
			r.Delete("/admin/messages/{id}", h.DeleteMessage)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
