package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/{orderId}", handler.GetOrder)
	})
	r.Get("/users/{userId}/orders", handler.ListUserOrders)
	r.Post("/payments/confirm", handler.ConfirmPayment)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login/request-otp", handler.RequestOTP)
		r.Post("/login/verify-otp", handler.VerifyOTP)
		r.Post("/login/resend-otp", handler.ResendOTP)

		r.Group(func(r chi.Router) {
			r.Use(handler.requireAdmin)
			r.Post("/logout", handler.Logout)

			r.Get("/orders", handler.AdminListOrders)
			r.Get("/orders/feed", handler.OrderFeed)
			r.Patch("/orders/{orderId}", handler.AdminUpdateOrder)
			r.Delete("/orders/{orderId}", handler.AdminDeleteOrder)

			r.Get("/admins", handler.ListAdmins)
			r.Post("/admins", handler.AddAdmin)
			r.Delete("/admins/{email}", handler.RemoveAdmin)
		})
	})

	return &Server{Router: r}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
