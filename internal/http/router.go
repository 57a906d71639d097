package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Orders   *OrderHandler
	Payments *PaymentHandler
	SoupPlan *SoupPlanHandler
	Comments *CommentHandler
	Auth     *AuthHandler
}

// NewRouter mounts all routes. Staff endpoints sit behind the bearer-token
// middleware; order creation, the soup plan read, comments and the provider
// webhook stay public.
func NewRouter(h Handlers, validator TokenValidator, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.CreateOrder)
			r.Get("/{order_id}", h.Orders.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(validator))
				r.Get("/", h.Orders.ListOrders)
			})
		})

		r.Route("/payment", func(r chi.Router) {
			r.Post("/checkout-session", h.Payments.CreateCheckoutSession)
			r.Post("/webhook", h.Payments.HandleWebhook)
		})

		r.Route("/soupplan", func(r chi.Router) {
			r.Get("/", h.SoupPlan.GetPlan)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(validator))
				r.Put("/", h.SoupPlan.UpdatePlan)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/", h.Comments.CreateComment)

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(validator))
				r.Get("/", h.Comments.ListComments)
			})
		})
	})

	return r
}
