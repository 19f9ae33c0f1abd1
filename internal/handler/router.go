package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/crowdfund/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.With(h.authMiddleware.Middleware).Get("/me", h.Me)
	})

	r.Route("/api/campaigns", func(r chi.Router) {
		r.Get("/", h.ListCampaigns)
		r.Get("/{id}", h.GetCampaign)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/", h.CreateCampaign)
			r.Put("/{id}", h.UpdateCampaign)
			r.Delete("/{id}", h.DeleteCampaign)
		})
	})

	r.Route("/api/donations", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Post("/create-order", h.CreateOrder)
		r.Post("/verify", h.VerifyPayment)
		r.Get("/my-donations", h.MyDonations)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)
		r.Use(custommiddleware.RequireAdmin)

		r.Get("/stats", h.Stats)

		r.Get("/users", h.ListUsers)
		r.Put("/users/{id}/ban", h.ToggleBan)
		r.Delete("/users/{id}", h.DeleteUser)

		r.Get("/campaigns", h.ListAllCampaigns)
		r.Put("/campaigns/{id}/status", h.ModerateCampaign)
		r.Delete("/campaigns/{id}", h.AdminDeleteCampaign)

		r.Get("/donations", h.ListAllDonations)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
