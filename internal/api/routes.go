package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/workbooks-sync/internal/config"
	"github.com/ignite/workbooks-sync/internal/pkg/httputil"
)

// SetupRoutes builds the router: health endpoints unauthenticated, form
// endpoints behind the shared-secret action token.
func SetupRoutes(h *Handlers, hc *HealthChecker, cfg config.APIConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Action-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (no auth required)
	if hc != nil {
		r.Get("/health", hc.HandleHealth)
		r.Get("/health/live", hc.HandleLiveness)
		r.Get("/health/ready", hc.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		// Autocomplete is read-only and feeds public form widgets.
		r.Get("/organisations/autocomplete", h.HandleOrganisationAutocomplete)

		// Mutating endpoints require the shared-secret action token.
		r.Group(func(r chi.Router) {
			r.Use(requireActionToken(cfg.ActionToken))
			r.Post("/register", h.HandleRegister)
			r.Post("/register/event", h.HandleRegisterEvent)
			r.Post("/profile/update", h.HandleProfileUpdate)
			r.Post("/organisations/resync", h.HandleOrganisationResync)
		})
	})

	return r
}

// requireActionToken rejects mutating requests that don't carry the shared
// secret, either in the X-Action-Token header or a "token" form field. An
// empty configured token disables the check (dev setups).
func requireActionToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if token == "" {
				next.ServeHTTP(w, req)
				return
			}

			presented := req.Header.Get("X-Action-Token")
			if presented == "" {
				presented = req.URL.Query().Get("token")
			}
			if presented == "" && req.Header.Get("Content-Type") != "application/json" {
				if err := req.ParseForm(); err == nil {
					presented = req.PostForm.Get("token")
				}
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				httputil.Failure(w, http.StatusUnauthorized, "Invalid or missing token")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
