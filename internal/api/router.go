package api

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"nilm-live/internal/auth"
)

// SetupRouter wires the dashboard, the event stream and the operator endpoints.
func SetupRouter(apiHandler *APIHandler, keys *auth.KeyChecker) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", apiHandler.ServeIndex)
	r.Get(apiHandler.streamPath, apiHandler.HandleWebSocket)
	r.Get("/health", apiHandler.HandleHealth)
	r.Get("/api/status", apiHandler.HandleStatus)

	r.Group(func(r chi.Router) {
		r.Use(keys.Middleware)
		r.Get("/api/sessions", apiHandler.HandleSessions)
		r.Method(http.MethodGet, "/metrics", apiHandler.metrics.Handler())
	})

	// Serve static files (CSS, JS)
	fs := http.FileServer(http.Dir(filepath.Clean(apiHandler.webDir)))
	r.Handle("/frontend/*", http.StripPrefix("/frontend/", fs))

	return r
}
