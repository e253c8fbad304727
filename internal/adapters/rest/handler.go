// Package rest exposes the recommender over HTTP.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ewilliams-labs/moodqueue/backend/internal/core/services"
)

// Config tunes request middleware.
type Config struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	CORSOrigins       []string
}

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc    *services.Recommender
	router chi.Router
	cfg    Config
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Recommender, cfg Config) *Handler {
	h := &Handler{
		svc:    svc,
		router: chi.NewRouter(),
		cfg:    cfg,
	}
	h.routes()
	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	r := h.router

	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(h.corsMiddleware())
	r.Use(h.rateLimitMiddleware())

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/next", h.Next)
	r.Get("/history", h.History)
	r.Post("/reset", h.Reset)
	r.Get("/playlist", h.Playlist)

	for _, route := range []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/skip", h.Skip},
		{"/finish", h.Finish},
		{"/like", h.Like},
		{"/dislike", h.Dislike},
		{"/favorite", h.Favorite},
	} {
		r.Get(route.path, route.handler)
		r.Post(route.path, route.handler)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorWithCode(w, http.StatusNotFound, "route not found", errCodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorWithCode(w, http.StatusMethodNotAllowed, "method not allowed", errCodeMethodNotAllowed)
	})
}

func (h *Handler) corsMiddleware() func(http.Handler) http.Handler {
	origins := h.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})
}

func (h *Handler) rateLimitMiddleware() func(http.Handler) http.Handler {
	if h.cfg.RateLimitDisabled || h.cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := h.cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		h.cfg.RateLimitRequests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeErrorWithCode(w, http.StatusTooManyRequests, "rate limit exceeded", errCodeRateLimited)
		}),
	)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "moodqueue is live"})
}
