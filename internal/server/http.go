package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	"github.com/gokatarajesh/mentors-mantra/internal/chat"
	"github.com/gokatarajesh/mentors-mantra/internal/config"
	"github.com/gokatarajesh/mentors-mantra/internal/logging"
	"github.com/gokatarajesh/mentors-mantra/internal/question"
	"github.com/gokatarajesh/mentors-mantra/internal/results"
	"github.com/gokatarajesh/mentors-mantra/internal/session"
)

// WSUpgrader handles WebSocket upgrades. Origins are checked by the CORS
// allow-list before the upgrade.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Check is a named readiness check such as a database ping.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handlers groups the feature endpoints mounted on the router.
type Handlers struct {
	AuthSvc   *auth.Service
	Auth      *auth.HTTPHandlers
	Sessions  *session.HTTPHandlers
	SessionWS *session.WSHandler
	Results   *results.HTTPHandler
	Catalog   *question.HTTPHandler
	Chat      *chat.HTTPHandler
}

// NewRouter wires middleware, health endpoints and feature routes.
func NewRouter(cfg *config.App, logger zerolog.Logger, h Handlers, checks []Check) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(logger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(30 * time.Second))

		api.Post("/auth/register", h.Auth.Register)
		api.Post("/auth/login", h.Auth.Login)
		api.Get("/catalog", h.Catalog.HandleCatalog)

		api.Group(func(pr chi.Router) {
			pr.Use(auth.RequireAuth(h.AuthSvc, logger))

			pr.Get("/me", h.Auth.Me)
			pr.Get("/results", h.Results.HandleHistory)
			pr.Post("/chat", h.Chat.HandleChat)

			pr.Route("/sessions", func(sr chi.Router) {
				sr.Post("/", h.Sessions.Start)
				sr.Get("/current", h.Sessions.Current)
				sr.Get("/{id}", h.Sessions.Get)
				sr.Put("/{id}/answers/{index}", h.Sessions.Answer)
				sr.Post("/{id}/submit", h.Sessions.Submit)
				sr.Get("/{id}/result", h.Sessions.Result)
				sr.Get("/{id}/questions/{index}/image", h.Sessions.Image)
			})
		})
	})

	r.Get("/ws/sessions/{id}", h.SessionWS.HandleWebSocket)
	return r
}

// NewHTTPServer wraps the router in an http.Server.
func NewHTTPServer(cfg *config.App, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func readiness(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				logger := logging.FromContext(r.Context())
				logger.Error().Err(err).Str("check", c.Name).Msg("dependency ping failed")
				report[c.Name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			report[c.Name] = "ok"
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
