package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"echelon-backend/internal/config"
	"echelon-backend/internal/handlers"
	"echelon-backend/internal/metrics"
	"echelon-backend/internal/middleware"
	"echelon-backend/internal/websocket"
)

// Deps carries what the router mounts. A nil handler means its feature is
// unconfigured; its routes then answer 503 naming the missing keys.
type Deps struct {
	Logger         zerolog.Logger
	FrontendURL    string
	ChatRatePerMin int

	JWTAuth       *middleware.JWTAuth
	Chat          *handlers.ChatHandler
	Conversations *handlers.ConversationHandler
	Tasks         *handlers.TaskHandler
	Analytics     *handlers.AnalyticsHandler
	Hub           *websocket.Hub

	StoreMissing    []string
	RealtimeMissing []string
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(metrics.Middleware(routePattern))
	r.Use(middleware.CORS(d.FrontendURL))

	// Chat rate limiter (per principal, or per IP for anonymous callers)
	chatLimiter := middleware.NewRateLimiter(d.ChatRatePerMin, time.Minute)
	chatLimiter.Reject = handlers.RejectChat

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	chat := func(r chi.Router) {
		r.Use(d.JWTAuth.Optional)
		r.Use(chatLimiter.Middleware)
		r.Post("/", d.Chat.Send)
	}
	// Legacy path kept for existing web clients.
	r.Route("/api/ai-chat", chat)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ai-chat", chat)

		r.Group(func(r chi.Router) {
			r.Use(d.JWTAuth.Middleware)

			r.Get("/me", handlers.Me)

			// ──── Conversation Routes ────
			r.Route("/conversations", func(r chi.Router) {
				if d.Conversations == nil {
					r.HandleFunc("/*", handlers.Unavailable(config.FeatureStore, d.StoreMissing))
					return
				}
				r.Get("/", d.Conversations.List)
				r.Post("/", d.Conversations.Create)
				r.Get("/{id}", d.Conversations.Get)
				r.Put("/{id}/messages", d.Conversations.UpdateMessages)
				r.Delete("/{id}", d.Conversations.Delete)
			})

			// ──── Task Routes ────
			r.Route("/tasks", func(r chi.Router) {
				if d.Tasks == nil {
					r.HandleFunc("/*", handlers.Unavailable(config.FeatureStore, d.StoreMissing))
					return
				}
				r.Get("/", d.Tasks.List)
				r.Post("/", d.Tasks.Create)
				r.Put("/{id}", d.Tasks.Update)
				r.Post("/{id}/toggle", d.Tasks.Toggle)
				r.Delete("/{id}", d.Tasks.Delete)
			})

			// ──── Analytics ────
			if d.Analytics != nil {
				r.Get("/analytics", d.Analytics.Get)
			} else {
				r.Get("/analytics", handlers.Unavailable(config.FeatureStore, d.StoreMissing))
			}
		})

		// ──── WebSocket ────
		if d.Hub != nil {
			r.Get("/ws", d.Hub.HandleWebSocket)
		} else {
			r.Get("/ws", handlers.Unavailable(config.FeatureRealtime, d.RealtimeMissing))
		}
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
