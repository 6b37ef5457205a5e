package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	blogapi "github.com/dmelnik/twin-backend/internal/api/blog"
	chatapi "github.com/dmelnik/twin-backend/internal/api/chat"
	"github.com/dmelnik/twin-backend/internal/api/docs"
	"github.com/dmelnik/twin-backend/internal/api/middleware"
	"github.com/dmelnik/twin-backend/internal/config"
	"github.com/dmelnik/twin-backend/internal/entity"
	"github.com/dmelnik/twin-backend/internal/pkg/ratelimit"
	"github.com/dmelnik/twin-backend/internal/pkg/response"
)

// Limiters holds the fixed-window counters shared across routes.
type Limiters struct {
	ChatPerIP  *ratelimit.Limiter
	ChatGlobal *ratelimit.Limiter
	Read       *ratelimit.Limiter
}

// NewLimiters builds the limiter set from config.
func NewLimiters(cfg config.RateLimitConfig) *Limiters {
	return &Limiters{
		ChatPerIP:  ratelimit.New(cfg.ChatPerIP, cfg.Window),
		ChatGlobal: ratelimit.New(cfg.ChatGlobal, cfg.Window),
		Read:       ratelimit.New(cfg.ReadPerIP, cfg.Window),
	}
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(chatHandler *chatapi.Handler, blogHandler *blogapi.Handler, limiters *Limiters, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.CORS(cfg.FrontendURL))        // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Root info endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]any{
			"name":   "twin-backend",
			"status": "running",
			"endpoints": map[string]string{
				"chat":   "/api/chat",
				"bio":    "/api/chat/bio",
				"blog":   "/api/blog/topics",
				"health": "/health",
				"docs":   "/docs",
			},
		})
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// The global counter runs before the per-IP one so a saturated server
	// does not consume per-caller budget.
	clientIP := middleware.ClientIP(cfg.TrustProxyHeaders)
	chatLimits := []func(http.Handler) http.Handler{
		middleware.RateLimit(limiters.ChatGlobal, middleware.GlobalKey, entity.ChatResponse{
			Response: "The server is experiencing high traffic. Please try again in a few minutes.",
		}),
		middleware.RateLimit(limiters.ChatPerIP, clientIP, entity.ChatResponse{
			Response: fmt.Sprintf("You've sent too many messages. Please wait a bit before trying again. (Limit: %d messages per hour)", cfg.RateLimitCfg.ChatPerIP),
		}),
	}
	readLimit := middleware.RateLimit(limiters.Read, clientIP, response.ErrorResponse{
		Error: "Too many requests. Please try again later.",
	})

	// Register routes
	chatapi.RegisterRoutes(r, chatHandler, chatLimits, readLimit)
	blogapi.RegisterRoutes(r, blogHandler, readLimit)

	return r
}
