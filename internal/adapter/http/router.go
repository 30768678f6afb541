package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	AdminHandler       *handler.AdminHandler
	HealthHandler      *handler.HealthHandler

	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	// Optional.
	Metrics            *metrics.Metrics
	MetricsHandler     http.Handler
	RateLimiter        *middleware.RateLimiter
	Logger             zerolog.Logger
	CORSAllowedOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.NewRecovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
			ExposedHeaders:   []string{middleware.IdempotencyReplayHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	idempotent := func(next http.Handler) http.Handler { return next }
	if cfg.IdempotencyStore != nil {
		idempotent = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/refresh-token", cfg.AuthHandler.RefreshToken)
			r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
			r.Post("/verify-otp", cfg.AuthHandler.VerifyOTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
			// Keys are scoped per caller, so this runs after authentication.
			r.Use(idempotent)

			r.Get("/me", cfg.AccountHandler.Me)

			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", cfg.TransactionHandler.Create)
				r.Get("/", cfg.TransactionHandler.List)
				r.Get("/category/{category}", cfg.TransactionHandler.ListByCategory)
				r.Get("/user/{id}", cfg.TransactionHandler.ListByUser)
				r.Get("/{id}", cfg.TransactionHandler.Get)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", cfg.AdminHandler.ListUsers)
				r.Patch("/users/{id}", cfg.AdminHandler.UpdateUser)
				r.Delete("/users/{id}", cfg.AdminHandler.DeleteUser)
				r.Patch("/users/{id}/freeze", cfg.AdminHandler.Freeze)
				r.Patch("/users/{id}/balance", cfg.AdminHandler.CorrectBalance)
				r.Get("/transactions", cfg.AdminHandler.ListTransactions)
				r.Patch("/transactions/{id}/approve", cfg.AdminHandler.ApproveTransaction)
			})
		})
	})

	return r
}
