package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/scheduling"
)

type RouterConfig struct {
	Service SchedulingService
	Users   UserStore
	Issuer  *auth.TokenIssuer
	AuthMW  *auth.Middleware
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/register", registerHandler(cfg.Users, cfg.Issuer))
		r.Post("/auth/login", loginHandler(cfg.Users, cfg.Issuer))

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthMW.Authenticate)

			r.Get("/users/doctors", listDoctorsHandler(cfg.Service))

			r.Get("/appointments", listAppointmentsHandler(cfg.Service))
			r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
			r.Put("/appointments/{id}", updateAppointmentHandler(cfg.Service))
			r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Service))

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthMW.RequireRole(scheduling.RolePatient))
				r.Post("/appointments", createAppointmentHandler(cfg.Service))
			})
		})
	})

	return r
}
