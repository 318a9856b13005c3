package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ipcr/internal/domain/appraisal"
	"ipcr/internal/domain/auth"
	"ipcr/internal/domain/core"
	"ipcr/internal/domain/reports"
	"ipcr/internal/domain/settings"
	"ipcr/internal/platform/config"
	"ipcr/internal/platform/db"
	"ipcr/internal/platform/metrics"
	"ipcr/internal/transport/http/api"
	appraisalhandler "ipcr/internal/transport/http/handlers/appraisal"
	authhandler "ipcr/internal/transport/http/handlers/auth"
	corehandler "ipcr/internal/transport/http/handlers/core"
	reportshandler "ipcr/internal/transport/http/handlers/reports"
	settingshandler "ipcr/internal/transport/http/handlers/settings"
	"ipcr/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Pool    *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
}

// New connects the database, runs migrations and seeding when enabled,
// and assembles the full router. The returned App owns the pool.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	collector := metrics.New()
	perms := auth.Checker{}

	settingsSvc := settings.NewService(settings.NewStore(pool))
	appraisalSvc := appraisal.NewService(appraisal.NewStore(pool), settingsSvc)
	reportsSvc := reports.NewService(reports.NewStore(pool), settingsSvc, cfg.ReportsDir)
	coreSvc := core.NewService(core.NewStore(pool))
	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	idemStore := middleware.NewIdempotencyStore(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(metricsMiddleware(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authSvc).RegisterRoutes(r)
		corehandler.NewHandler(coreSvc, perms).RegisterRoutes(r)
		settingshandler.NewHandler(settingsSvc, perms).RegisterRoutes(r)
		appraisalhandler.NewHandler(appraisalSvc, perms, idemStore, collector).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, perms, collector).RegisterRoutes(r)
	})

	return &App{Config: cfg, Pool: pool, Router: router, Metrics: collector}, nil
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (a *App) Close() {
	a.Pool.Close()
}

func metricsMiddleware(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			collector.Record(recorder.status, time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
