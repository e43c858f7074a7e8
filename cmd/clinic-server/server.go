package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/admin"
	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/history"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/ml/predict"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/middleware"
)

// stores holds the repositories for the configured backend. pool is nil for
// the CSV backend.
type stores struct {
	patients patient.Repository
	admins   admin.UserRepository
	history  history.Repository
	pool     *pgxpool.Pool
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.UsePostgres() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &stores{
			patients: patient.NewPGRepo(pool),
			admins:   admin.NewPGRepo(pool),
			history:  history.NewPGRepo(pool),
			pool:     pool,
		}, nil
	}

	patients, err := patient.NewCSVRepo(cfg.PatientsPath())
	if err != nil {
		return nil, err
	}
	admins, err := admin.NewCSVRepo(cfg.UsersPath())
	if err != nil {
		return nil, err
	}
	hist, err := history.NewCSVRepo(cfg.HistoryPath())
	if err != nil {
		return nil, err
	}
	return &stores{patients: patients, admins: admins, history: hist}, nil
}

func (s *stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *stores) backend() string {
	if s.pool != nil {
		return "postgres"
	}
	return "csv"
}

// newServer wires every handler onto a fresh echo instance. bundle may be nil,
// in which case prediction requests answer 503.
func newServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger, st *stores, bundle *predict.Bundle) (*echo.Echo, error) {
	adminSvc := admin.NewService(st.admins, logger)
	if err := adminSvc.EnsureDefault(ctx, cfg.DefaultAdminPassword); err != nil {
		return nil, err
	}
	patientSvc := patient.NewService(st.patients)
	historySvc := history.NewService(st.history)
	predictSvc := predict.NewService(bundle, historySvc, logger)
	sessions := auth.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health check
	checks := map[string]healthCheck{
		"model": func(context.Context) (interface{}, error) {
			return predictSvc.Status(), nil
		},
		"storage": func(context.Context) (interface{}, error) {
			return map[string]string{"backend": st.backend()}, nil
		},
	}
	if st.pool != nil {
		checks["database"] = db.Check(st.pool)
	}
	e.GET("/health", healthHandler(checks))

	// API groups
	public := e.Group("/api/v1")
	api := e.Group("/api/v1", auth.SessionMiddleware(sessions))

	auth.NewHandler(sessions, adminSvc, patientSvc, logger).RegisterRoutes(public)
	patient.NewHandler(patientSvc, historySvc, sessions).RegisterRoutes(public, api)
	predict.NewHandler(predictSvc, logger).RegisterRoutes(api)
	doctor.NewHandler(doctor.NewDirectory(cfg.DoctorDatasetPath)).RegisterRoutes(api)

	return e, nil
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()
	logger.Info().Str("backend", st.backend()).Msg("storage ready")

	bundle := predict.Load(cfg.ArtifactDir, logger)

	e, err := newServer(ctx, cfg, logger, st, bundle)
	if err != nil {
		return err
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
