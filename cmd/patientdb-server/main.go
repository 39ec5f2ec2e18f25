package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/patientdb/patientdb/internal/config"
	"github.com/patientdb/patientdb/internal/domain/patient"
	"github.com/patientdb/patientdb/internal/domain/report"
	"github.com/patientdb/patientdb/internal/platform/audit"
	"github.com/patientdb/patientdb/internal/platform/auth"
	"github.com/patientdb/patientdb/internal/platform/db"
	"github.com/patientdb/patientdb/internal/platform/metrics"
	"github.com/patientdb/patientdb/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "patientdb-server",
		Short: "Clinic visit record API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(verifyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Load the data files and report what they contain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store := patient.NewStore()
			if err := store.LoadVisits(cfg.DataFile); err != nil {
				return err
			}
			if err := store.LoadNotes(cfg.NotesFile); err != nil {
				return err
			}

			patients, visits, notes := store.Stats()
			fmt.Printf("data file:  %s\n", cfg.DataFile)
			fmt.Printf("notes file: %s\n", cfg.NotesFile)
			fmt.Printf("patients: %d, visits: %d, notes: %d\n", patients, visits, notes)

			if _, err := auth.NewCredentialsManager(cfg.CredentialsFile); err != nil {
				return fmt.Errorf("credentials check failed: %w", err)
			}
			fmt.Printf("credentials file ok: %s\n", cfg.CredentialsFile)
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Credential table: a broken table refuses to start, a partial one must
	// never authenticate anyone.
	creds, err := auth.NewCredentialsManager(cfg.CredentialsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load credentials")
	}
	logger.Info().Int("users", creds.Users()).Msg("credential table loaded")

	// Record store: both flat files load into one store, merged on the
	// (Patient_ID, Visit_ID) key.
	store := patient.NewStore()
	if err := store.LoadVisits(cfg.DataFile); err != nil {
		logger.Fatal().Err(err).Msg("failed to load visit data")
	}
	if err := store.LoadNotes(cfg.NotesFile); err != nil {
		logger.Fatal().Err(err).Msg("failed to load visit notes")
	}
	patients, visits, notes := store.Stats()
	logger.Info().
		Int("patients", patients).
		Int("visits", visits).
		Int("notes", notes).
		Msg("record store loaded")

	// Usage log: flat file by default, Postgres when configured.
	ctx := context.Background()
	var recorder audit.Recorder = audit.NewCSVRecorder(cfg.UsageLogFile, logger)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		pg := audit.NewPGRecorder(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare usage_log table")
		}
		recorder = pg
		logger.Info().Msg("usage log backed by postgres")
	}

	svc := patient.NewService(store, cfg.DataFile, cfg.NotesFile, cfg.DataColumns, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health and metrics
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/metrics", metrics.Handler())

	// Login is the only unauthenticated API route.
	public := e.Group("/api/v1")
	authHandler := auth.NewHandler(creds, []byte(cfg.JWTSecret),
		time.Duration(cfg.JWTTTLMinutes)*time.Minute, recorder)
	authHandler.RegisterRoutes(public)

	// Everything else requires a session token.
	api := e.Group("/api/v1", auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	patient.NewHandler(svc).RegisterRoutes(api, recorder)
	report.NewHandler(report.NewService(store)).RegisterRoutes(api, recorder)
	audit.NewHandler(recorder).RegisterRoutes(api, auth.RequireRole(auth.RoleAdmin))

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	return nil
}
