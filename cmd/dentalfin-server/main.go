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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/config"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/invoice"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/pipeline"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/pricing"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/reports"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/ckb"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/clinical"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/registrar"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/platform/auth"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/platform/db"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/platform/metrics"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/platform/middleware"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "dentalfin-server",
		Short: "Dental practice revenue cycle API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the revenue cycle API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Invoice store
	ctx := context.Background()
	var repo invoice.Repository
	var pool *pgxpool.Pool
	if cfg.StoreBackend == "postgres" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		repo = invoice.NewRepoPG(pool)
		logger.Info().Msg("connected to database")
	} else {
		repo = invoice.NewInMemoryRepo()
		logger.Warn().Msg("using in-memory invoice store; data will not survive restarts")
	}

	// Fee schedule
	fees := pricing.NewFeeSchedule(nil)
	if cfg.FeeScheduleFile != "" {
		fees, err = pricing.LoadFeeSchedule(cfg.FeeScheduleFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.FeeScheduleFile).Msg("failed to load fee schedule")
		}
		logger.Info().Str("file", cfg.FeeScheduleFile).Msg("fee schedule loaded")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Integrations and domain services
	clinicalClient := clinical.NewClient(cfg.ClinicalSystemURL, cfg.ClinicalToken, cfg.ClinicalTimeout, logger)
	registrarClient := registrar.NewClient(cfg.BillingSoftwareURL, cfg.RegistrarTimeout, logger)
	pricer := pricing.NewEngine(fees, logger)
	orch := pipeline.NewOrchestrator(clinicalClient, pricer, registrarClient, repo, logger, m)
	invoiceSvc := invoice.NewService(repo, logger)
	reportSvc := reports.NewService(repo, logger)

	var publisher reports.Publisher
	if cfg.CKBURL != "" {
		publisher = ckb.NewGateway(cfg.CKBURL, cfg.CKBToken, cfg.CKBTimeout, logger)
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, auth.APIKeyHeader},
	}))

	// Health and metrics live outside the authenticated group.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if pool != nil {
		e.GET("/health/db", db.HealthHandler(pool))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Authenticated API
	apiV1 := e.Group("/api/v1")
	switch cfg.ResolvedAuthMode() {
	case "development":
		apiV1.Use(auth.AllowAll())
	case "jwt":
		apiV1.Use(auth.JWTMiddleware([]byte(cfg.JWTSigningKey)))
	default:
		apiV1.Use(auth.APIKeyMiddleware(auth.APIKeys{
			DoctorKey: cfg.DoctorAPIKey,
			StaffKey:  cfg.StaffAPIKey,
		}))
	}

	// Billing pipeline and invoice tracking are staff operations.
	staffGroup := apiV1.Group("", auth.RequireRole(auth.RoleStaff))
	pipeline.NewHandler(orch).RegisterRoutes(staffGroup)
	invoice.NewHandler(invoiceSvc).RegisterRoutes(staffGroup)

	// Financial reports are doctor-only and sit behind a short TTL cache.
	reportGroup := apiV1.Group("", auth.RequireRole(auth.RoleDoctor))
	cacheStore := middleware.NewInMemoryCacheStore()
	cacheStore.StartCleanup(ctx, time.Minute)
	reportGroup.Use(middleware.ResponseCache(cacheStore, cfg.ReportCacheTTL))
	reports.NewHandler(reportSvc, publisher).RegisterRoutes(reportGroup)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("starting server")
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
	logger.Info().Msg("server stopped")
	return nil
}
