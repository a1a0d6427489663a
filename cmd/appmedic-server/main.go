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

	"github.com/juanandresGH21/appmedic-api/internal/config"
	"github.com/juanandresGH21/appmedic-api/internal/domain/caregiver"
	"github.com/juanandresGH21/appmedic-api/internal/domain/medication"
	"github.com/juanandresGH21/appmedic-api/internal/domain/roles"
	"github.com/juanandresGH21/appmedic-api/internal/domain/schedule"
	"github.com/juanandresGH21/appmedic-api/internal/domain/user"
	"github.com/juanandresGH21/appmedic-api/internal/platform/auth"
	"github.com/juanandresGH21/appmedic-api/internal/platform/db"
	"github.com/juanandresGH21/appmedic-api/internal/platform/middleware"
)

// userResolver adapts the user service to the auth.ActorResolver interface,
// keeping the auth package free of domain imports.
type userResolver struct {
	svc *user.Service
}

func (r *userResolver) ResolveSubject(ctx context.Context, subject, email, name string) (auth.Actor, error) {
	u, err := r.svc.LinkExternal(ctx, subject, email, name)
	if err != nil {
		return auth.Actor{}, err
	}
	return auth.Actor{ID: u.ID, Role: string(u.Role)}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "appmedic-server",
		Short: "Medication adherence API server",
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
		Short: "Start the API server",
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
	if os.Getenv("ENV") == "development" {
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

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories and services
	userRepo := user.NewRepoPG(pool)
	medRepo := medication.NewRepoPG(pool)
	relationRepo := caregiver.NewRepoPG(pool)
	scheduleRepo := schedule.NewRepoPG(pool)

	userSvc := user.NewService(userRepo, pool)
	medSvc := medication.NewService(medRepo)
	relationMgr := caregiver.NewManager(relationRepo, userRepo, pool)
	authorizer := caregiver.NewAuthorizer(relationRepo, userRepo)
	scheduleSvc := schedule.NewService(scheduleRepo, medRepo, userRepo, authorizer, pool)
	roleRegistry := roles.NewRegistry(userRepo, relationMgr, authorizer, scheduleSvc)

	var tokens *auth.TokenIssuer
	if cfg.AuthSecret != "" {
		tokens = auth.NewTokenIssuer([]byte(cfg.AuthSecret), cfg.AuthIssuer, 24*time.Hour)
	}

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
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	userHandler := user.NewHandler(userSvc, tokens)

	// Registration and login work without a token.
	public := e.Group("/api/v1")
	userHandler.RegisterPublicRoutes(public)

	// Everything else requires an authenticated, resolved local user.
	api := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthSecret == "" {
		logger.Warn().Msg("running with development auth; identities come from request headers")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSecret),
		}))
		api.Use(auth.IdentityMiddleware(&userResolver{svc: userSvc}))
	}
	api.Use(middleware.Audit(logger))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Domain handlers
	userHandler.RegisterRoutes(api)
	medication.NewHandler(medSvc).RegisterRoutes(api)
	caregiver.NewHandler(relationMgr, authorizer).RegisterRoutes(api)
	schedule.NewHandler(scheduleSvc).RegisterRoutes(api)
	roles.NewHandler(roleRegistry).RegisterRoutes(api)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}
