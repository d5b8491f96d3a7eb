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

	"github.com/clinicore/clinicore/internal/config"
	"github.com/clinicore/clinicore/internal/domain/auditevent"
	"github.com/clinicore/clinicore/internal/domain/interaction"
	"github.com/clinicore/clinicore/internal/domain/invite"
	"github.com/clinicore/clinicore/internal/domain/session"
	"github.com/clinicore/clinicore/internal/domain/summary"
	"github.com/clinicore/clinicore/internal/domain/tenant"
	"github.com/clinicore/clinicore/internal/domain/user"
	"github.com/clinicore/clinicore/internal/domain/voice"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicore-server",
		Short: "Clinicore multi-tenant clinical workflow API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

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

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant with its founding admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			adminEmail, _ := cmd.Flags().GetString("admin-email")
			adminPassword, _ := cmd.Flags().GetString("admin-password")
			if name == "" || adminEmail == "" || adminPassword == "" {
				return fmt.Errorf("--name, --admin-email and --admin-password are required")
			}

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

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			svc := tenant.NewService(tenant.NewRepoPG(pool), user.NewRepoPG(pool), logger)
			t, admin, err := svc.Create(ctx, tenant.CreateInput{
				Name:          name,
				AdminEmail:    adminEmail,
				AdminPassword: adminPassword,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Tenant created: %s (%s)\n", t.Name, t.ID)
			fmt.Printf("Admin user: %s (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant name")
	createCmd.Flags().String("admin-email", "", "Founding admin email")
	createCmd.Flags().String("admin-password", "", "Founding admin password")
	cmd.AddCommand(createCmd)

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

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Auth primitives
	verifier := auth.NewVerifier([]byte(cfg.JWTSecret))
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL())
	registry := auth.DefaultRegistry()

	// Audit sink. The service doubles as the audit.Recorder for middleware
	// and guards.
	auditSvc := auditevent.NewService(auditevent.NewRepoPG(pool), logger)

	permGuard := auth.NewPermissionGuard(registry, auditSvc, logger)
	tenantGuard := auth.NewTenantGuard(auditSvc, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request pipeline. Order is fixed: recovery, correlation, logging,
	// audit scope, identity, tenant presence. Permission checks hang off
	// individual routes.
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.Audit(auditSvc, logger))
	e.Use(auth.IdentityMiddleware(verifier, auditSvc, logger))
	e.Use(auth.TenantContextMiddleware(auth.PathPrefixSkipper(
		"/auth", "/invites/accept", "/health",
	)))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	root := e.Group("")

	// Repositories
	userRepo := user.NewRepoPG(pool)
	sessionRepo := session.NewRepoPG(pool)
	tenantRepo := tenant.NewRepoPG(pool)
	inviteRepo := invite.NewRepoPG(pool)
	interactionRepo := interaction.NewRepoPG(pool)
	transcriptRepo := voice.NewRepoPG(pool)
	summaryRepo := summary.NewRepoPG(pool)

	// Audit trail
	auditevent.NewHandler(auditSvc).RegisterRoutes(root, permGuard)

	// Authentication
	sessionSvc := session.NewService(userRepo, sessionRepo, issuer, cfg.TokenTTL(), auditSvc, logger)
	session.NewHandler(sessionSvc).RegisterRoutes(root)

	// Tenants and users
	tenantSvc := tenant.NewService(tenantRepo, userRepo, logger)
	tenant.NewHandler(tenantSvc, tenantGuard).RegisterRoutes(root, permGuard)

	userSvc := user.NewService(userRepo, registry, logger)
	user.NewHandler(userSvc, tenantGuard).RegisterRoutes(root, permGuard)

	inviteSvc := invite.NewService(inviteRepo, userRepo, registry, logger)
	invite.NewHandler(inviteSvc).RegisterRoutes(root, permGuard)

	// Interactions
	interactionSvc := interaction.NewService(interactionRepo, tenantGuard, logger)
	interaction.NewHandler(interactionSvc).RegisterRoutes(root, permGuard)

	// Voice transcription
	transcriber := voice.NewHTTPTranscriber(cfg.STTURL)
	voiceSvc := voice.NewService(transcriptRepo, interactionRepo, transcriber, tenantGuard, logger)
	voice.NewStreamHandler(voiceSvc, logger).RegisterRoutes(root, permGuard)

	// AI summaries and review
	summarizer := summary.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.AIModel)
	summarySvc := summary.NewService(summaryRepo, transcriptRepo, interactionRepo, summarizer, tenantGuard, logger)
	summary.NewHandler(summarySvc).RegisterRoutes(root, permGuard)

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
	logger.Info().Msg("server stopped")
	return nil
}
