package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/carrydesk/carrydesk/internal/infrastructure/cache"
	"github.com/carrydesk/carrydesk/internal/infrastructure/config"
	"github.com/carrydesk/carrydesk/internal/infrastructure/database"
	"github.com/carrydesk/carrydesk/internal/infrastructure/migration"
	"github.com/carrydesk/carrydesk/internal/infrastructure/scheduler"
	httpRouter "github.com/carrydesk/carrydesk/internal/interfaces/http"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/goroutine"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

var (
	env         string
	configPath  string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the store service",
		Long:  `Open the store, apply pending migrations and run the health supervisor, vouch reset jobs and ops endpoints until interrupted.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "Apply pending migrations on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.IsDebug()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	log := logger.NewLogger()
	log.Infow("starting server",
		"environment", env,
		"driver", cfg.Database.Driver,
		"cache_backend", cfg.Cache.Backend,
		"timezone", cfg.Server.Timezone,
	)

	gin.SetMode(mapEnvToGinMode(cfg.Server.Mode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queryCache, err := cache.NewFromConfig(ctx, cfg.Cache, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer func() {
		if err := queryCache.Close(); err != nil {
			log.Warnw("failed to close cache", "error", err)
		}
	}()

	conn := database.NewConnection(cfg.Database, log)
	supervisor := database.NewSupervisor(conn, queryCache, cfg.Supervisor, log)
	supervisor.OnDisconnect(func(err error) {
		if err != nil {
			log.Warnw("store connection lost", "error", err)
		}
	})

	if err := supervisor.EnsureConnected(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := handleMigrations(ctx, conn, log); err != nil {
		return err
	}

	service := newService(conn, queryCache, cfg.Quota, log)

	sched, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if cfg.Vouch.ResetEnabled {
		if err := sched.RegisterVouchResetJobs(service, cfg.Vouch.WeeklyResetCron, cfg.Vouch.MonthlyResetCron); err != nil {
			return fmt.Errorf("failed to register vouch reset jobs: %w", err)
		}
	}
	if err := supervisor.Start(ctx, sched); err != nil {
		return fmt.Errorf("failed to start supervisor: %w", err)
	}
	sched.Start()

	var srv *http.Server
	if cfg.Server.OpsAddr != "" {
		router := httpRouter.NewRouter(supervisor, cfg.Supervisor.PingTimeout(), log)
		router.SetupRoutes()

		srv = &http.Server{
			Addr:         cfg.Server.OpsAddr,
			Handler:      router.GetEngine(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		goroutine.SafeGo(log, "ops-http", func() {
			log.Infow("ops endpoint listening", "address", cfg.Server.OpsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("ops endpoint failed", "error", err)
			}
		})
	}

	<-ctx.Done()
	log.Infow("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("ops endpoint: %w", err))
		}
	}
	if err := sched.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := supervisor.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("supervisor: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		log.Errorw("server shutdown with errors", "error", err)
		return err
	}
	log.Infow("server exited gracefully")
	return nil
}

func handleMigrations(ctx context.Context, conn *database.Connection, log logger.Interface) error {
	db, err := conn.Get()
	if err != nil {
		return err
	}
	m, err := migration.NewManager(db, log)
	if err != nil {
		return fmt.Errorf("failed to create migration manager: %w", err)
	}

	if !autoMigrate {
		version, err := m.Version(ctx)
		if err != nil {
			log.Warnw("failed to check migration status", "error", err)
			return nil
		}
		log.Infow("current migration version", "version", version)
		return nil
	}

	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return gin.ReleaseMode
	case "test", "testing":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
