package migrate

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carrydesk/carrydesk/internal/infrastructure/config"
	"github.com/carrydesk/carrydesk/internal/infrastructure/database"
	"github.com/carrydesk/carrydesk/internal/infrastructure/migration"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply pending schema migrations or show which ones have run.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newUpCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the database schema up to date.`,
		RunE:  runUp,
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display every known migration and whether it has been applied.`,
		RunE:  runStatus,
	}
}

func initEnv(ctx context.Context) (*database.Connection, *migration.Manager, logger.Interface, error) {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.IsDebug()); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	conn := database.NewConnection(cfg.Database, log)
	if err := conn.Open(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db, err := conn.Get()
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	m, err := migration.NewManager(db, log)
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, fmt.Errorf("failed to create migration manager: %w", err)
	}
	return conn, m, log, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, m, log, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := m.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	log.Infow("database is up to date", "version", version)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, m, _, err := initEnv(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	statuses, err := m.Status(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATE\tAPPLIED AT")
	for _, s := range statuses {
		state, appliedAt := "pending", "-"
		if s.Applied {
			state = "applied"
			appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, s.Name, state, appliedAt)
	}
	return w.Flush()
}
