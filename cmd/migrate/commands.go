package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"studio-site-backend/config"
	"studio-site-backend/database"
	"studio-site-backend/logging"
	"studio-site-backend/migrations"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrMigrationFailures is returned in strict mode when any step failed.
var ErrMigrationFailures = errors.New("one or more migration steps failed")

// env carries what the commands need once the root command has set up.
type env struct {
	loadConfig func() (*config.Config, error)
	connect    func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error)
	newSchema  func(db *gorm.DB) migrations.Schema
	recorder   func(db *gorm.DB) migrations.Recorder
	registry   func() []migrations.Migration

	cfg    *config.Config
	log    *zap.Logger
	db     *gorm.DB
	strict bool
}

func defaultEnv() *env {
	return &env{
		loadConfig: config.LoadConfig,
		connect: func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
			db, err := database.ConnectDatabase(cfg, log)
			if err != nil {
				return nil, err
			}
			if err := database.MigrateDatabase(db, log); err != nil {
				return nil, err
			}
			return db, nil
		},
		newSchema: func(db *gorm.DB) migrations.Schema { return database.NewSchema(db) },
		recorder:  func(db *gorm.DB) migrations.Recorder { return database.NewRunRecorder(db) },
		registry:  migrations.All,
	}
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Studio site schema migrations",
		Long:          "Apply, revert and inspect the users table migrations, and seed the initial admin account.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup()
		},
	}
	root.PersistentFlags().BoolVar(&e.strict, "strict", false, "exit non-zero when any step fails")

	root.AddCommand(upCommand(e), downCommand(e), listCommand(e), seedCommand(e))
	return root
}

func (e *env) setup() error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	log, err := logging.NewLogger(logging.FromConfig("migrate", cfg))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	db, err := e.connect(cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	e.cfg, e.log, e.db = cfg, log, db
	return nil
}

func (e *env) runner() *migrations.Runner {
	var opts []migrations.RunnerOption
	if e.recorder != nil {
		opts = append(opts, migrations.WithRecorder(e.recorder(e.db)))
	}
	return migrations.NewRunner(e.newSchema(e.db), e.log, opts...)
}

func upCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "up [migration-id...]",
		Short: "Apply every migration, or only the named ones, in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := selectMigrations(e.registry(), args)
			if err != nil {
				return err
			}
			summaries := e.runner().UpAll(cmd.Context(), selected)
			return e.report(cmd.OutOrStdout(), summaries)
		},
	}
}

func downCommand(e *env) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "down [migration-id]",
		Short: "Revert the latest migration, a named one, or all of them with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := e.registry()
			if len(registry) == 0 {
				return nil
			}

			var selected []migrations.Migration
			switch {
			case all && len(args) > 0:
				return errors.New("--all cannot be combined with a migration id")
			case all:
				selected = registry
			case len(args) == 1:
				var err error
				if selected, err = selectMigrations(registry, args); err != nil {
					return err
				}
			default:
				selected = registry[len(registry)-1:]
			}

			summaries := e.runner().DownAll(cmd.Context(), selected)
			return e.report(cmd.OutOrStdout(), summaries)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "revert every migration in reverse order")
	return cmd
}

func listCommand(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known migrations and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Migrations:")
			for _, m := range e.registry() {
				fmt.Fprintf(out, "  %s (%d up, %d down steps)\n", m.ID, len(m.Up), len(m.Down))
			}

			runs, err := database.LatestRuns(cmd.Context(), e.db, limit)
			if err != nil {
				return fmt.Errorf("load migration runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "\nNo recorded runs.")
				return nil
			}

			fmt.Fprintln(out, "\nRecent runs:")
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "  STARTED\tMIGRATION\tDIRECTION\tAPPLIED\tALREADY\tFAILED")
			for _, run := range runs {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t%d\t%d\n",
					run.StartedAt.Format("2006-01-02 15:04:05"), run.Migration, run.Direction,
					run.Applied, run.AlreadyApplied, run.Failed)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of recent runs to show")
	return cmd
}

func seedCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin user from ADMIN_EMAIL / ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			return database.SeedInitialAdmin(cmd.Context(), e.db, e.cfg, e.log)
		},
	}
}

// report prints one block per summary. Step failures only fail the command
// in strict mode.
func (e *env) report(out io.Writer, summaries []migrations.Summary) error {
	printSummaries(out, summaries)

	failed := 0
	for _, s := range summaries {
		failed += len(s.Failed())
	}
	if failed > 0 && e.strict {
		return fmt.Errorf("%w: %d failed", ErrMigrationFailures, failed)
	}
	return nil
}

func printSummaries(out io.Writer, summaries []migrations.Summary) {
	for _, s := range summaries {
		counts := s.Counts()
		fmt.Fprintf(out, "%s %s: %d applied, %d already applied, %d failed (%s)\n",
			s.Migration, s.Direction,
			counts[migrations.OutcomeApplied], counts[migrations.OutcomeAlreadyApplied], counts[migrations.OutcomeFailed],
			s.Duration.Round(time.Millisecond))
		for _, r := range s.Results {
			line := fmt.Sprintf("  %-32s %s", r.Step, r.Outcome)
			if reason := r.Reason(); reason != "" {
				line += ": " + reason
			}
			fmt.Fprintln(out, line)
		}
	}
}

func selectMigrations(registry []migrations.Migration, ids []string) ([]migrations.Migration, error) {
	if len(ids) == 0 {
		return registry, nil
	}

	selected := make([]migrations.Migration, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		m, ok := migrations.FindIn(registry, id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, m)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown migration(s): %s", strings.Join(unknown, ", "))
	}
	return selected, nil
}
