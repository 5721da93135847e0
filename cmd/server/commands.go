package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/EytanA1983/Home-Organization-App-sub001/internal/clock"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/config"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/domain/recurrence"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/logger"
	"github.com/EytanA1983/Home-Organization-App-sub001/internal/platform/migrations"
)

// errRuleInvalid makes the validate command exit non-zero after printing
// the result.
var errRuleInvalid = errors.New("recurrence rule is invalid")

type rootOptions struct {
	configFile string
}

// load reads the configuration and sets up the default logger.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("maintenance_enabled", cfg.Maintenance.Enabled))
	return cfg, l, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "homeorg",
		Short:         "Recurring household task server",
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newMaintainCommand(opts),
		newValidateCommand(),
	)
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, background workers and maintenance scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			if migrate {
				if err := migrations.Run(ctx, db, cfg.Database.Driver, migrations.CommandUp, log); err != nil {
					_ = db.Close()
					return fmt.Errorf("failed to apply migrations: %w", err)
				}
			}

			app, err := newApplication(cfg, log, db, clock.System{})
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|reset]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{migrations.CommandUp, migrations.CommandDown, migrations.CommandStatus, migrations.CommandVersion, migrations.CommandReset},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return migrations.Run(cmd.Context(), db, cfg.Database.Driver, args[0], log)
		},
	}
}

func newMaintainCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Run one materialize-and-prune pass and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			app, err := newApplication(cfg, log, db, clock.System{})
			if err != nil {
				_ = db.Close()
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.cleanup(ctx)

			report, err := app.maintenance.RunOnce(ctx)
			if report != nil {
				printReport(cmd, report)
			}
			return err
		},
	}
}

func newValidateCommand() *cobra.Command {
	var (
		start string
		count int
	)
	cmd := &cobra.Command{
		Use:   "validate RULE",
		Short: "Check a recurrence rule and preview its occurrences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := time.Now().UTC()
			if start != "" {
				t, err := time.Parse(time.RFC3339, start)
				if err != nil {
					return fmt.Errorf("invalid --start %q: %w", start, err)
				}
				from = t
			}

			result := recurrence.Validate(args[0], from, count)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Valid {
				return errRuleInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first occurrence as RFC 3339 (default now)")
	cmd.Flags().IntVar(&count, "count", recurrence.DefaultPreviewCount, "number of occurrences to preview")
	return cmd
}
