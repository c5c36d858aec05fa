// Package cli wires the leaguesim commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/league"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/persistence"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/season"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Database string
	Config   string
	Dynasty  string
	Year     int
	Seed     int64
	Verbose  bool
}

// NewRootCommand creates the root command for the leaguesim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "leaguesim",
		Short: "Season calendar simulation for franchise leagues",
		Long: `leaguesim advances a dynasty through the league year: regular season,
playoffs, and the offseason stages, persisting every day durably.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "league.db", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "league config YAML (default: built-in 32-team league)")
	cmd.PersistentFlags().StringVar(&opts.Dynasty, "dynasty", "default", "dynasty identifier")
	cmd.PersistentFlags().IntVar(&opts.Year, "year", 2025, "starting season year for new dynasties")
	cmd.PersistentFlags().Int64Var(&opts.Seed, "seed", 1, "deterministic seed for game outcomes")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewAdvanceCommand(opts))
	cmd.AddCommand(NewSimToCommand(opts))
	cmd.AddCommand(NewMilestoneCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// openController loads the league config, opens the database, and resumes
// (or creates) the dynasty. The caller must Close the returned DB.
func openController(opts *RootOptions) (*season.Controller, *persistence.DB, error) {
	cfg := league.Default()
	if opts.Config != "" {
		loaded, err := league.Load(opts.Config)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	db, err := persistence.Open(opts.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	ctrl, err := season.NewController(db, cfg, opts.Dynasty, opts.Year, season.WithSeed(opts.Seed))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return ctrl, db, nil
}
