package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/calendar"
	"github.com/yangxiaofu/the-owners-sim-sub011/internal/season"
)

// NewSimToCommand creates the sim-to command.
func NewSimToCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim-to <date>",
		Short: "Simulate day by day up to a target date",
		Long: `Sim-to advances one day at a time until the dynasty calendar reaches the
target date. Stage transitions along the way are honored; the run always
lands exactly on the target.

Example:
  leaguesim sim-to 2026-03-12`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := calendar.ParseDate(args[0])
			if err != nil {
				return fmt.Errorf("invalid target date %q: %w", args[0], err)
			}

			ctrl, db, err := openController(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := ctrl.SimulateToDate(target)
			if err != nil {
				return err
			}
			printAdvancement(cmd, res)
			return nil
		},
	}
	return cmd
}

// NewMilestoneCommand creates the milestone command.
func NewMilestoneCommand(rootOpts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Simulate to the next milestone event",
		Long: `Milestone advances to the next notable calendar stop (trade deadline,
draft day, camp opening). When no milestone remains in the current stage
the command reports the distance to the stage boundary instead of
advancing. With --dry-run nothing advances; the command only reports
what would happen.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, db, err := openController(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			if dryRun {
				act, err := ctrl.NextMilestoneAction()
				if err != nil {
					return err
				}
				printAction(cmd, act)
				return nil
			}

			res, err := ctrl.SimulateToNextMilestone()
			if err != nil {
				return err
			}
			if res.Waiting {
				cmd.Printf("nothing to simulate to: next stage begins in %s\n",
					pluralDays(res.DaysUntilBoundary))
				return nil
			}
			printAdvancement(cmd, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the next action without advancing")
	return cmd
}

func printAction(cmd *cobra.Command, act season.MilestoneAction) {
	switch act.Kind {
	case season.ActionSimulateToMilestone:
		cmd.Printf("next: %s on %s (%s away)\n", act.Milestone.ID, act.Target, pluralDays(act.Days))
	case season.ActionStartNextPhase:
		cmd.Printf("next: new stage begins tomorrow\n")
	case season.ActionWait:
		cmd.Printf("next: new stage begins in %s\n", pluralDays(act.Days))
	default:
		cmd.Printf("next: waiting on results, no dated stop ahead\n")
	}
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%s days", humanize.Comma(int64(n)))
}
