package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewAdvanceCommand creates the advance command.
func NewAdvanceCommand(rootOpts *RootOptions) *cobra.Command {
	var week bool

	cmd := &cobra.Command{
		Use:   "advance [days]",
		Short: "Advance the dynasty calendar by N days (default 1)",
		Long: `Advance simulates complete days: each day executes the events scheduled
on it before the calendar moves on. With --week, advancement runs up to
seven days but stops early if the season moves to a new stage.

Example:
  leaguesim advance --db dynasty.db
  leaguesim advance 14 --dynasty rebuild
  leaguesim advance --week`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("days must be a positive integer, got %q", args[0])
				}
				days = n
			}
			if week && len(args) == 1 {
				return fmt.Errorf("--week and an explicit day count are mutually exclusive")
			}

			ctrl, db, err := openController(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			if week {
				res, err := ctrl.AdvanceWeek()
				if err != nil {
					return err
				}
				printAdvancement(cmd, res)
				return nil
			}

			res, err := ctrl.SimulateToDate(ctrl.State().Date.AddDays(days))
			if err != nil {
				return err
			}
			printAdvancement(cmd, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&week, "week", false, "advance a week block, stopping at stage boundaries")
	return cmd
}
