package cli

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/season"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the dynasty's current date, stage, and standings",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, db, err := openController(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			st := ctrl.State()
			cmd.Printf("dynasty %s — %s\n", st.Dynasty, st.Date)
			cmd.Printf("  stage:  %s (season %d)\n", st.Phase.Name(), st.Year)
			if st.Week > 0 {
				cmd.Printf("  week:   %d\n", st.Week)
			}
			if st.Round > 0 {
				cmd.Printf("  round:  %s round of the playoffs\n", humanize.Ordinal(st.Round))
			}

			records, err := db.Standings(st.Dynasty)
			if err != nil {
				return err
			}
			if len(records) > 0 {
				cmd.Printf("  standings:\n")
				for _, rec := range records {
					cmd.Printf("    %-4s %d-%d-%d\n", rec.TeamID, rec.Wins, rec.Losses, rec.Ties)
				}
			}

			if act, err := ctrl.NextMilestoneAction(); err == nil {
				printAction(cmd, act)
			}
			return nil
		},
	}
	return cmd
}

func printAdvancement(cmd *cobra.Command, res season.AdvancementResult) {
	cmd.Printf("advanced %s to %s — %s", pluralDays(res.DaysAdvanced), res.Date, res.Phase.Name())
	if res.Week > 0 {
		cmd.Printf(", week %d", res.Week)
	}
	cmd.Printf("\n")

	executed := len(res.EventsExecuted)
	if executed > 0 {
		cmd.Printf("  %d events executed\n", executed)
	}
	for _, f := range res.Failures {
		cmd.Printf("  FAILED %s: %s\n", f.EventID, f.Reason)
	}
	if res.Transitioned {
		cmd.Printf("  entered %s\n", res.Phase.Name())
	}
	if res.Milestone != nil {
		cmd.Printf("  reached milestone %s\n", res.Milestone.ID)
	}
}
