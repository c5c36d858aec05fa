package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yangxiaofu/the-owners-sim-sub011/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dynasty read model over HTTP",
		Long: `Serve exposes the dynasty's status, events, and standings as JSON.
Advancement endpoints are enabled only when LEAGUESIM_ADMIN_KEY is set;
requests to them carry the key as a bearer token.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, db, err := openController(rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			srv := &api.Server{
				Ctrl:     ctrl,
				DB:       db,
				Dynasty:  rootOpts.Dynasty,
				Port:     port,
				AdminKey: os.Getenv("LEAGUESIM_ADMIN_KEY"),
			}
			srv.Start()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			s := <-sig
			slog.Info("shutting down", "signal", s.String())
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP listen port")
	return cmd
}
