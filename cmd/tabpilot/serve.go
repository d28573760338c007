package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabops/tabpilot/internal/daemon"
	"github.com/tabops/tabpilot/internal/server"
)

// ServeCmd runs the local API server plus the scheduled daemon.
func ServeCmd() *cobra.Command {
	var (
		addr     string
		schedule string
		noDaemon bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local API and run scheduled AutoPilot passes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !noDaemon {
				d := daemon.New(a.engine, daemon.WithSchedule(schedule))
				if err := d.Start(ctx); err != nil {
					return err
				}
				defer d.Stop()
			}

			srv := server.New(a.engine, a.gateway)
			if err := srv.Run(ctx, addr); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8990", "listen address for the local API")
	cmd.Flags().StringVar(&schedule, "schedule", daemon.DefaultSchedule, "cron schedule for background passes")
	cmd.Flags().BoolVar(&noDaemon, "no-daemon", false, "serve the API without scheduled passes")
	return cmd
}
