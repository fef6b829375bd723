package cli

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simonwood/canmon/internal/engine"
	"github.com/simonwood/canmon/internal/feeder"
	"github.com/simonwood/canmon/internal/web"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Listen string
	Demo   bool
}

// NewServeCommand creates the serve command: run the monitor engine and
// the web view until interrupted.
func NewServeCommand(root *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor and serve the web view",
		Long: `Runs the state/diff engine and serves the browser view.

With --demo, a built-in frame generator feeds the engine so the view can
be exercised without a CAN transport. Without it, the engine starts empty
and waits for an external feed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Listen = opts.Listen
			}
			if cmd.Flags().Changed("demo") {
				cfg.Demo = opts.Demo
			}

			monitor := engine.New(engine.WithRetention(cfg.Retention()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Demo {
				go feeder.New(monitor).Run(ctx)
			}

			slog.Info("canmon starting",
				"listen", cfg.Listen,
				"retention_ms", cfg.RetentionMS,
				"demo", cfg.Demo,
			)

			if err := web.NewServer(monitor).Run(ctx, cfg.Listen); err != nil {
				return WrapExitError(ExitFailure, "web server", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", ":8080", "HTTP listen address")
	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "feed the engine from the built-in demo generator")

	return cmd
}
