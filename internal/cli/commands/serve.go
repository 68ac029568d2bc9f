package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/onehub-labs/onehub/internal/api"
	"github.com/onehub-labs/onehub/internal/config"
	"github.com/onehub-labs/onehub/internal/llm"
)

// NewServeCommand creates the API server command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API server",
		Long: `Run the local JSON API server the GUI shell talks to.

The server binds to the configured listen address and stops on
SIGINT or SIGTERM. When a config file is in use, changes to it are
picked up without a restart.`,
		Example: `  onehub serve
  onehub serve --addr 127.0.0.1:4520`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := cmdCtx.Logger
			server := api.NewServer(api.Config{
				Addr:      cmdCtx.Cfg.Server.Addr,
				Store:     cmdCtx.Store,
				Sessions:  cmdCtx.Sessions,
				Providers: llm.NewManager(cmdCtx.Store, logger),
				Logger:    logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eg, egctx := errgroup.WithContext(ctx)

			eg.Go(func() error {
				return server.Serve(egctx)
			})

			// The listen address and store path are fixed at startup; a
			// reload only adjusts what can change in place.
			if path := config.ConfigFileUsed(); path != "" {
				eg.Go(func() error {
					return config.Watch(egctx, path, logger, func(next *config.Config) {
						logger.Info("configuration reloaded",
							"path", path,
							"log_level", next.LogLevel,
							"session_max_per_config", next.Session.MaxPerConfig)
						cmdCtx.Sessions.SetOptions(next.SessionOptions())
					})
				})
			}

			return eg.Wait()
		},
	}

	return cmd
}
