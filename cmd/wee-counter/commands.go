package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weegigs/wee-counter-go/support"
)

var (
	envFiles []string
	addr     string
)

func execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "wee-counter",
		Short:         "Serve the counter pages",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	root.AddCommand(serveCmd())
	return root.ExecuteContext(ctx)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := support.LoadConfig(envFiles...)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides COUNTER_HTTP_ADDR")
	return cmd
}

func serve(ctx context.Context, cfg support.Config) error {
	shutdownTracing, err := support.InstallTracing(ctx, cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("install tracing: %w", err)
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	app, cleanup, err := initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()

	return app.run(ctx)
}
