package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xeromcp/internal/app"
)

type rootOptions struct {
	cfg    app.Config
	logger *zap.Logger
	// logged is set once the production logger exists.
	logged bool
}

func main() {
	opts := rootOptions{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "xero-mcp",
		Short:         "Xero accounting API exposed as MCP tools",
		Version:       app.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			log, err := app.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = log
			opts.logged = true
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()
			return run(ctx, opts)
		},
	}
	app.RegisterFlags(root.PersistentFlags())

	if err := root.Execute(); err != nil {
		if !opts.logged {
			fmt.Fprintln(os.Stderr, "xero-mcp:", err)
			os.Exit(1)
		}
		opts.logger.Fatal("command failed", zap.Error(err))
	}
}

func run(ctx context.Context, opts rootOptions) (err error) {
	defer func() {
		if r := recover(); r != nil {
			opts.logger.Fatal("panic escaped run loop", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	application, err := app.InitializeApplication(opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
