package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"linkage/internal/platform/config"
	"linkage/internal/platform/httpserver"
	"linkage/internal/platform/logger"
)

func newServeCommand() *cobra.Command {
	var migrateFirst bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background history workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, migrateFirst bool) error {
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	a, err := build(ctx, cfg, log, migrateFirst)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Addr, a.router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.publisher.Run(gctx)
	})
	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Run(gctx)
		})
	}
	g.Go(func() error {
		return httpserver.Serve(gctx, srv, cfg.ShutdownTimeout, log)
	})

	log.InfoContext(ctx, "linkage started",
		"addr", cfg.Addr,
		"store", a.storeKind,
		"history_sink", a.sinkKind,
	)
	if err := g.Wait(); err != nil {
		log.ErrorContext(ctx, "linkage stopped with error", "error", err)
		return err
	}
	log.InfoContext(ctx, "linkage stopped")
	return nil
}
