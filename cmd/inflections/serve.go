package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"inflections/internal/newsletter"
	"inflections/internal/serve"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the magazine site",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := openBackend(cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		opt := serve.Options{
			Config:     cfg,
			Newsletter: newsletter.NewService(newsletter.NewStoreProvider(b.store, cfg.Newsletter.Table), log),
			Logger:     log,
		}
		if opt.Content, err = b.content(cfg, log); err != nil {
			return err
		}

		if b.bolt != nil && cfg.Store.Bolt.SeedDir != "" {
			dir := cfg.Store.Bolt.SeedDir
			if err := b.reseed(ctx, dir, log); err != nil {
				log.Warn("initial seed failed; serving existing data", "error", err)
			}
			if cfg.Store.Bolt.Watch {
				opt.WatchDir = dir
				opt.Reload = func(ctx context.Context) error { return b.reseed(ctx, dir, log) }
			}
		}

		s, err := serve.New(opt)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.ListenAndServe(ctx)
	},
}
