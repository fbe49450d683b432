package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"streamcheck/internal/logging"
	"streamcheck/internal/proxy"
	"streamcheck/internal/tmdb"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the caching TMDB catalog proxy",
		Long: `Run the catalog proxy in the foreground.

The proxy holds the TMDB credentials and answers the /api/movies routes the
importer and the other streamcheck commands use. Only one proxy may run per
data directory. Press Ctrl+C to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}
}

func runServe(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireTMDB(); err != nil {
		return err
	}
	logger, err := ctx.loggerValue()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire proxy lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another streamcheck proxy is already running (lock %s)", cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	upstream, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TMDB.TimeoutSeconds) * time.Second}),
		tmdb.WithMaxRetries(cfg.TMDB.MaxRetries),
	)
	if err != nil {
		return err
	}

	server, err := proxy.New(cfg, upstream, logger)
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(commandBaseContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(signalCtx); err != nil {
		return err
	}
	defer server.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog proxy listening on http://%s\n", server.Addr())

	<-signalCtx.Done()
	logger.Info("catalog proxy stopping", logging.String("lock", cfg.LockPath()))
	return nil
}

func commandBaseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
