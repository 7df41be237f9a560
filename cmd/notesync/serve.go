package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/notesync/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket API",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		srv := server.New(a.engine, a.cache, a.registry, a.identity, logger)
		go srv.RateLimiter().Run(ctx, 5*time.Minute)

		httpServer := &http.Server{
			Addr:         cfg.Addr(),
			Handler:      srv.Router(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("notesync listening", "addr", httpServer.Addr, "device", a.device, "remote", cfg.Remote.Kind)
			fmt.Fprintf(cmd.OutOrStdout(), "notesync running at http://localhost%s\n", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
