package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/adnankhan0111/StrangerMeet/internal/config"
	"github.com/adnankhan0111/StrangerMeet/internal/hub"
	"github.com/adnankhan0111/StrangerMeet/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the matchmaking server",
	Long: `Run the matchmaking server.

Examples:
  strangermeet serve
  PORT=8080 strangermeet serve
  strangermeet serve --addr 127.0.0.1:3000 --allowed-origins https://strangermeet.example`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ln, err := net.Listen("tcp", cfg.ListenAddr())
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.ListenAddr(), err)
		}
		return serve(cmd.Context(), cfg, ln)
	},
}

func init() {
	config.AddServerFlags(serveCmd.Flags())
}

// serve runs the hub and the HTTP server on ln until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	h := hub.NewHub()

	hubCtx, stopHub := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		h.Run(hubCtx)
		close(hubDone)
	}()
	defer func() {
		stopHub()
		<-hubDone
	}()

	srv := &http.Server{
		Handler:           server.NewRouter(h, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting matchmaking server", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown; the hub
	// closes them when it stops.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
