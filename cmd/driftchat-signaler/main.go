package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"

	"github.com/driftchat/signaler/internal/config"
	"github.com/driftchat/signaler/internal/httpserver"
	"github.com/driftchat/signaler/internal/match"
	"github.com/driftchat/signaler/internal/metrics"
	"github.com/driftchat/signaler/internal/signaling"
)

var (
	// Set via -ldflags at build time. Values may be empty in local/dev builds.
	buildCommit = ""
	buildTime   = ""
)

func main() {
	// A local .env never overrides already-exported variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	logger.Info("starting driftchat-signaler",
		"listen_addr", cfg.ListenAddr,
		"mode", cfg.Mode,
		"max_clients", cfg.MaxClients,
		"ws_idle_timeout", cfg.WSIdleTimeout,
		"ws_ping_interval", cfg.WSPingInterval,
		"max_message_bytes", cfg.MaxMessageBytes,
		"max_messages_per_second", cfg.MaxMessagesPerSecond,
		"send_queue_size", cfg.SendQueueSize,
	)

	logStartupWarnings(logger, cfg)

	m := metrics.New()
	hub := match.NewHub(match.Config{
		MaxClients: cfg.MaxClients,
		Metrics:    m,
		Logger:     logger,
	})

	srv := httpserver.New(cfg, logger, resolveBuildInfo(buildCommit, buildTime), hub)

	sig := signaling.NewServer(signaling.Config{
		Hub:     hub,
		Metrics: m,
		Logger:  logger,

		IdleTimeout:          cfg.WSIdleTimeout,
		PingInterval:         cfg.WSPingInterval,
		MaxMessageBytes:      cfg.MaxMessageBytes,
		MaxMessagesPerSecond: cfg.MaxMessagesPerSecond,
		SendQueueSize:        cfg.SendQueueSize,
	})
	srv.Mux().Handle("GET /ws", srv.WithOriginPolicy(sig.ServeHTTP))

	srv.Mux().Handle("GET /metrics", m.Handler())

	ln, err := listenWithRetry(cfg.ListenAddr, logger)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.ListenAddr, "err", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		sig.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server exited", "err", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "err", err)
	}
	sig.Close()

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server exited after shutdown", "err", err)
		os.Exit(1)
	}
}

// listenWithRetry binds the listen address with bounded exponential backoff
// so fast restarts survive a lingering socket from the previous process.
func listenWithRetry(addr string, logger *slog.Logger) (net.Listener, error) {
	var ln net.Listener

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	err := backoff.RetryNotify(func() error {
		var err error
		ln, err = net.Listen("tcp", addr)
		return err
	}, bo, func(err error, next time.Duration) {
		logger.Warn("listen failed, retrying", "addr", addr, "err", err, "next_attempt_in", next)
	})
	if err != nil {
		return nil, err
	}
	return ln, nil
}

func resolveBuildInfo(commit, buildTime string) httpserver.BuildInfo {
	// Prefer ldflags-injected values (production builds) but fall back to the
	// Go build info when available (useful for `go run` / dev builds).
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if buildTime == "" {
					buildTime = s.Value
				}
			}
		}
	}

	return httpserver.BuildInfo{Commit: commit, BuildTime: buildTime}
}
