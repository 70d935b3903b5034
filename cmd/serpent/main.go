package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/serpent/api"
	"github.com/use-agent/serpent/cache"
	"github.com/use-agent/serpent/cleaner"
	"github.com/use-agent/serpent/config"
	"github.com/use-agent/serpent/fetch"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("serpent starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"scrollLimit", cfg.Search.ScrollLimit,
	)

	// ── 3. Initialise fetch dispatcher ──────────────────────────────
	// HTTP first; the browser fetcher joins the race after a staged delay
	// and takes over permanently for hosts where plain HTTP fails.
	browserFetcher := fetch.NewBrowserFetcher(cfg.Browser)
	defer browserFetcher.Close()

	memory := fetch.NewHostMemory(24 * time.Hour)
	defer memory.Stop()

	dispatcher := fetch.NewDispatcher(
		[]fetch.Fetcher{fetch.NewHTTPFetcher(), browserFetcher},
		cfg.Fetch.EscalationDelays,
		memory,
	)
	slog.Info("fetch dispatcher ready", "delays", cfg.Fetch.EscalationDelays)

	// ── 4. Initialise cleaner and cache ─────────────────────────────
	cl := cleaner.NewCleaner()
	cc := cache.New(cfg.Cache.MaxEntries)

	// ── 5. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(api.Deps{
		Config:     cfg,
		Cache:      cc,
		Dispatcher: dispatcher,
		Cleaner:    cl,
	})

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("serpent stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
