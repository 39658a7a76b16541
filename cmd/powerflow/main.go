package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raterudder/powerflow/pkg/hass"
	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/metrics"
	"github.com/raterudder/powerflow/pkg/server"
	"github.com/raterudder/powerflow/pkg/storage"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// init packages
	h := hass.Configured()
	s := storage.Configured()
	rec := metrics.New()

	// init server
	srv := server.Configured(h, s, rec)

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	log.SetDefaultLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := h.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid home assistant config", "error", err)
		os.Exit(1)
	}

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
