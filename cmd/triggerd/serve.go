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
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/api"
	audithook "github.com/xraph/trigger/audit_hook"
	"github.com/xraph/trigger/engine"
	relayhook "github.com/xraph/trigger/relay_hook"
)

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := trigger.LoadConfig(configFile)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	opts := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
	}
	if auditLog {
		opts = append(opts, engine.WithExtension(audithook.New(slogRecorder(logger), audithook.WithLogger(logger))))
	}
	eng, err := engine.New(opts...)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	if relay {
		eng.Extensions().Register(relayhook.New(eng))
	}

	mux := http.NewServeMux()
	path := cfg.Endpoint.Path
	if path == "" {
		path = "/"
	}
	mux.Handle(path, api.New(eng))

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listenAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("endpoint listening", slog.String("addr", ln.Addr().String()), slog.String("path", path))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if register {
		g.Go(func() error {
			if _, err := eng.Listen(gctx); err != nil {
				return fmt.Errorf("register endpoint: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down endpoint")
		if err := eng.Stop(shutdownCtx); err != nil {
			logger.Warn("engine stop failed", slog.String("error", err.Error()))
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// slogRecorder writes audit events to the log.
func slogRecorder(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(ctx context.Context, ev *audithook.AuditEvent) error {
		logger.InfoContext(ctx, "audit",
			slog.String("action", ev.Action),
			slog.String("resource", ev.Resource),
			slog.String("resource_id", ev.ResourceID),
			slog.String("outcome", ev.Outcome),
			slog.Any("metadata", ev.Metadata),
		)
		return nil
	})
}
