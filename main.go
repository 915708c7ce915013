package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "path to server TOML config (default $TRENCH_CONFIG)")
	addr := flag.String("addr", "", "HTTP listen address, overrides [server] addr")
	clientDir := flag.String("client", "", "client directory, overrides [server] client_dir")
	flag.Parse()

	if *cfgPath == "" {
		*cfgPath = os.Getenv("TRENCH_CONFIG")
	}
	cfg := defaults()
	if *cfgPath != "" {
		loaded, err := Load(*cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *clientDir != "" {
		cfg.Server.ClientDir = *clientDir
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	tuning := sim.DefaultConfig()
	if cfg.Game.TuningPath != "" {
		if tuning, err = sim.LoadConfig(cfg.Game.TuningPath); err != nil {
			return fmt.Errorf("load tuning: %w", err)
		}
		log.Info("tuning loaded", zap.String("path", cfg.Game.TuningPath))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := OpenDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	auth, err := NewAuth(ctx, db, cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	analytics := NewAnalytics(db, log)
	defer analytics.Stop()

	hub := NewHub(HubDeps{Config: cfg, Tuning: tuning, DB: db, Auth: auth, Analytics: analytics, Log: log})
	go hub.Run()
	defer hub.Shutdown()

	server := &http.Server{Addr: cfg.Server.Addr, Handler: SetupRoutes(hub, cfg.Server.ClientDir)}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("client", cfg.Server.ClientDir),
			zap.Int("tick_rate", cfg.Game.TickRate))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-stop:
		log.Info("shutting down")
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
