package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/genchadt/damnsimple-blackjack/internal/config"
	"github.com/genchadt/damnsimple-blackjack/internal/logging"
	"github.com/genchadt/damnsimple-blackjack/internal/server"
	"github.com/genchadt/damnsimple-blackjack/pkg/scheduler"
)

// ServeCmd runs the WebSocket server plus background maintenance
type ServeCmd struct {
	Addr string `kong:"help='Listen address (overrides LISTEN_ADDR)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.ListenAddr = c.Addr
	}

	logger := logging.New(cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.NewScheduler(logger)
	scheduler.NewMaintenance(sched, a.esRepo, a.stats, cfg.PlayerID, logger).Register()
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.NewServer(cfg.ListenAddr, a.game, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	logger.Info("Table ready", "addr", cfg.ListenAddr, "player", cfg.PlayerID)

	select {
	case err := <-serverErr:
		if err != nil {
			logging.LogError(logger, err)
		}
		return err
	case s := <-sig:
		logger.Info("Shutting down", "signal", s)
		return srv.Stop()
	}
}
