package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/genchadt/damnsimple-blackjack/internal/config"
	"github.com/genchadt/damnsimple-blackjack/internal/logging"
	"github.com/genchadt/damnsimple-blackjack/internal/tui"
)

// PlayCmd runs the interactive terminal table against the local engine
type PlayCmd struct{}

func (c *PlayCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file in the data dir.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "blackjack-tui.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()

	logger := logging.NewWithWriter(logFile, cfg.Environment)

	a, err := buildApp(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	return tui.Run(a.game, logger)
}
