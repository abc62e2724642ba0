package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/genchadt/damnsimple-blackjack/internal/config"
	"github.com/genchadt/damnsimple-blackjack/internal/logging"
	"github.com/genchadt/damnsimple-blackjack/pkg/repositories/funds"
	"github.com/genchadt/damnsimple-blackjack/pkg/repositories/history"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/blackjack"
	fundsService "github.com/genchadt/damnsimple-blackjack/pkg/services/funds"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/statistics"
	"github.com/genchadt/damnsimple-blackjack/pkg/storage"
	"github.com/genchadt/damnsimple-blackjack/pkg/storage/file"
)

// app holds the wired-up engine and its backing stores. Every command
// builds one from the shared configuration.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	game    *blackjack.Facade
	history history.Repository
	esRepo  *history.ElasticsearchRepository
	stats   *statistics.Service

	closers []func() error
}

// buildApp wires storage, funds, history and the engine from config
func buildApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	store, err := a.buildStore()
	if err != nil {
		return nil, err
	}

	fundsRepo, err := a.buildFundsRepo(store)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fundsRepo.Close)

	if err := a.buildHistory(); err != nil {
		a.close()
		return nil, err
	}

	game, err := blackjack.NewGame(ctx, blackjack.GameConfig{
		PlayerID:     cfg.PlayerID,
		NumDecks:     cfg.NumDecks,
		MinBet:       cfg.MinBet,
		DefaultFunds: cfg.DefaultFunds,
		Funds:        fundsService.NewService(fundsRepo, cfg.DefaultFunds),
		Snapshots:    blackjack.NewSnapshotStore(store),
		History:      a.history,
		Logger:       logger,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to build game: %w", err)
	}
	a.game = blackjack.NewFacade(game)

	return a, nil
}

func (a *app) buildStore() (storage.Store, error) {
	if a.cfg.StorageType == config.StorageMemory {
		return storage.NewMemoryStore(), nil
	}

	store, err := file.New(&storage.Options{Path: a.cfg.StoragePath()})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage file: %w", err)
	}
	return store, nil
}

func (a *app) buildFundsRepo(store storage.Store) (funds.Repository, error) {
	switch a.cfg.FundsBackend {
	case config.FundsSQLite:
		repo, err := funds.NewSQLiteRepository(a.cfg.FundsDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to open funds database: %w", err)
		}
		return repo, nil
	case config.FundsMemory:
		return funds.NewMemoryRepository(), nil
	default:
		return funds.NewKVRepository(store), nil
	}
}

// buildHistory opens the round history store and the optional
// Elasticsearch mirror. History may be disabled entirely; the engine
// runs fine without it.
func (a *app) buildHistory() error {
	if !a.cfg.HistoryEnabled {
		return nil
	}

	base, err := history.NewSQLiteRepository(a.cfg.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	a.history = base
	a.closers = append(a.closers, base.Close)

	if a.cfg.ElasticsearchURL != "" {
		a.logger.Info("Mirroring rounds to Elasticsearch",
			"url", a.cfg.ElasticsearchURL,
			"username", a.cfg.ElasticsearchUsername,
			"password", logging.Redact(a.cfg.ElasticsearchPassword))
		esRepo, err := history.NewElasticsearchRepository(base, &history.ElasticsearchConfig{
			URL:         a.cfg.ElasticsearchURL,
			Username:    a.cfg.ElasticsearchUsername,
			Password:    a.cfg.ElasticsearchPassword,
			IndexPrefix: "blackjack",
		})
		if err != nil {
			a.logger.Warn("Elasticsearch mirror unavailable, using local history only", "err", err)
		} else {
			a.history = esRepo
			a.esRepo = esRepo
		}
	}

	a.stats = statistics.NewService(a.history)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Failed to close resource", "err", err)
		}
	}
}
