package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/genchadt/damnsimple-blackjack/pkg/repositories/history"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/statistics"
)

const (
	defaultReindexInterval = 6 * time.Hour
	defaultSummaryInterval = time.Hour
	reindexBatch           = 100
)

// Maintenance wires the recurring background jobs: keeping the search
// index in sync with recorded rounds and logging a periodic statistics
// summary for the player.
type Maintenance struct {
	scheduler *Scheduler
	esRepo    *history.ElasticsearchRepository
	stats     *statistics.Service
	playerID  string
	logger    *log.Logger
}

// NewMaintenance creates the maintenance job set. esRepo may be nil
// when no Elasticsearch mirror is configured; the reindex job is then
// skipped.
func NewMaintenance(scheduler *Scheduler, esRepo *history.ElasticsearchRepository, stats *statistics.Service, playerID string, logger *log.Logger) *Maintenance {
	if logger == nil {
		logger = log.Default()
	}
	return &Maintenance{
		scheduler: scheduler,
		esRepo:    esRepo,
		stats:     stats,
		playerID:  playerID,
		logger:    logger.With("component", "maintenance"),
	}
}

// Register adds the maintenance tasks to the scheduler
func (m *Maintenance) Register() {
	if m.esRepo != nil {
		m.scheduler.AddTask("history_reindex", defaultReindexInterval, m.reindex)
	}
	if m.stats != nil {
		m.scheduler.AddTask("stats_summary", defaultSummaryInterval, m.logSummary)
	}
}

func (m *Maintenance) reindex(ctx context.Context) error {
	return m.esRepo.ReindexRecent(ctx, m.playerID, reindexBatch)
}

func (m *Maintenance) logSummary(ctx context.Context) error {
	stats, err := m.stats.PlayerStatistics(ctx, m.playerID)
	if err != nil {
		return err
	}
	if stats.RoundsPlayed == 0 {
		return nil
	}
	m.logger.Info("session statistics",
		"rounds", stats.RoundsPlayed,
		"hands", stats.HandsPlayed,
		"winRate", stats.WinRate(),
		"netProfit", stats.NetProfit())
	return nil
}
