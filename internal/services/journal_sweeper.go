package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/taskbridge/backend/internal/infrastructure/journal"
)

// SweeperConfig controls how the notification journal is trimmed.
type SweeperConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// JournalSweeper periodically deletes journal entries older than the
// retention window.
type JournalSweeper struct {
	store  *journal.Store
	logger *zap.Logger
	cron   *cron.Cron
	cfg    SweeperConfig
}

func NewJournalSweeper(store *journal.Store, logger *zap.Logger, cfg SweeperConfig) *JournalSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	js := &JournalSweeper{
		store:  store,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = js.cron.AddFunc(schedule, js.sweep)

	return js
}

// Start launches the cron scheduler.
func (js *JournalSweeper) Start() {
	if js == nil || js.cron == nil {
		return
	}
	js.cron.Start()
	js.logger.Info("journal sweeper started", zap.Duration("interval", js.cfg.Interval), zap.Duration("retention", js.cfg.Retention))
}

// Stop gracefully stops the scheduler.
func (js *JournalSweeper) Stop(ctx context.Context) {
	if js == nil || js.cron == nil {
		return
	}
	stopCtx := js.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	js.logger.Info("journal sweeper stopped")
}

func (js *JournalSweeper) sweep() {
	if js.store == nil {
		return
	}
	cutoff := time.Now().Add(-js.cfg.Retention)
	if err := js.store.Cleanup(cutoff); err != nil {
		js.logger.Error("journal cleanup failed", zap.Error(err))
		return
	}
	if size, err := js.store.Size(); err == nil {
		js.logger.Debug("journal swept", zap.Int("remaining", size))
	}
}
