package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskbridge/backend/internal/infrastructure/journal"
	"github.com/taskbridge/backend/internal/realtime"
)

// Monitor probes dependency health in the background and caches the result
// for the health endpoint.
type Monitor struct {
	pg       *pgxpool.Pool
	redis    *redislib.Client
	journal  *journal.Store
	registry *realtime.Registry

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(pg *pgxpool.Pool, redis *redislib.Client, jrnl *journal.Store, registry *realtime.Registry, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		pg:       pg,
		redis:    redis,
		journal:  jrnl,
		registry: registry,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start launches the probe loop. The first probe runs immediately so the
// health endpoint never reports a zero value after boot.
func (m *Monitor) Start() {
	m.probe()
	go m.loop()
}

// Stop terminates the probe loop.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

// GetStatus returns the latest cached snapshot.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsOnline reports whether the primary datastore is reachable.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.probe()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var next Status

	if m.pg != nil {
		next.PostgreSQL = m.pg.Ping(ctx) == nil
	}
	if m.redis != nil {
		next.Redis = m.redis.Ping(ctx).Err() == nil
	}
	if m.journal != nil {
		size, err := m.journal.Size()
		next.Journal = err == nil
		next.JournalSize = size
	}
	if m.registry != nil {
		next.Channels = m.registry.Size()
	}

	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	if prev.PostgreSQL != next.PostgreSQL {
		m.logger.Warn("postgres availability changed", zap.Bool("online", next.PostgreSQL))
	}
	if prev.Redis != next.Redis {
		m.logger.Warn("redis availability changed", zap.Bool("online", next.Redis))
	}
}
