package realtime

import (
	"go.uber.org/zap"

	"github.com/taskbridge/backend/domain"
	"github.com/taskbridge/backend/usecase"
)

// EventLog receives a record of every delivery attempt. Implementations
// must be best-effort; the hub ignores their errors.
type EventLog interface {
	Record(event domain.Event, delivered int) error
}

// Hub routes typed events to every channel registered for the target user.
// Events addressed to users with no joined channels are silently dropped.
type Hub struct {
	registry *Registry
	log      EventLog
	logger   *zap.Logger
}

func NewHub(registry *Registry, log EventLog, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		registry: registry,
		log:      log,
		logger:   logger,
	}
}

// Deliver pushes the event to each of the target user's channels. Channels
// are independent: a full or closed one drops its copy without affecting
// the others. Events for the same user are fanned out in emission order.
func (h *Hub) Deliver(event domain.Event) {
	msg := Message{
		Event:   string(event.Kind),
		Payload: event.Payload,
	}

	channels := h.registry.ChannelsFor(event.TargetUserID)
	delivered := 0
	for _, ch := range channels {
		if ch.Push(msg) {
			delivered++
		}
	}

	if h.log != nil {
		if err := h.log.Record(event, delivered); err != nil {
			h.logger.Warn("event log write failed", zap.Error(err))
		}
	}

	if delivered == 0 {
		h.logger.Debug("event dropped, no channels joined",
			zap.String("kind", string(event.Kind)),
			zap.String("target_user_id", event.TargetUserID))
		return
	}
	h.logger.Debug("event delivered",
		zap.String("kind", string(event.Kind)),
		zap.String("target_user_id", event.TargetUserID),
		zap.Int("channels", delivered))
}

var _ usecase.Notifier = (*Hub)(nil)
