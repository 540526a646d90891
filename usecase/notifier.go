package usecase

import "github.com/taskbridge/backend/domain"

// Notifier abstracts the real-time delivery hub so use cases stay
// transport-agnostic. Deliver is fire-and-forget: implementations must
// never block the caller or surface delivery failures.
type Notifier interface {
	Deliver(event domain.Event)
}

// NopNotifier discards every event. Used when no hub is wired in.
type NopNotifier struct{}

func (NopNotifier) Deliver(domain.Event) {}
