package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Registry tracks which channels currently represent which user. It is
// process-local, rebuilt from scratch on every connection, and mutated only
// by join/leave; delivery only reads it.
type Registry struct {
	mu      sync.RWMutex
	members map[string]map[*Channel]struct{}
	owners  map[*Channel]string
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		members: make(map[string]map[*Channel]struct{}),
		owners:  make(map[*Channel]string),
		logger:  logger,
	}
}

// Join registers the channel under the given user. A channel belongs to at
// most one user: joining again under a different id replaces the previous
// membership. An empty user id is a logged no-op.
func (r *Registry) Join(ch *Channel, userID string) bool {
	if ch == nil {
		return false
	}
	if userID == "" {
		r.logger.Warn("join without user id ignored", zap.String("channel_id", ch.ID()))
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.owners[ch]; ok && prev != userID {
		r.removeLocked(ch, prev)
	}

	set, ok := r.members[userID]
	if !ok {
		set = make(map[*Channel]struct{})
		r.members[userID] = set
	}
	set[ch] = struct{}{}
	r.owners[ch] = userID

	r.logger.Info("channel joined", zap.String("channel_id", ch.ID()), zap.String("user_id", userID))
	return true
}

// Leave drops any registration the channel holds. Unregistered channels
// are a no-op.
func (r *Registry) Leave(ch *Channel) {
	if ch == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[ch]
	if !ok {
		return
	}
	r.removeLocked(ch, userID)
	r.logger.Info("channel left", zap.String("channel_id", ch.ID()), zap.String("user_id", userID))
}

// ChannelsFor returns a snapshot of the channels registered for a user.
func (r *Registry) ChannelsFor(userID string) []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.members[userID]
	if len(set) == 0 {
		return nil
	}
	channels := make([]*Channel, 0, len(set))
	for ch := range set {
		channels = append(channels, ch)
	}
	return channels
}

// Size returns the number of joined channels, for health reporting.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}

func (r *Registry) removeLocked(ch *Channel, userID string) {
	if set, ok := r.members[userID]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(r.members, userID)
		}
	}
	delete(r.owners, ch)
}
