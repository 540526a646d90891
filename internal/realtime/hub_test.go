package realtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbridge/backend/domain"
)

type memEventLog struct {
	mu      sync.Mutex
	entries []int
}

func (l *memEventLog) Record(_ domain.Event, delivered int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, delivered)
	return nil
}

func drain(ch *Channel) []Message {
	var out []Message
	for {
		select {
		case msg := <-ch.Outbound():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func assignedEvent(target string) domain.Event {
	return domain.NewAssignedTaskEvent(&domain.Task{
		ID:         "t1",
		Title:      "Write report",
		AssigneeID: target,
		CreatorID:  "m1",
	}, "m1")
}

func TestHub_DeliversToAllChannelsOfUser(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	log := &memEventLog{}
	hub := NewHub(registry, log, nil)

	first := NewChannel(4)
	second := NewChannel(4)
	other := NewChannel(4)
	registry.Join(first, "u1")
	registry.Join(second, "u1")
	registry.Join(other, "u2")

	hub.Deliver(assignedEvent("u1"))

	require.Len(t, drain(first), 1)
	require.Len(t, drain(second), 1)
	assert.Empty(t, drain(other))
	assert.Equal(t, []int{2}, log.entries)
}

func TestHub_DropsWhenNoChannelsJoined(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	log := &memEventLog{}
	hub := NewHub(registry, log, nil)

	// Must not error, block or retry.
	hub.Deliver(assignedEvent("ghost"))
	assert.Equal(t, []int{0}, log.entries)
}

func TestHub_DisconnectedChannelDoesNotAffectOthers(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	hub := NewHub(registry, nil, nil)

	first := NewChannel(4)
	second := NewChannel(4)
	registry.Join(first, "u1")
	registry.Join(second, "u1")

	registry.Leave(first)
	first.Close()

	hub.Deliver(assignedEvent("u1"))
	assert.Len(t, drain(second), 1)
}

func TestHub_PreservesEmissionOrderPerUser(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	hub := NewHub(registry, nil, nil)

	ch := NewChannel(16)
	registry.Join(ch, "u1")

	for i := 0; i < 5; i++ {
		hub.Deliver(domain.NewTaskUpdatedEvent(&domain.Task{
			ID:         fmt.Sprintf("t%d", i),
			Title:      "ordered",
			AssigneeID: "u1",
		}, map[string]interface{}{"seq": i}))
	}

	msgs := drain(ch)
	require.Len(t, msgs, 5)
	for i, msg := range msgs {
		payload, ok := msg.Payload.(domain.TaskUpdatedPayload)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("t%d", i), payload.TaskID)
	}
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	t.Parallel()
	registry := NewRegistry(nil)
	log := &memEventLog{}
	hub := NewHub(registry, log, nil)

	ch := NewChannel(1)
	registry.Join(ch, "u1")

	hub.Deliver(assignedEvent("u1"))
	hub.Deliver(assignedEvent("u1")) // buffer full, dropped

	assert.Len(t, drain(ch), 1)
	assert.Equal(t, []int{1, 0}, log.entries)
}

func TestChannel_PushAfterClose(t *testing.T) {
	t.Parallel()
	ch := NewChannel(4)
	ch.Close()

	assert.False(t, ch.Push(Message{Event: "task:updated"}))
	ch.Close() // idempotent
}
