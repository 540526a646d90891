package domain

import "time"

// EventKind identifies one of the closed set of notification events.
// Values double as the wire-level event names pushed to websocket clients.
type EventKind string

const (
	EventTaskAssigned  EventKind = "task:assigned"
	EventTaskUpdated   EventKind = "task:updated"
	EventTaskCompleted EventKind = "task:completed"
)

// Event is a typed, addressed notification produced by a task mutation.
// Delivery is fire-and-forget: the originating operation never fails
// because an event could not be delivered.
type Event struct {
	Kind         EventKind   `json:"event"`
	TargetUserID string      `json:"-"`
	Payload      interface{} `json:"payload"`
	EmittedAt    time.Time   `json:"emitted_at"`
}

// AssignedTaskPayload notifies an employee that a task was assigned to them.
type AssignedTaskPayload struct {
	TaskID     string `json:"taskId"`
	Title      string `json:"title"`
	AssignedBy string `json:"assignedBy"`
}

// TaskUpdatedPayload notifies the assignee about edited fields.
type TaskUpdatedPayload struct {
	TaskID  string                 `json:"taskId"`
	Title   string                 `json:"title"`
	Updates map[string]interface{} `json:"updates"`
}

// TaskCompletedPayload notifies the creator that their task was completed.
type TaskCompletedPayload struct {
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
}

// NewAssignedTaskEvent addresses the task's current assignee.
func NewAssignedTaskEvent(task *Task, assignedBy string) Event {
	return Event{
		Kind:         EventTaskAssigned,
		TargetUserID: task.AssigneeID,
		Payload: AssignedTaskPayload{
			TaskID:     task.ID,
			Title:      task.Title,
			AssignedBy: assignedBy,
		},
		EmittedAt: time.Now(),
	}
}

// NewTaskUpdatedEvent addresses the task's current assignee with the changed fields.
func NewTaskUpdatedEvent(task *Task, updates map[string]interface{}) Event {
	return Event{
		Kind:         EventTaskUpdated,
		TargetUserID: task.AssigneeID,
		Payload: TaskUpdatedPayload{
			TaskID:  task.ID,
			Title:   task.Title,
			Updates: updates,
		},
		EmittedAt: time.Now(),
	}
}

// NewTaskCompletedEvent addresses the task's creator.
func NewTaskCompletedEvent(task *Task) Event {
	return Event{
		Kind:         EventTaskCompleted,
		TargetUserID: task.CreatorID,
		Payload: TaskCompletedPayload{
			TaskID: task.ID,
			Title:  task.Title,
		},
		EmittedAt: time.Now(),
	}
}
