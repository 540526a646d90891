package domain

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task represents one unit of work assigned by a manager to an employee.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatorID   string     `json:"creator_id"`
	AssigneeID  string     `json:"assignee_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// IsCreator reports whether the given user created the task.
func (t *Task) IsCreator(userID string) bool {
	return t != nil && userID != "" && t.CreatorID == userID
}

// IsAssignee reports whether the task is currently assigned to the given user.
func (t *Task) IsAssignee(userID string) bool {
	return t != nil && userID != "" && t.AssigneeID == userID
}

// TaskView is a task enriched with the display name of its creator,
// as returned by the listing endpoints.
type TaskView struct {
	Task
	AssignedBy string `json:"assigned_by,omitempty"`
}
