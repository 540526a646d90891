package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskbridge/backend/domain"
	"github.com/taskbridge/backend/repository"
	"github.com/taskbridge/backend/usecase"
)

// UseCase owns the task state machine: it decides who may move a task
// between statuses and which notification fires on each transition.
type UseCase struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	notifier usecase.Notifier
	logger   *zap.Logger
}

func New(tasks repository.TaskRepository, users repository.UserRepository, notifier usecase.Notifier, logger *zap.Logger) *UseCase {
	if notifier == nil {
		notifier = usecase.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateInput carries the fields a manager supplies when creating a task.
type CreateInput struct {
	Title       string
	Description string
	AssigneeID  string
	DueDate     *time.Time
}

// UpdatePatch carries optional field edits. Nil fields are left untouched.
type UpdatePatch struct {
	Title       *string
	Description *string
	AssigneeID  *string
	DueDate     *time.Time
}

// changes returns the changed-field mapping carried by task:updated events.
func (p UpdatePatch) changes() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.AssigneeID != nil {
		updates["assignee_id"] = *p.AssigneeID
	}
	if p.DueDate != nil {
		updates["due_date"] = *p.DueDate
	}
	return updates
}

// CreateTask creates a task on behalf of a manager. The task always starts
// pending and the assignee is notified.
func (uc *UseCase) CreateTask(ctx context.Context, actor domain.Identity, input CreateInput) (*domain.Task, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.StatusPending,
		DueDate:     input.DueDate,
		CreatorID:   actor.UserID,
		AssigneeID:  input.AssigneeID,
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	uc.notifier.Deliver(domain.NewAssignedTaskEvent(created, actor.UserID))
	return created, nil
}

// GetTask looks up a single task. Reads are not role-gated.
func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

// ListTasks returns all tasks for managers and only assigned tasks for
// employees, each enriched with the creator's display name.
func (uc *UseCase) ListTasks(ctx context.Context, actor domain.Identity) ([]domain.TaskView, error) {
	filter := repository.TaskFilter{}
	if !actor.IsManager() {
		filter.AssigneeID = actor.UserID
	}

	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.enrich(ctx, tasks), nil
}

// ListTasksByCreator returns tasks created by the given user.
func (uc *UseCase) ListTasksByCreator(ctx context.Context, creatorID string) ([]domain.TaskView, error) {
	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{CreatorID: creatorID})
	if err != nil {
		return nil, err
	}
	return uc.enrich(ctx, tasks), nil
}

// UpdateTask applies field edits on behalf of a manager. A patch that
// changes the assignee counts as reassignment and notifies the new
// assignee; any other edit notifies the current assignee.
func (uc *UseCase) UpdateTask(ctx context.Context, actor domain.Identity, id string, patch UpdatePatch) (*domain.Task, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.AssigneeID != nil {
		task.AssigneeID = *patch.AssigneeID
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if patch.AssigneeID != nil {
		uc.notifier.Deliver(domain.NewAssignedTaskEvent(task, actor.UserID))
	} else {
		uc.notifier.Deliver(domain.NewTaskUpdatedEvent(task, patch.changes()))
	}
	return task, nil
}

// AssignTask reassigns a task to another employee.
func (uc *UseCase) AssignTask(ctx context.Context, actor domain.Identity, id, assigneeID string) (*domain.Task, error) {
	if !actor.IsManager() {
		return nil, domain.ErrForbidden
	}

	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	task.AssigneeID = assigneeID
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	uc.notifier.Deliver(domain.NewAssignedTaskEvent(task, actor.UserID))
	return task, nil
}

// UpdateStatus moves a task to a new status. Only the manager who created
// the task or the employee it is assigned to may do so. Completion notifies
// the creator; any other transition notifies the assignee, except that a
// manager-initiated one is pushed as a task:assigned notice.
func (uc *UseCase) UpdateStatus(ctx context.Context, actor domain.Identity, id string, status domain.Status) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ownerManager := actor.IsManager() && task.IsCreator(actor.UserID)
	if !ownerManager && !task.IsAssignee(actor.UserID) {
		return nil, domain.ErrForbidden
	}

	task.Status = status
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	switch {
	case status == domain.StatusCompleted:
		uc.notifier.Deliver(domain.NewTaskCompletedEvent(task))
	case actor.IsManager():
		uc.notifier.Deliver(domain.NewAssignedTaskEvent(task, actor.UserID))
	default:
		uc.notifier.Deliver(domain.NewTaskUpdatedEvent(task, map[string]interface{}{"status": status}))
	}
	return task, nil
}

// DeleteTask removes a task. Deletion is terminal and emits no notification.
func (uc *UseCase) DeleteTask(ctx context.Context, actor domain.Identity, id string) error {
	if !actor.IsManager() {
		return domain.ErrForbidden
	}
	return uc.tasks.Delete(ctx, id)
}

// enrich resolves creator display names. A failed lookup leaves the field
// empty rather than failing the listing.
func (uc *UseCase) enrich(ctx context.Context, tasks []domain.Task) []domain.TaskView {
	views := make([]domain.TaskView, 0, len(tasks))
	names := make(map[string]string)

	for _, t := range tasks {
		name, ok := names[t.CreatorID]
		if !ok {
			if creator, err := uc.users.GetByID(ctx, t.CreatorID); err == nil {
				name = creator.Name
			} else {
				uc.logger.Debug("creator lookup failed", zap.String("creator_id", t.CreatorID), zap.Error(err))
			}
			names[t.CreatorID] = name
		}
		views = append(views, domain.TaskView{Task: t, AssignedBy: name})
	}
	return views
}
