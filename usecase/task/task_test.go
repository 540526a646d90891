package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbridge/backend/domain"
	"github.com/taskbridge/backend/repository"
)

// memTaskRepo is an in-memory TaskRepository for exercising the state machine.
type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.Task
	seq   int
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]domain.Task)}
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *memTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, task := range r.tasks {
		if filter.CreatorID != "" && task.CreatorID != filter.CreatorID {
			continue
		}
		if filter.AssigneeID != "" && task.AssigneeID != filter.AssigneeID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		r.seq++
		task.ID = fmt.Sprintf("task-%d", r.seq)
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID] = *task
	return task, nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = *task
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

type memUserRepo struct {
	users map[string]domain.User
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = *user
	return nil
}

// recordingNotifier captures every delivered event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *recordingNotifier) Deliver(event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []domain.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Event(nil), n.events...)
}

var (
	manager  = domain.Identity{UserID: "m1", Role: domain.RoleManager}
	employee = domain.Identity{UserID: "e1", Role: domain.RoleEmployee}
)

func newTestUseCase() (*UseCase, *memTaskRepo, *recordingNotifier) {
	tasks := newMemTaskRepo()
	users := &memUserRepo{users: map[string]domain.User{
		"m1": {ID: "m1", Name: "Morgan", Email: "m1@example.com", Role: domain.RoleManager},
		"e1": {ID: "e1", Name: "Erin", Email: "e1@example.com", Role: domain.RoleEmployee},
		"e2": {ID: "e2", Name: "Elliot", Email: "e2@example.com", Role: domain.RoleEmployee},
	}}
	notifier := &recordingNotifier{}
	return New(tasks, users, notifier, nil), tasks, notifier
}

func mustCreate(t *testing.T, uc *UseCase, assignee string) *domain.Task {
	t.Helper()
	task, err := uc.CreateTask(context.Background(), manager, CreateInput{
		Title:      "Write report",
		AssigneeID: assignee,
	})
	require.NoError(t, err)
	return task
}

func TestCreateTask_ManagerNotifiesAssignee(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()

	task, err := uc.CreateTask(context.Background(), manager, CreateInput{
		Title:      "Write report",
		AssigneeID: "e1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, task.Status)
	assert.Equal(t, "m1", task.CreatorID)
	assert.Equal(t, "e1", task.AssigneeID)

	events := notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTaskAssigned, events[0].Kind)
	assert.Equal(t, "e1", events[0].TargetUserID)

	payload, ok := events[0].Payload.(domain.AssignedTaskPayload)
	require.True(t, ok)
	assert.Equal(t, task.ID, payload.TaskID)
	assert.Equal(t, "Write report", payload.Title)
	assert.Equal(t, "m1", payload.AssignedBy)
}

func TestCreateTask_EmployeeForbidden(t *testing.T) {
	t.Parallel()
	uc, tasks, notifier := newTestUseCase()

	_, err := uc.CreateTask(context.Background(), employee, CreateInput{
		Title:      "Sneaky task",
		AssigneeID: "e2",
	})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assert.Zero(t, tasks.size())
	assert.Empty(t, notifier.all())
}

func TestUpdateStatus_CompletedNotifiesCreator(t *testing.T) {
	t.Parallel()

	// Completion addresses the creator regardless of who performed it.
	for name, actor := range map[string]domain.Identity{
		"by assignee": employee,
		"by manager":  manager,
	} {
		actor := actor
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			uc, _, notifier := newTestUseCase()
			task := mustCreate(t, uc, "e1")

			updated, err := uc.UpdateStatus(context.Background(), actor, task.ID, domain.StatusCompleted)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCompleted, updated.Status)

			events := notifier.all()
			require.Len(t, events, 2) // create + completion
			assert.Equal(t, domain.EventTaskCompleted, events[1].Kind)
			assert.Equal(t, "m1", events[1].TargetUserID)

			payload, ok := events[1].Payload.(domain.TaskCompletedPayload)
			require.True(t, ok)
			assert.Equal(t, task.ID, payload.TaskID)
		})
	}
}

func TestUpdateStatus_InProgressByAssigneeNotifiesAssignee(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	_, err := uc.UpdateStatus(context.Background(), employee, task.ID, domain.StatusInProgress)
	require.NoError(t, err)

	events := notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTaskUpdated, events[1].Kind)
	assert.Equal(t, "e1", events[1].TargetUserID)

	payload, ok := events[1].Payload.(domain.TaskUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.StatusInProgress, payload.Updates["status"])
}

func TestUpdateStatus_InProgressByManagerNotifiesAsAssignment(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	_, err := uc.UpdateStatus(context.Background(), manager, task.ID, domain.StatusInProgress)
	require.NoError(t, err)

	events := notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTaskAssigned, events[1].Kind)
	assert.Equal(t, "e1", events[1].TargetUserID)
}

func TestUpdateStatus_NonAssigneeForbidden(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	outsider := domain.Identity{UserID: "e2", Role: domain.RoleEmployee}
	_, err := uc.UpdateStatus(context.Background(), outsider, task.ID, domain.StatusCompleted)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	current, err := uc.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, current.Status)
	assert.Len(t, notifier.all(), 1) // only the create event
}

func TestUpdateStatus_NonOwningManagerForbidden(t *testing.T) {
	t.Parallel()
	uc, _, _ := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	other := domain.Identity{UserID: "m2", Role: domain.RoleManager}
	_, err := uc.UpdateStatus(context.Background(), other, task.ID, domain.StatusInProgress)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestUpdateStatus_MissingTask(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()

	_, err := uc.UpdateStatus(context.Background(), manager, "missing", domain.StatusCompleted)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.Empty(t, notifier.all())
}

func TestUpdateTask_ReassignmentNotifiesNewAssignee(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	assignee := "e2"
	updated, err := uc.UpdateTask(context.Background(), manager, task.ID, UpdatePatch{AssigneeID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, "e2", updated.AssigneeID)

	events := notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTaskAssigned, events[1].Kind)
	assert.Equal(t, "e2", events[1].TargetUserID, "previous assignee must not be notified")
}

func TestUpdateTask_FieldEditNotifiesAssigneeWithChanges(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	title := "Write quarterly report"
	updated, err := uc.UpdateTask(context.Background(), manager, task.ID, UpdatePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	events := notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTaskUpdated, events[1].Kind)
	assert.Equal(t, "e1", events[1].TargetUserID)

	payload, ok := events[1].Payload.(domain.TaskUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"title": title}, payload.Updates)
}

func TestUpdateTask_EmployeeForbidden(t *testing.T) {
	t.Parallel()
	uc, _, _ := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	title := "Hijacked"
	_, err := uc.UpdateTask(context.Background(), employee, task.ID, UpdatePatch{Title: &title})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestAssignTask_ManagerOnly(t *testing.T) {
	t.Parallel()
	uc, _, notifier := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	updated, err := uc.AssignTask(context.Background(), manager, task.ID, "e2")
	require.NoError(t, err)
	assert.Equal(t, "e2", updated.AssigneeID)

	events := notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTaskAssigned, events[1].Kind)
	assert.Equal(t, "e2", events[1].TargetUserID)

	_, err = uc.AssignTask(context.Background(), employee, task.ID, "e1")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	uc, tasks, notifier := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	require.Error(t, uc.DeleteTask(context.Background(), employee, task.ID))
	require.NoError(t, uc.DeleteTask(context.Background(), manager, task.ID))
	assert.Zero(t, tasks.size())
	assert.Len(t, notifier.all(), 1) // deletion emits nothing

	err := uc.DeleteTask(context.Background(), manager, task.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestListTasks_RoleScoping(t *testing.T) {
	t.Parallel()
	uc, _, _ := newTestUseCase()
	mustCreate(t, uc, "e1")
	mustCreate(t, uc, "e2")

	all, err := uc.ListTasks(context.Background(), manager)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, view := range all {
		assert.Equal(t, "Morgan", view.AssignedBy)
	}

	mine, err := uc.ListTasks(context.Background(), employee)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "e1", mine[0].AssigneeID)
	assert.Equal(t, "Morgan", mine[0].AssignedBy)
}

func TestStatusAlwaysValid(t *testing.T) {
	t.Parallel()
	uc, _, _ := newTestUseCase()
	task := mustCreate(t, uc, "e1")

	for _, status := range []domain.Status{domain.StatusInProgress, domain.StatusPending, domain.StatusCompleted} {
		updated, err := uc.UpdateStatus(context.Background(), manager, task.ID, status)
		require.NoError(t, err)
		assert.True(t, updated.Status.IsValid())
	}
}
