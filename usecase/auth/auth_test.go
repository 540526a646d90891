package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskbridge/backend/domain"
)

type memUserRepo struct {
	byEmail map[string]domain.User
	seq     int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]domain.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *memUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.byEmail {
		if user.Role == role {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	r.byEmail[user.Email] = *user
	return nil
}

type memSessionRepo struct {
	sessions map[string]domain.Session
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (r *memSessionRepo) Save(_ context.Context, session *domain.Session) error {
	r.sessions[session.ID] = *session
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

const testSecret = "test-secret"

func newTestUseCase() (*UseCase, *memSessionRepo) {
	sessions := &memSessionRepo{sessions: make(map[string]domain.Session)}
	return New(newMemUserRepo(), sessions, testSecret, "taskbridge-test", 0, nil), sessions
}

func TestRegister_IssuesTokenWithRoleClaims(t *testing.T) {
	t.Parallel()
	uc, sessions := newTestUseCase()

	creds, err := uc.Register(context.Background(), "Morgan", "morgan@example.com", domain.RoleManager, "hunter2")
	require.NoError(t, err)
	require.NotNil(t, creds.User)
	assert.NotEmpty(t, creds.User.ID)
	assert.NotEmpty(t, creds.Token)
	assert.NotEqual(t, "hunter2", creds.User.PasswordHash)
	assert.Len(t, sessions.sessions, 1)

	token, err := jwt.Parse(creds.Token, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, creds.User.ID, claims["user_id"])
	assert.Equal(t, "manager", claims["role"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	uc, _ := newTestUseCase()

	_, err := uc.Register(context.Background(), "Morgan", "morgan@example.com", domain.RoleManager, "hunter2")
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), "Imposter", "morgan@example.com", domain.RoleEmployee, "other")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestLogin(t *testing.T) {
	t.Parallel()
	uc, _ := newTestUseCase()

	_, err := uc.Register(context.Background(), "Erin", "erin@example.com", domain.RoleEmployee, "s3cret")
	require.NoError(t, err)

	creds, err := uc.Login(context.Background(), "erin@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, creds.User.Role)

	_, err = uc.Login(context.Background(), "erin@example.com", "wrong")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))

	_, err = uc.Login(context.Background(), "nobody@example.com", "s3cret")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnauthorized))
}

func TestListEmployees(t *testing.T) {
	t.Parallel()
	uc, _ := newTestUseCase()

	_, err := uc.Register(context.Background(), "Morgan", "morgan@example.com", domain.RoleManager, "pw")
	require.NoError(t, err)
	_, err = uc.Register(context.Background(), "Erin", "erin@example.com", domain.RoleEmployee, "pw")
	require.NoError(t, err)

	employees, err := uc.ListEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Erin", employees[0].Name)
}
