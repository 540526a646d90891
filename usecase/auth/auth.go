package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskbridge/backend/domain"
	"github.com/taskbridge/backend/repository"
)

// UseCase handles registration, login and token issuance. Task operations
// never touch it: they only see the identity the middleware resolved.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, secret, issuer string, tokenTTL time.Duration, logger *zap.Logger) *UseCase {
	if tokenTTL <= 0 {
		tokenTTL = 3 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		secret:   []byte(secret),
		issuer:   issuer,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Credentials is the result of a successful register or login.
type Credentials struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a new user and signs them in.
func (uc *UseCase) Register(ctx context.Context, name, email string, role domain.Role, password string) (*Credentials, error) {
	if _, err := uc.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return uc.issue(ctx, user)
}

// Login verifies credentials and issues a fresh token.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Credentials, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return uc.issue(ctx, user)
}

// ListEmployees returns the employee directory managers assign from.
func (uc *UseCase) ListEmployees(ctx context.Context) ([]domain.User, error) {
	return uc.users.ListByRole(ctx, domain.RoleEmployee)
}

func (uc *UseCase) issue(ctx context.Context, user *domain.User) (*Credentials, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.tokenTTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		uc.logger.Warn("failed to persist session", zap.String("user_id", user.ID), zap.Error(err))
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"sid":     session.ID,
		"iss":     uc.issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(uc.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.secret)
	if err != nil {
		return nil, err
	}

	return &Credentials{User: user, Token: token}, nil
}
