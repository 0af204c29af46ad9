package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

type mockUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created *models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	m.created = user
	return nil
}

func newAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:  "test-secret",
		Expiry:  time.Hour,
		Issuer:  "classmeet-test",
		Timeout: time.Second,
	})
}

func hashPassword(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestAuthRegister(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newAuthService(repo)

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Ana Teacher",
		Email:    "ana@example.com",
		Password: "secret123",
		Role:     "teacher",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, info.Role)
	require.NotNil(t, repo.created)
	assert.NotEqual(t, "secret123", repo.created.PasswordHash)
	assert.True(t, repo.created.Active)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]*models.User{
		"ana@example.com": {ID: "u1", Email: "ana@example.com"},
	}}
	svc := newAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Ana Teacher",
		Email:    "ana@example.com",
		Password: "secret123",
		Role:     "teacher",
	})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAuthRegisterRejectsUnknownRole(t *testing.T) {
	svc := newAuthService(&mockUserRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secret123",
		Role:     "admin",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthLoginAndValidateToken(t *testing.T) {
	user := &models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Name:         "Ana",
		Role:         models.RoleTeacher,
		Active:       true,
	}
	repo := &mockUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       true,
	}
	repo := &mockUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "nope-nope"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredential)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	user := &models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Active:       false,
	}
	repo := &mockUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	user := &models.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "secret123"),
		Role:         models.RoleStudent,
		Active:       true,
	}
	repo := &mockUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)

	other := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret: "different-secret",
		Expiry: time.Hour,
	})
	_, err = other.ValidateToken(res.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredential)
}
