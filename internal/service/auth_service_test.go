package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

type authRepoStub struct {
	userByEmail *models.User
	emailErr    error
	userByID    *models.User
	idErr       error
	created     *models.User
	createErr   error
	lastLoginID string
	auditLogs   []*models.AuditLog
}

func (s *authRepoStub) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	return s.userByEmail, s.emailErr
}

func (s *authRepoStub) FindByID(_ context.Context, _ string) (*models.User, error) {
	return s.userByID, s.idErr
}

func (s *authRepoStub) Create(_ context.Context, user *models.User) error {
	s.created = user
	return s.createErr
}

func (s *authRepoStub) UpdateLastLogin(_ context.Context, id string, _ time.Time) error {
	s.lastLoginID = id
	return nil
}

func (s *authRepoStub) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.auditLogs = append(s.auditLogs, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "campus-api-test",
	}
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := &authRepoStub{
		userByEmail: &models.User{
			ID:           "user-1",
			Email:        "rahma@campus.test",
			PasswordHash: hashedPassword(t, "correct-horse"),
			FullName:     "Ms. Rahma",
			Role:         models.RoleTeacher,
			Active:       true,
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahma@campus.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "user-1", repo.lastLoginID)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.True(t, claims.CanManageOccupancy())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo := &authRepoStub{
		userByEmail: &models.User{
			ID:           "user-1",
			Email:        "rahma@campus.test",
			PasswordHash: hashedPassword(t, "correct-horse"),
			Active:       true,
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahma@campus.test",
		Password: "wrong",
	})
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, typed.Code)
	assert.Empty(t, repo.auditLogs)
}

func TestLoginUnknownEmailLooksLikeBadCredentials(t *testing.T) {
	repo := &authRepoStub{emailErr: sql.ErrNoRows}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@campus.test",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	repo := &authRepoStub{
		userByEmail: &models.User{
			ID:           "user-1",
			Email:        "old@campus.test",
			PasswordHash: hashedPassword(t, "correct-horse"),
			Active:       false,
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "old@campus.test",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestSignupCreatesStudentAndLogsIn(t *testing.T) {
	repo := &authRepoStub{emailErr: sql.ErrNoRows}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "new@campus.test",
		Password: "long-enough-pass",
		FullName: "New Student",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.RoleStudent, repo.created.Role)
	assert.True(t, repo.created.Active)
	assert.NotEqual(t, "long-enough-pass", repo.created.PasswordHash)
	assert.NotEmpty(t, resp.AccessToken)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionSignup, repo.auditLogs[0].Action)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	repo := &authRepoStub{
		userByEmail: &models.User{ID: "user-1", Email: "taken@campus.test"},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "taken@campus.test",
		Password: "long-enough-pass",
		FullName: "Dup",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestSignupRejectsShortPassword(t *testing.T) {
	repo := &authRepoStub{emailErr: sql.ErrNoRows}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "new@campus.test",
		Password: "short",
		FullName: "New Student",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := &authRepoStub{
		userByEmail: &models.User{
			ID:           "user-1",
			Email:        "rahma@campus.test",
			PasswordHash: hashedPassword(t, "correct-horse"),
			Active:       true,
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "rahma@campus.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "different-secret",
		AccessTokenExpiry: time.Hour,
	})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestProfileMissingUser(t *testing.T) {
	repo := &authRepoStub{idErr: sql.ErrNoRows}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Profile(context.Background(), &models.JWTClaims{UserID: "gone"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Profile(context.Background(), nil)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
