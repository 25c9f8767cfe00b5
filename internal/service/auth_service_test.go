package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrack/glowtrack-api/internal/models"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

type userRepoStub struct {
	users map[string]models.User
	err   error
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]models.User)}
}

func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	if s.err != nil {
		return s.err
	}
	s.users[user.ID] = *user
	return nil
}

func (s *userRepoStub) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func newAuthFixture() (*AuthService, *userRepoStub) {
	repo := newUserRepoStub()
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "glowtrack-test",
	})
	return svc, repo
}

func validRegistration() models.RegisterRequest {
	return models.RegisterRequest{
		Email:    "Jamie@Example.com",
		Password: "correct-horse-battery",
		Name:     "Jamie",
		SkinType: "combination",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo := newAuthFixture()
	ctx := context.Background()

	session, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, "jamie@example.com", session.User.Email)
	assert.Len(t, repo.users, 1)

	login, err := svc.Login(ctx, models.LoginRequest{
		Email:    "jamie@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegistration())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestRegisterValidatesPayload(t *testing.T) {
	svc, _ := newAuthFixture()

	req := validRegistration()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	assert.Error(t, err)

	req = validRegistration()
	req.Email = "not-an-email"
	_, err = svc.Register(context.Background(), req)
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{
		Email:    "jamie@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever-works",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	session, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, "jamie@example.com", claims.Email)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	session, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	parts := strings.Split(session.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	_, err = svc.ValidateToken(tampered)
	assert.Error(t, err)

	_, err = svc.ValidateToken("garbage")
	assert.Error(t, err)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc, repo := newAuthFixture()
	ctx := context.Background()

	session, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{TokenSecret: "different-secret"})
	_, err = other.ValidateToken(session.AccessToken)
	assert.Error(t, err)
}

func TestProfile(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	session, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := svc.Profile(ctx, session.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jamie", user.Name)

	_, err = svc.Profile(ctx, "missing")
	assert.Error(t, err)
}
