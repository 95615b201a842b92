package application

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
	repo "github.com/oksasatya/user-management-service/internal/domain/repository"
	"github.com/oksasatya/user-management-service/pkg/helpers"
)

func newTestService(t *testing.T, r repo.UserRepository) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	jwt := helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, 7*24*time.Hour)
	return NewService(r, jwt, nil, "", nil, logger, nil, "", nil, "testapp", "")
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := helpers.HashPassword(password)
	require.NoError(t, err)
	return h
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	mockRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repo.ErrNotFound)

	_, err := svc.Authenticate(context.Background(), "ghost@example.com", "whatever")

	// Indistinguishable from a wrong password.
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	u := &entity.User{ID: "u1", Email: "a@example.com", HashedPassword: hashOf(t, "correct-horse")}
	mockRepo.On("GetByEmail", mock.Anything, "a@example.com").Return(u, nil)
	mockRepo.On("RecordLoginFailure", mock.Anything, "u1").Return(1, false, nil)

	_, err := svc.Authenticate(context.Background(), "a@example.com", "battery-staple")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthenticateLockedBeforePasswordCheck(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	u := &entity.User{ID: "u1", Email: "a@example.com", IsLocked: true, HashedPassword: hashOf(t, "correct-horse")}
	mockRepo.On("GetByEmail", mock.Anything, "a@example.com").Return(u, nil)

	// Correct password, still rejected as locked.
	_, err := svc.Authenticate(context.Background(), "a@example.com", "correct-horse")

	assert.ErrorIs(t, err, ErrAccountLocked)
	mockRepo.AssertNotCalled(t, "RecordLoginFailure", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "RecordLoginSuccess", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthenticateSuccess(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	u := &entity.User{ID: "u1", Email: "a@example.com", FailedLoginAttempts: 2, HashedPassword: hashOf(t, "correct-horse")}
	mockRepo.On("GetByEmail", mock.Anything, "a@example.com").Return(u, nil)
	mockRepo.On("RecordLoginSuccess", mock.Anything, "u1", mock.Anything).Return(nil)

	got, err := svc.Authenticate(context.Background(), "a@example.com", "correct-horse")

	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts)
	assert.NotNil(t, got.LastLoginAt)
	mockRepo.AssertExpectations(t)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	u := &entity.User{ID: "u1", Email: "a@example.com", Nickname: "al", Role: entity.RoleAuthenticated,
		HashedPassword: hashOf(t, "correct-horse")}
	mockRepo.On("GetByEmail", mock.Anything, "a@example.com").Return(u, nil)
	mockRepo.On("RecordLoginSuccess", mock.Anything, "u1", mock.Anything).Return(nil)

	resp, pair, err := svc.Login(context.Background(), "a@example.com", "correct-horse")

	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "AUTHENTICATED", resp.Role)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.NotEmpty(t, claims.SessionID)
}

func TestRegisterAssignsAuthenticatedRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	var created *entity.User
	mockRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*entity.User)
	}).Return(nil)

	u, err := svc.Register(context.Background(), RegisterInput{Nickname: "al", Email: "a@example.com", Password: "secret-pw"})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, entity.RoleAuthenticated, u.Role)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "secret-pw", u.HashedPassword)
	assert.True(t, helpers.CompareHashAndPassword(u.HashedPassword, "secret-pw"))
}

func TestRegisterDuplicate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(repo.ErrDuplicate)

	_, err := svc.Register(context.Background(), RegisterInput{Nickname: "al", Email: "a@example.com", Password: "secret-pw"})

	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestUpdateProfileCannotChangeRole(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	admin := entity.RoleAdmin
	nick := "newnick"
	mockRepo.On("Update", mock.Anything, "u1", mock.MatchedBy(func(f repo.UpdateFields) bool {
		return f.Role == nil && f.Nickname != nil && *f.Nickname == "newnick"
	})).Return(&entity.User{ID: "u1", Nickname: "newnick"}, nil)

	_, err := svc.UpdateProfile(context.Background(), "u1", repo.UpdateFields{Nickname: &nick, Role: &admin})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUnlockUserKeepsCounter(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	mockRepo.On("SetLocked", mock.Anything, "u1", false).Return(nil)

	err := svc.UnlockUser(context.Background(), "u1")

	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "ResetFailedAttempts", mock.Anything, mock.Anything)
}

func TestListUsersClampsLimit(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	mockRepo.On("List", mock.Anything, 20, 0).Return([]*entity.User{}, 0, nil)

	_, _, err := svc.ListUsers(context.Background(), 1000, -5)

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUpdateProfessionalStatusRestamps(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	stamped := time.Now().UTC()
	u := &entity.User{ID: "u1", IsProfessional: true, ProfessionalStatusUpdatedAt: &stamped}
	mockRepo.On("SetProfessionalStatus", mock.Anything, "u1", true, mock.Anything).Return(nil)
	mockRepo.On("GetByID", mock.Anything, "u1").Return(u, nil)

	got, err := svc.UpdateProfessionalStatus(context.Background(), "u1", true)

	require.NoError(t, err)
	assert.True(t, got.IsProfessional)
	mockRepo.AssertExpectations(t)
}

func TestDeleteUserNotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := newTestService(t, mockRepo)

	mockRepo.On("Delete", mock.Anything, "missing").Return(repo.ErrNotFound)

	err := svc.DeleteUser(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrUserNotFound)
}
