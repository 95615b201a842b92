package application

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
)

func newTracker(repo *MockUserRepository) *LoginTracker {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &LoginTracker{Repo: repo, Logger: logger}
}

func TestRecordAttemptLockedAccountRejected(t *testing.T) {
	repo := new(MockUserRepository)
	tracker := newTracker(repo)

	u := &entity.User{ID: "u1", IsLocked: true, FailedLoginAttempts: 3}

	// Even a correct password is rejected while locked.
	out, err := tracker.RecordAttempt(context.Background(), u, true)

	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.True(t, out.Locked)
	assert.Equal(t, 3, out.Attempts)
	// No store mutation happened.
	repo.AssertNotCalled(t, "RecordLoginFailure", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "RecordLoginSuccess", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordAttemptFailureBelowThreshold(t *testing.T) {
	repo := new(MockUserRepository)
	tracker := newTracker(repo)

	u := &entity.User{ID: "u1", FailedLoginAttempts: 1}
	repo.On("RecordLoginFailure", mock.Anything, "u1").Return(2, false, nil)

	out, err := tracker.RecordAttempt(context.Background(), u, false)

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 2, out.Attempts)
	assert.False(t, out.Locked)
	assert.False(t, out.LockedNow)
	assert.Equal(t, 2, u.FailedLoginAttempts)
	assert.False(t, u.IsLocked)
	repo.AssertExpectations(t)
}

func TestRecordAttemptThirdFailureLocks(t *testing.T) {
	repo := new(MockUserRepository)
	tracker := newTracker(repo)

	var notified *entity.User
	tracker.OnLock = func(_ context.Context, u *entity.User) { notified = u }

	u := &entity.User{ID: "u1", FailedLoginAttempts: 2}
	repo.On("RecordLoginFailure", mock.Anything, "u1").Return(3, true, nil)

	out, err := tracker.RecordAttempt(context.Background(), u, false)

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, out.Locked)
	assert.True(t, out.LockedNow)
	assert.Equal(t, 3, out.Attempts)
	assert.True(t, u.IsLocked)
	require.NotNil(t, notified)
	assert.Equal(t, "u1", notified.ID)
	repo.AssertExpectations(t)
}

func TestRecordAttemptSuccessResetsCounter(t *testing.T) {
	repo := new(MockUserRepository)
	tracker := newTracker(repo)

	u := &entity.User{ID: "u1", FailedLoginAttempts: 2}
	repo.On("RecordLoginSuccess", mock.Anything, "u1", mock.Anything).Return(nil)

	_, err := tracker.RecordAttempt(context.Background(), u, true)

	require.NoError(t, err)
	assert.Equal(t, 0, u.FailedLoginAttempts)
	assert.NotNil(t, u.LastLoginAt)
	repo.AssertExpectations(t)
}

func TestRecordAttemptSuccessDoesNotUnlock(t *testing.T) {
	repo := new(MockUserRepository)
	tracker := newTracker(repo)

	// Lock persists until an explicit unlock; success cannot clear it
	// because the attempt never reaches credential comparison.
	u := &entity.User{ID: "u1", IsLocked: true}

	_, err := tracker.RecordAttempt(context.Background(), u, true)

	assert.ErrorIs(t, err, ErrAccountLocked)
	assert.True(t, u.IsLocked)
}
