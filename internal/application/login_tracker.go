package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
	"github.com/oksasatya/user-management-service/internal/domain/repository"
)

var (
	// ErrInvalidCredentials covers both a wrong password and a nonexistent
	// account, so callers cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned before any credential comparison when the
	// account is locked; the caller surfaces it as "too many attempts".
	ErrAccountLocked = errors.New("account locked")
	ErrUserNotFound  = errors.New("user not found")
)

// LoginTracker decides counter and lock mutation around each authentication
// attempt. It never retries: each call is one deterministic state transition
// applied as a single statement in the store.
type LoginTracker struct {
	Repo   repository.UserRepository
	Logger *logrus.Logger

	// OnLock runs after an attempt trips the lock (notification hook).
	OnLock func(ctx context.Context, u *entity.User)
}

// AttemptOutcome reports the account's attempt state after a recorded
// attempt.
type AttemptOutcome struct {
	Attempts  int
	Locked    bool
	LockedNow bool // this attempt tripped the lock
}

// RecordAttempt applies the lockout state machine for one attempt and
// mirrors the persisted result onto u.
//
// Locked accounts are rejected outright. A failure bumps the counter and
// trips the lock at the threshold atomically with the increment. A success
// resets the counter and stamps the login time.
func (t *LoginTracker) RecordAttempt(ctx context.Context, u *entity.User, succeeded bool) (AttemptOutcome, error) {
	if u.IsLocked {
		return AttemptOutcome{Attempts: u.FailedLoginAttempts, Locked: true}, ErrAccountLocked
	}

	if !succeeded {
		attempts, locked, err := t.Repo.RecordLoginFailure(ctx, u.ID)
		if err != nil {
			return AttemptOutcome{}, err
		}
		u.FailedLoginAttempts = attempts
		u.IsLocked = locked
		if locked {
			t.Logger.WithFields(logrus.Fields{
				"user_id":  u.ID,
				"attempts": attempts,
			}).Warn("account locked after repeated failed logins")
			if t.OnLock != nil {
				t.OnLock(ctx, u)
			}
		}
		return AttemptOutcome{Attempts: attempts, Locked: locked, LockedNow: locked}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := t.Repo.RecordLoginSuccess(ctx, u.ID, now); err != nil {
		return AttemptOutcome{}, err
	}
	u.RegisterSuccessfulLogin(now)
	return AttemptOutcome{}, nil
}
