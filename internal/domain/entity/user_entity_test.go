package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	u := &User{Nickname: "alice", Role: RoleAuthenticated}

	assert.False(t, u.IsLocked)
	u.LockAccount()
	assert.True(t, u.IsLocked)

	// Locking an already locked account stays locked.
	u.LockAccount()
	assert.True(t, u.IsLocked)

	u.UnlockAccount()
	assert.False(t, u.IsLocked)
}

func TestUnlockKeepsFailedAttempts(t *testing.T) {
	u := &User{FailedLoginAttempts: 2, IsLocked: true}

	u.UnlockAccount()

	assert.False(t, u.IsLocked)
	assert.Equal(t, 2, u.FailedLoginAttempts)
}

func TestVerifyEmailIdempotent(t *testing.T) {
	u := &User{}

	u.VerifyEmail()
	assert.True(t, u.EmailVerified)
	u.VerifyEmail()
	assert.True(t, u.EmailVerified)
}

func TestHasRole(t *testing.T) {
	u := &User{Role: RoleManager}

	assert.True(t, u.HasRole(RoleManager))
	// Exact match only; MANAGER does not imply ADMIN or AUTHENTICATED.
	assert.False(t, u.HasRole(RoleAdmin))
	assert.False(t, u.HasRole(RoleAuthenticated))
}

func TestUpdateProfessionalStatusRestampsOnNoChange(t *testing.T) {
	u := &User{}

	u.UpdateProfessionalStatus(true)
	require.NotNil(t, u.ProfessionalStatusUpdatedAt)
	first := *u.ProfessionalStatusUpdatedAt
	assert.True(t, u.IsProfessional)

	time.Sleep(5 * time.Millisecond)

	// Same value again still moves the timestamp forward.
	u.UpdateProfessionalStatus(true)
	require.NotNil(t, u.ProfessionalStatusUpdatedAt)
	assert.True(t, u.ProfessionalStatusUpdatedAt.After(first))
}

func TestRegisterFailedLoginLocksAtThreshold(t *testing.T) {
	u := &User{}

	for i := 1; i < MaxFailedLoginAttempts; i++ {
		locked := u.RegisterFailedLogin()
		assert.False(t, locked, "attempt %d should not lock", i)
		assert.Equal(t, i, u.FailedLoginAttempts)
	}

	locked := u.RegisterFailedLogin()
	assert.True(t, locked)
	assert.True(t, u.IsLocked)
	assert.Equal(t, MaxFailedLoginAttempts, u.FailedLoginAttempts)
}

func TestRegisterSuccessfulLoginResetsCounter(t *testing.T) {
	u := &User{FailedLoginAttempts: 2}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	u.RegisterSuccessfulLogin(at)

	assert.Equal(t, 0, u.FailedLoginAttempts)
	require.NotNil(t, u.LastLoginAt)
	assert.Equal(t, at, *u.LastLoginAt)
}

func TestDisplayName(t *testing.T) {
	first := "Ada"
	last := "Lovelace"

	u := &User{Nickname: "ada"}
	assert.Equal(t, "ada", u.DisplayName())

	u.FirstName = &first
	assert.Equal(t, "Ada", u.DisplayName())

	u.LastName = &last
	assert.Equal(t, "Ada Lovelace", u.DisplayName())
}

func TestString(t *testing.T) {
	u := &User{Nickname: "bob", Role: RoleAdmin}
	assert.Equal(t, "<User bob, Role: ADMIN>", u.String())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("MANAGER")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, r)

	_, err = ParseRole("SUPERUSER")
	assert.Error(t, err)
}
