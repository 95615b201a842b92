package entity

import (
	"fmt"
	"time"
)

// MaxFailedLoginAttempts is the number of consecutive failed logins that
// trips the account lock. The lock never clears on its own; it takes an
// explicit unlock.
const MaxFailedLoginAttempts = 3

// User is the aggregate root for the account domain.
// HashedPassword holds a bcrypt hash and is never serialized outward.
//
// Nickname and email are globally unique; the users table enforces that with
// unique indexes rather than an application-level check.
type User struct {
	ID             string
	Nickname       string
	Email          string
	HashedPassword string
	Role           Role

	FirstName          *string
	LastName           *string
	Bio                *string
	ProfilePictureURL  *string
	LinkedinProfileURL *string
	GithubProfileURL   *string

	EmailVerified       bool
	IsLocked            bool
	FailedLoginAttempts int
	IsProfessional      bool

	ProfessionalStatusUpdatedAt *time.Time
	LastLoginAt                 *time.Time
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// LockAccount marks the account locked. Subsequent authentication attempts
// are rejected before any credential comparison.
func (u *User) LockAccount() { u.IsLocked = true }

// UnlockAccount clears the lock. The failed-attempt counter is left as-is;
// lock state and counter are related but independently mutable.
func (u *User) UnlockAccount() { u.IsLocked = false }

// VerifyEmail marks the email address verified. Idempotent.
func (u *User) VerifyEmail() { u.EmailVerified = true }

// HasRole reports whether the account holds exactly the candidate role.
func (u *User) HasRole(r Role) bool { return u.Role == r }

// UpdateProfessionalStatus sets the professional flag and restamps the
// update time on every call, even when the flag value does not change.
func (u *User) UpdateProfessionalStatus(professional bool) {
	now := time.Now().UTC()
	u.IsProfessional = professional
	u.ProfessionalStatusUpdatedAt = &now
}

// RegisterFailedLogin increments the failure counter and trips the lock once
// the counter reaches MaxFailedLoginAttempts. It returns the resulting lock
// state. The persisted equivalent runs as a single atomic UPDATE so that
// concurrent failures cannot under-count.
func (u *User) RegisterFailedLogin() bool {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= MaxFailedLoginAttempts {
		u.LockAccount()
	}
	return u.IsLocked
}

// RegisterSuccessfulLogin resets the failure counter and stamps the login
// time.
func (u *User) RegisterSuccessfulLogin(at time.Time) {
	u.FailedLoginAttempts = 0
	u.LastLoginAt = &at
}

// DisplayName prefers first/last name and falls back to the nickname.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != nil && u.LastName != nil:
		return *u.FirstName + " " + *u.LastName
	case u.FirstName != nil:
		return *u.FirstName
	default:
		return u.Nickname
	}
}

func (u *User) String() string {
	return fmt.Sprintf("<User %s, Role: %s>", u.Nickname, u.Role)
}
