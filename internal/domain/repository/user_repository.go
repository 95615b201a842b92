package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the given key.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate is returned when a nickname or email collides with an
	// existing account. The unique indexes are authoritative; callers do not
	// retry.
	ErrDuplicate = errors.New("nickname or email already in use")
)

// SearchCriteria is a set of independently optional filters combined with
// AND semantics. A nil field means "no restriction from this dimension";
// the zero value matches the whole collection.
type SearchCriteria struct {
	// SearchTerm matches case-insensitively as a substring of email,
	// nickname, first name, or last name (OR within this one criterion).
	SearchTerm        *string
	Role              *entity.Role
	IsLocked          *bool
	IsVerified        *bool
	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
}

// UpdateFields carries a partial update; nil fields are left untouched.
type UpdateFields struct {
	Nickname           *string
	Email              *string
	FirstName          *string
	LastName           *string
	Bio                *string
	ProfilePictureURL  *string
	LinkedinProfileURL *string
	GithubProfileURL   *string
	Role               *entity.Role
}

// UserRepository defines the persistence contract for accounts. Every
// mutation is a single atomic statement against the store; the store is the
// only synchronization point for concurrent attempts on the same account.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByNickname(ctx context.Context, nickname string) (*entity.User, error)
	Update(ctx context.Context, id string, fields UpdateFields) (*entity.User, error)
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, limit, offset int) ([]*entity.User, int, error)
	Search(ctx context.Context, c SearchCriteria) ([]*entity.User, error)

	// RecordLoginFailure increments the failed-attempt counter and trips the
	// lock at the threshold in the same statement, returning the new counter
	// and lock state.
	RecordLoginFailure(ctx context.Context, id string) (attempts int, locked bool, err error)
	// RecordLoginSuccess resets the counter and stamps last_login_at.
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error

	SetLocked(ctx context.Context, id string, locked bool) error
	ResetFailedAttempts(ctx context.Context, id string) error
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
	SetProfessionalStatus(ctx context.Context, id string, professional bool, at time.Time) error
}
