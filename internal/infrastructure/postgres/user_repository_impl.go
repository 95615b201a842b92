package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
	"github.com/oksasatya/user-management-service/internal/domain/repository"
)

// UserRepository is the pgx-backed implementation of the account store.
// Every mutation is a single statement, so concurrent logins against the
// same account serialize on the row without in-process locks.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	u := &entity.User{}
	var role string
	err := row.Scan(
		&u.ID, &u.Nickname, &u.Email, &u.HashedPassword, &role,
		&u.FirstName, &u.LastName, &u.Bio, &u.ProfilePictureURL, &u.LinkedinProfileURL, &u.GithubProfileURL,
		&u.EmailVerified, &u.IsLocked, &u.FailedLoginAttempts, &u.IsProfessional,
		&u.ProfessionalStatusUpdatedAt, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, nickname, email, hashed_password, role,
			first_name, last_name, bio, profile_picture_url, linkedin_profile_url, github_profile_url,
			email_verified, is_professional)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`, u.ID, u.Nickname, u.Email, u.HashedPassword, string(u.Role),
		u.FirstName, u.LastName, u.Bio, u.ProfilePictureURL, u.LinkedinProfileURL, u.GithubProfileURL,
		u.EmailVerified, u.IsProfessional)

	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = $1", value)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user by %s: %w", column, err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByNickname(ctx context.Context, nickname string) (*entity.User, error) {
	return r.getBy(ctx, "nickname", nickname)
}

// Update applies only the fields present in the partial update, building the
// SET list dynamically so untouched columns stay untouched.
func (r *UserRepository) Update(ctx context.Context, id string, fields repository.UpdateFields) (*entity.User, error) {
	var (
		set  []string
		args []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Nickname != nil {
		add("nickname", *fields.Nickname)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.FirstName != nil {
		add("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		add("last_name", *fields.LastName)
	}
	if fields.Bio != nil {
		add("bio", *fields.Bio)
	}
	if fields.ProfilePictureURL != nil {
		add("profile_picture_url", *fields.ProfilePictureURL)
	}
	if fields.LinkedinProfileURL != nil {
		add("linkedin_profile_url", *fields.LinkedinProfileURL)
	}
	if fields.GithubProfileURL != nil {
		add("github_profile_url", *fields.GithubProfileURL)
	}
	if fields.Role != nil {
		add("role", string(*fields.Role))
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}
	set = append(set, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), userColumns)

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Search(ctx context.Context, c repository.SearchCriteria) ([]*entity.User, error) {
	query, args := buildSearchQuery(c)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*entity.User, error) {
	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RecordLoginFailure bumps the counter and trips the lock at the threshold
// in one statement. Two concurrent failures both land: each bump sees the
// committed counter, so the lock decision is never lost to a race.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string) (int, bool, error) {
	var (
		attempts int
		locked   bool
	)
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    is_locked = is_locked OR failed_login_attempts + 1 >= $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts, is_locked
	`, id, entity.MaxFailedLoginAttempts).Scan(&attempts, &locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, repository.ErrNotFound
		}
		return 0, false, fmt.Errorf("record login failure: %w", err)
	}
	return attempts, locked, nil
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, last_login_at = $2, updated_at = now()
		WHERE id = $1
	`, id, at)
}

func (r *UserRepository) SetLocked(ctx context.Context, id string, locked bool) error {
	return r.exec(ctx,
		"UPDATE users SET is_locked = $2, updated_at = now() WHERE id = $1", id, locked)
}

func (r *UserRepository) ResetFailedAttempts(ctx context.Context, id string) error {
	return r.exec(ctx,
		"UPDATE users SET failed_login_attempts = 0, updated_at = now() WHERE id = $1", id)
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.exec(ctx,
		"UPDATE users SET email_verified = TRUE, updated_at = now() WHERE id = $1", id)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	return r.exec(ctx,
		"UPDATE users SET hashed_password = $2, updated_at = now() WHERE id = $1", id, hashedPassword)
}

func (r *UserRepository) SetProfessionalStatus(ctx context.Context, id string, professional bool, at time.Time) error {
	return r.exec(ctx, `
		UPDATE users
		SET is_professional = $2, professional_status_updated_at = $3, updated_at = now()
		WHERE id = $1
	`, id, professional, at)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
