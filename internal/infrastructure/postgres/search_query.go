package postgres

import (
	"fmt"
	"strings"

	"github.com/oksasatya/user-management-service/internal/domain/repository"
)

const userColumns = `id, nickname, email, hashed_password, role,
	first_name, last_name, bio, profile_picture_url, linkedin_profile_url, github_profile_url,
	email_verified, is_locked, failed_login_attempts, is_professional,
	professional_status_updated_at, last_login_at, created_at, updated_at`

// buildSearchQuery folds the present criteria into a single SELECT. Each
// criterion contributes one AND-combined clause, so the composition is
// order-independent and criteria can be added without touching the others.
func buildSearchQuery(c repository.SearchCriteria) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.SearchTerm != nil {
		p := arg("%" + *c.SearchTerm + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(email ILIKE %[1]s OR nickname ILIKE %[1]s OR first_name ILIKE %[1]s OR last_name ILIKE %[1]s)", p))
	}
	if c.Role != nil {
		clauses = append(clauses, "role = "+arg(string(*c.Role)))
	}
	if c.IsLocked != nil {
		clauses = append(clauses, "is_locked = "+arg(*c.IsLocked))
	}
	if c.IsVerified != nil {
		clauses = append(clauses, "email_verified = "+arg(*c.IsVerified))
	}
	if c.RegistrationStart != nil {
		clauses = append(clauses, "created_at >= "+arg(*c.RegistrationStart))
	}
	if c.RegistrationEnd != nil {
		clauses = append(clauses, "created_at <= "+arg(*c.RegistrationEnd))
	}

	query := "SELECT " + userColumns + " FROM users"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
}
