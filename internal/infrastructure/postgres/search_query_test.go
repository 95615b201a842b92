package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
	"github.com/oksasatya/user-management-service/internal/domain/repository"
)

func TestBuildSearchQueryNoCriteria(t *testing.T) {
	query, args := buildSearchQuery(repository.SearchCriteria{})

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.Empty(t, args)
}

func TestBuildSearchQuerySearchTerm(t *testing.T) {
	term := "smith"
	query, args := buildSearchQuery(repository.SearchCriteria{SearchTerm: &term})

	assert.Contains(t, query, "email ILIKE $1")
	assert.Contains(t, query, "nickname ILIKE $1")
	assert.Contains(t, query, "first_name ILIKE $1")
	assert.Contains(t, query, "last_name ILIKE $1")
	require.Len(t, args, 1)
	assert.Equal(t, "%smith%", args[0])
}

func TestBuildSearchQueryRole(t *testing.T) {
	role := entity.RoleManager
	query, args := buildSearchQuery(repository.SearchCriteria{Role: &role})

	assert.Contains(t, query, "role = $1")
	require.Len(t, args, 1)
	assert.Equal(t, "MANAGER", args[0])
}

func TestBuildSearchQueryBooleans(t *testing.T) {
	locked := true
	verified := false
	query, args := buildSearchQuery(repository.SearchCriteria{IsLocked: &locked, IsVerified: &verified})

	assert.Contains(t, query, "is_locked = $1")
	assert.Contains(t, query, "email_verified = $2")
	require.Len(t, args, 2)
	assert.Equal(t, true, args[0])
	assert.Equal(t, false, args[1])
}

func TestBuildSearchQueryDateRange(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	query, args := buildSearchQuery(repository.SearchCriteria{RegistrationStart: &start, RegistrationEnd: &end})

	assert.Contains(t, query, "created_at >= $1")
	assert.Contains(t, query, "created_at <= $2")
	require.Len(t, args, 2)
}

func TestBuildSearchQueryCombined(t *testing.T) {
	term := "ada"
	role := entity.RoleAuthenticated
	locked := false
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildSearchQuery(repository.SearchCriteria{
		SearchTerm:        &term,
		Role:              &role,
		IsLocked:          &locked,
		RegistrationStart: &start,
	})

	// Criteria combine conjunctively; any account must satisfy all of them.
	assert.Equal(t, 3, strings.Count(query, " AND "))
	assert.Contains(t, query, "role = $2")
	assert.Contains(t, query, "is_locked = $3")
	assert.Contains(t, query, "created_at >= $4")
	require.Len(t, args, 4)
	assert.Equal(t, "%ada%", args[0])
}
