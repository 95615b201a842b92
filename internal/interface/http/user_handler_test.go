package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userapp "github.com/oksasatya/user-management-service/internal/application"
	"github.com/oksasatya/user-management-service/internal/domain/entity"
	"github.com/oksasatya/user-management-service/internal/domain/repository"
	"github.com/oksasatya/user-management-service/pkg/helpers"
	"github.com/oksasatya/user-management-service/pkg/validation"
)

// stubRepo backs handler tests with canned accounts keyed by email.
type stubRepo struct {
	users map[string]*entity.User
}

func (s *stubRepo) Create(ctx context.Context, u *entity.User) error { return nil }
func (s *stubRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}
func (s *stubRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}
func (s *stubRepo) GetByNickname(ctx context.Context, nickname string) (*entity.User, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) Update(ctx context.Context, id string, fields repository.UpdateFields) (*entity.User, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) Delete(ctx context.Context, id string) error { return nil }
func (s *stubRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, int, error) {
	return nil, 0, nil
}
func (s *stubRepo) Search(ctx context.Context, c repository.SearchCriteria) ([]*entity.User, error) {
	return nil, nil
}
func (s *stubRepo) RecordLoginFailure(ctx context.Context, id string) (int, bool, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return 0, false, err
	}
	locked := u.RegisterFailedLogin()
	return u.FailedLoginAttempts, locked, nil
}
func (s *stubRepo) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.RegisterSuccessfulLogin(at)
	return nil
}
func (s *stubRepo) SetLocked(ctx context.Context, id string, locked bool) error  { return nil }
func (s *stubRepo) ResetFailedAttempts(ctx context.Context, id string) error     { return nil }
func (s *stubRepo) MarkEmailVerified(ctx context.Context, id string) error       { return nil }
func (s *stubRepo) UpdatePassword(ctx context.Context, id, hash string) error    { return nil }
func (s *stubRepo) SetProfessionalStatus(ctx context.Context, id string, professional bool, at time.Time) error {
	return nil
}

func newLoginRouter(t *testing.T, repo repository.UserRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	jwt := helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, 7*24*time.Hour)
	svc := userapp.NewService(repo, jwt, nil, "", nil, logger, nil, "", nil, "testapp", "")
	h := NewUserHandler(svc, logger, "localhost", false)

	r := gin.New()
	r.POST("/api/login", h.Login)
	return r
}

func postLogin(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	hash, err := helpers.HashPassword("correct-horse")
	require.NoError(t, err)
	repo := &stubRepo{users: map[string]*entity.User{
		"a@example.com": {ID: "u1", Email: "a@example.com", Nickname: "al", Role: entity.RoleAuthenticated, HashedPassword: hash},
	}}
	r := newLoginRouter(t, repo)

	w := postLogin(r, `{"email":"a@example.com","password":"battery-staple"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

func TestLoginUnknownEmailLooksLikeBadPassword(t *testing.T) {
	r := newLoginRouter(t, &stubRepo{users: map[string]*entity.User{}})

	w := postLogin(r, `{"email":"ghost@example.com","password":"battery-staple"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")
}

func TestLoginLockedAccountReturns403(t *testing.T) {
	hash, err := helpers.HashPassword("correct-horse")
	require.NoError(t, err)
	repo := &stubRepo{users: map[string]*entity.User{
		"a@example.com": {ID: "u1", Email: "a@example.com", Nickname: "al", Role: entity.RoleAuthenticated,
			HashedPassword: hash, IsLocked: true},
	}}
	r := newLoginRouter(t, repo)

	// Correct password still rejected while locked, with a distinct message.
	w := postLogin(r, `{"email":"a@example.com","password":"correct-horse"}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "account locked")
}

func TestLoginThirdFailureLocksAccount(t *testing.T) {
	hash, err := helpers.HashPassword("correct-horse")
	require.NoError(t, err)
	u := &entity.User{ID: "u1", Email: "a@example.com", Nickname: "al", Role: entity.RoleAuthenticated, HashedPassword: hash}
	r := newLoginRouter(t, &stubRepo{users: map[string]*entity.User{"a@example.com": u}})

	for i := 0; i < entity.MaxFailedLoginAttempts; i++ {
		w := postLogin(r, `{"email":"a@example.com","password":"battery-staple"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	assert.True(t, u.IsLocked)

	// Even the correct password is rejected now.
	w := postLogin(r, `{"email":"a@example.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginSuccessSetsCookies(t *testing.T) {
	hash, err := helpers.HashPassword("correct-horse")
	require.NoError(t, err)
	repo := &stubRepo{users: map[string]*entity.User{
		"a@example.com": {ID: "u1", Email: "a@example.com", Nickname: "al", Role: entity.RoleAuthenticated, HashedPassword: hash},
	}}
	r := newLoginRouter(t, repo)

	w := postLogin(r, `{"email":"a@example.com","password":"correct-horse"}`)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, ck := range cookies {
		names[ck.Name] = true
	}
	assert.True(t, names["access_token"])
	assert.True(t, names["refresh_token"])
}
