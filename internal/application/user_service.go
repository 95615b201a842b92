package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
	repo "github.com/oksasatya/user-management-service/internal/domain/repository"
	"github.com/oksasatya/user-management-service/pkg/helpers"
	"github.com/oksasatya/user-management-service/pkg/mailer"
	tpl "github.com/oksasatya/user-management-service/pkg/mailer/templates"
)

// Service owns the account use-cases: registration, authentication with the
// lockout tracker, self-service profile edits, the administrative surface,
// and criteria search.
type Service struct {
	Repo         repo.UserRepository
	Attempts     *LoginTracker
	JWT          *helpers.JWTManager
	GCS          *storage.Client
	GCSBucket    string
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          *helpers.RabbitPublisher

	AppName    string
	SupportURL string
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string,
	rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string,
	pub *helpers.RabbitPublisher, appName, supportURL string) *Service {
	s := &Service{
		Repo:         r,
		JWT:          jwt,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Redis:        rdb,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Pub:          pub,
		AppName:      appName,
		SupportURL:   supportURL,
	}
	s.Attempts = &LoginTracker{Repo: r, Logger: logger, OnLock: s.sendLockNotice}
	return s
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// RegisterInput is what the registration collaborator supplies.
type RegisterInput struct {
	Nickname  string
	Email     string
	Password  string
	FirstName *string
	LastName  *string
	Bio       *string
}

// Register creates an account with the AUTHENTICATED role. Duplicate
// nickname or email surfaces as repo.ErrDuplicate; the unique indexes are
// authoritative and there is no pre-check.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		ID:             uuid.NewString(),
		Nickname:       in.Nickname,
		Email:          in.Email,
		HashedPassword: hash,
		Role:           entity.RoleAuthenticated,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Bio:            in.Bio,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// Authenticate validates email/password through the lockout tracker. A
// locked account is rejected before the bcrypt comparison happens.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if u.IsLocked {
		return nil, ErrAccountLocked
	}
	ok := helpers.CompareHashAndPassword(u.HashedPassword, password)
	if _, err := s.Attempts.RecordAttempt(ctx, u, ok); err != nil {
		return nil, err
	}
	return u, nil
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type LoginResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	resp := &LoginResponse{UserID: u.ID, Email: u.Email, Nickname: u.Nickname, Role: u.Role.String()}
	return resp, pair, nil
}

// IssueTokens generates an access/refresh pair and records a session in
// Redis keyed by the account id.
func (s *Service) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"nickname":   u.Nickname,
			"role":       u.Role.String(),
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh validates a refresh token against the current session and rotates
// the session id together with the token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	if u.IsLocked {
		return TokenPair{}, "", ErrAccountLocked
	}
	if s.Redis != nil {
		key := sessionKey(u.ID)
		data, rErr := s.Redis.HGetAll(ctx, key).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID, nil
}

func (s *Service) Logout(ctx context.Context, userID string) {
	if s.Redis != nil {
		s.Redis.Del(ctx, sessionKey(userID))
	}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// GetUserByEmail fetches without a password check (verification flows).
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile applies a self-service partial update and refreshes the
// session cache and mirror index.
func (s *Service) UpdateProfile(ctx context.Context, userID string, fields repo.UpdateFields) (*entity.User, error) {
	// Self-service edits never touch role or credentials.
	fields.Role = nil
	u, err := s.Repo.Update(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"nickname":   u.Nickname,
			"updated_at": nowRFC3339(),
		})
		if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		if _, pErr := pipe.Exec(ctx); pErr != nil {
			s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	_ = s.indexUser(ctx, u)
	return u, nil
}

// UploadProfilePicture stores the image in GCS and points
// profile_picture_url at the uploaded object.
func (s *Service) UploadProfilePicture(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("profile-pictures", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u, err := s.Repo.Update(ctx, userID, repo.UpdateFields{ProfilePictureURL: &url})
	if err != nil {
		return "", err
	}
	_ = s.indexUser(ctx, u)
	return url, nil
}

// VerifyEmail marks the address verified. Idempotent.
func (s *Service) VerifyEmail(ctx context.Context, userID string) error {
	if err := s.Repo.MarkEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// --- Administrative surface ---

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, limit, offset)
}

// SearchUsers runs the criteria search against the store. Absent criteria
// match everything; inconsistent date ranges are passed through as given.
func (s *Service) SearchUsers(ctx context.Context, c repo.SearchCriteria) ([]*entity.User, error) {
	return s.Repo.Search(ctx, c)
}

func (s *Service) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.GetProfile(ctx, id)
}

// AdminUpdateUser applies a partial update including role changes.
func (s *Service) AdminUpdateUser(ctx context.Context, id string, fields repo.UpdateFields) (*entity.User, error) {
	u, err := s.Repo.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// DeleteUser removes the account permanently. There is no tombstone state.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if s.Redis != nil {
		s.Redis.Del(ctx, sessionKey(id))
	}
	s.deleteIndexed(ctx, id)
	return nil
}

func (s *Service) LockUser(ctx context.Context, id string) error {
	return s.setLocked(ctx, id, true)
}

// UnlockUser clears the lock only; the failed-attempt counter keeps its
// value until a successful login or an explicit reset.
func (s *Service) UnlockUser(ctx context.Context, id string) error {
	return s.setLocked(ctx, id, false)
}

func (s *Service) setLocked(ctx context.Context, id string, locked bool) error {
	if err := s.Repo.SetLocked(ctx, id, locked); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *Service) ResetFailedAttempts(ctx context.Context, id string) error {
	if err := s.Repo.ResetFailedAttempts(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// UpdateProfessionalStatus sets the flag and restamps the update time on
// every call, even when the flag value is unchanged.
func (s *Service) UpdateProfessionalStatus(ctx context.Context, id string, professional bool) (*entity.User, error) {
	if err := s.Repo.SetProfessionalStatus(ctx, id, professional, time.Now().UTC()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// --- Mirror index and notifications ---

// indexUser mirrors the account document to Elasticsearch, best effort. The
// criteria search reads Postgres; the mirror exists for external consumers.
func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":              u.ID,
		"nickname":        u.Nickname,
		"email":           u.Email,
		"role":            u.Role.String(),
		"email_verified":  u.EmailVerified,
		"is_locked":       u.IsLocked,
		"is_professional": u.IsProfessional,
		"created_at":      u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":      u.UpdatedAt.Format(time.RFC3339Nano),
	}
	if u.FirstName != nil {
		doc["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		doc["last_name"] = *u.LastName
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

func (s *Service) deleteIndexed(ctx context.Context, id string) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if res, err := req.Do(c, s.ES); err == nil {
		_ = res.Body.Close()
	}
}

// sendLockNotice queues the account-locked email when the tracker trips the
// lock.
func (s *Service) sendLockNotice(ctx context.Context, u *entity.User) {
	if s.Pub == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: tpl.AccountLocked,
		Data: mailer.EmailData{
			Name:       u.DisplayName(),
			Email:      u.Email,
			AppName:    s.AppName,
			SupportURL: s.SupportURL,
		},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("queue lock notice failed")
	}
}
