package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-management-service/config"
	userapp "github.com/oksasatya/user-management-service/internal/application"
	"github.com/oksasatya/user-management-service/pkg/helpers"
	"github.com/oksasatya/user-management-service/pkg/mailer"
	tpl "github.com/oksasatya/user-management-service/pkg/mailer/templates"
	"github.com/oksasatya/user-management-service/pkg/response"
	"github.com/oksasatya/user-management-service/pkg/validation"
)

// AuthHandler owns the email-verification and password-reset token flows.
// Tokens live in Redis with a TTL; the mapped account id is the value.
type AuthHandler struct {
	Svc    *userapp.Service
	RDB    *redis.Client
	Logger *logrus.Logger
	Cfg    *config.Config
	Pub    *helpers.RabbitPublisher
}

func NewAuthHandler(svc *userapp.Service, rdb *redis.Client, logger *logrus.Logger, cfg *config.Config, pub *helpers.RabbitPublisher) *AuthHandler {
	return &AuthHandler{Svc: svc, RDB: rdb, Logger: logger, Cfg: cfg, Pub: pub}
}

func keyVerifyToken(t string) string { return "email:verify:token:" + t }
func keyResetToken(t string) string  { return "pwd:reset:token:" + t }

func genToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// VerifyInit POST /api/auth/verify/init (auth required)
// Mints a verification token and queues the email with the link.
func (h *AuthHandler) VerifyInit(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	if u.EmailVerified {
		response.Success(c, http.StatusOK, gin.H{"already_verified": true}, "already verified", nil)
		return
	}

	tok, err := genToken(32)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "token generation failed", nil)
		return
	}
	h.RDB.Set(c, keyVerifyToken(tok), uid, 24*time.Hour)
	link := h.Cfg.VerifyEmailURL + "?token=" + tok

	if h.Pub != nil && h.Cfg.MailSendEnabled {
		job := mailer.EmailJob{
			To:       u.Email,
			Template: tpl.VerifyEmail,
			Data: mailer.EmailData{
				Name:      u.DisplayName(),
				Email:     u.Email,
				AppName:   h.Cfg.AppName,
				ActionURL: link,
				ExpiresIn: "24 hours",
			},
		}
		if pErr := h.Pub.PublishJSON(c, job); pErr != nil {
			h.Logger.WithError(pErr).Warn("queue verification email failed")
		}
	}

	response.Success(c, http.StatusOK, gin.H{"verify_link": link}, "verification link", nil)
}

// VerifyConfirm POST /api/auth/verify/confirm {token}
func (h *AuthHandler) VerifyConfirm(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, err := h.RDB.Get(c, keyVerifyToken(req.Token)).Result()
	if err != nil || uid == "" {
		response.Error(c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	if err := h.Svc.VerifyEmail(c.Request.Context(), uid); err != nil {
		response.Error(c, http.StatusBadRequest, "verification failed", nil)
		return
	}
	h.RDB.Del(c, keyVerifyToken(req.Token))
	response.Success(c, http.StatusOK, gin.H{"verified": true}, "email verified", nil)
}

// ResetInit POST /api/auth/reset/init {email}
// Always answers OK so callers cannot enumerate registered emails.
func (h *AuthHandler) ResetInit(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	if u, err := h.Svc.GetUserByEmail(c.Request.Context(), req.Email); err == nil {
		tok, tErr := genToken(32)
		if tErr != nil {
			response.Error(c, http.StatusInternalServerError, "token generation failed", nil)
			return
		}
		h.RDB.Set(c, keyResetToken(tok), u.ID, 30*time.Minute)
		link := h.Cfg.ResetPasswordURL + "?token=" + tok

		if h.Pub != nil && h.Cfg.MailSendEnabled {
			job := mailer.EmailJob{
				To:       u.Email,
				Template: tpl.ResetPassword,
				Data: mailer.EmailData{
					Name:      u.DisplayName(),
					Email:     u.Email,
					AppName:   h.Cfg.AppName,
					ActionURL: link,
					ExpiresIn: "30 minutes",
				},
			}
			if pErr := h.Pub.PublishJSON(c, job); pErr != nil {
				h.Logger.WithError(pErr).Warn("queue reset email failed")
			}
		}
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true}, "reset link sent if the email exists", nil)
}

// ResetConfirm POST /api/auth/reset/confirm {token, new_password}
func (h *AuthHandler) ResetConfirm(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,pwd"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, err := h.RDB.Get(c, keyResetToken(req.Token)).Result()
	if err != nil || uid == "" {
		response.Error(c, http.StatusBadRequest, "invalid or expired token", nil)
		return
	}
	if err := h.Svc.UpdatePassword(c.Request.Context(), uid, req.NewPassword); err != nil {
		response.Error(c, http.StatusInternalServerError, "password update failed", nil)
		return
	}
	h.RDB.Del(c, keyResetToken(req.Token))
	response.Success(c, http.StatusOK, gin.H{"reset": true}, "password updated", nil)
}
