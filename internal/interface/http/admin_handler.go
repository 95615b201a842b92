package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-management-service/internal/application"
	"github.com/oksasatya/user-management-service/internal/domain/entity"
	repo "github.com/oksasatya/user-management-service/internal/domain/repository"
	"github.com/oksasatya/user-management-service/pkg/response"
	"github.com/oksasatya/user-management-service/pkg/validation"
)

// AdminHandler is the MANAGER/ADMIN surface over the account collection.
type AdminHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAdminHandler(svc *userapp.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

// List GET /api/admin/users?limit=&offset=
func (h *AdminHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, total, err := h.Svc.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.Logger.WithError(err).Error("list users failed")
		response.Error(c, http.StatusInternalServerError, "list failed", nil)
		return
	}
	response.Success(c, http.StatusOK, toUserViews(users), "users", map[string]any{
		"total": total, "limit": limit, "offset": offset,
	})
}

// Search GET /api/admin/users/search
//
// Every query parameter is optional; absent parameters add no restriction.
// An end date before the start date is accepted as given and simply yields
// an empty result.
func (h *AdminHandler) Search(c *gin.Context) {
	criteria, err := parseSearchCriteria(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	users, err := h.Svc.SearchUsers(c.Request.Context(), criteria)
	if err != nil {
		h.Logger.WithError(err).Error("search users failed")
		response.Error(c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, toUserViews(users), "search results", map[string]any{
		"count": len(users),
	})
}

func parseSearchCriteria(c *gin.Context) (repo.SearchCriteria, error) {
	var criteria repo.SearchCriteria

	if v, ok := c.GetQuery("search_term"); ok {
		criteria.SearchTerm = &v
	}
	if v, ok := c.GetQuery("role"); ok {
		role, err := entity.ParseRole(v)
		if err != nil {
			return criteria, err
		}
		criteria.Role = &role
	}
	if v, ok := c.GetQuery("is_locked"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return criteria, errors.New("is_locked must be a boolean")
		}
		criteria.IsLocked = &b
	}
	if v, ok := c.GetQuery("is_verified"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return criteria, errors.New("is_verified must be a boolean")
		}
		criteria.IsVerified = &b
	}
	if v, ok := c.GetQuery("registration_start"); ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return criteria, errors.New("registration_start must be RFC3339")
		}
		criteria.RegistrationStart = &t
	}
	if v, ok := c.GetQuery("registration_end"); ok {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return criteria, errors.New("registration_end must be RFC3339")
		}
		criteria.RegistrationEnd = &t
	}
	return criteria, nil
}

// Get GET /api/admin/users/:id
func (h *AdminHandler) Get(c *gin.Context) {
	u, err := h.Svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "user", nil)
}

type adminUpdateRequest struct {
	Nickname           *string `json:"nickname" binding:"omitempty,nickname"`
	Email              *string `json:"email" binding:"omitempty,email"`
	FirstName          *string `json:"first_name" binding:"omitempty,max=100"`
	LastName           *string `json:"last_name" binding:"omitempty,max=100"`
	Bio                *string `json:"bio" binding:"omitempty,max=500"`
	ProfilePictureURL  *string `json:"profile_picture_url" binding:"omitempty,url,max=255"`
	LinkedinProfileURL *string `json:"linkedin_profile_url" binding:"omitempty,url,max=255"`
	GithubProfileURL   *string `json:"github_profile_url" binding:"omitempty,url,max=255"`
	Role               *string `json:"role" binding:"omitempty,role"`
}

// Update PATCH /api/admin/users/:id
func (h *AdminHandler) Update(c *gin.Context) {
	var req adminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	fields := repo.UpdateFields{
		Nickname:           req.Nickname,
		Email:              req.Email,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Bio:                req.Bio,
		ProfilePictureURL:  req.ProfilePictureURL,
		LinkedinProfileURL: req.LinkedinProfileURL,
		GithubProfileURL:   req.GithubProfileURL,
	}
	if req.Role != nil {
		role, err := entity.ParseRole(*req.Role)
		if err != nil {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		fields.Role = &role
	}

	u, err := h.Svc.AdminUpdateUser(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, repo.ErrDuplicate):
			response.Error(c, http.StatusConflict, "nickname or email already in use", nil)
		default:
			h.Logger.WithError(err).Error("admin update failed")
			response.Error(c, http.StatusInternalServerError, "update failed", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "user updated", nil)
}

// Delete DELETE /api/admin/users/:id performs a hard delete.
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("delete user failed")
		response.Error(c, http.StatusInternalServerError, "delete failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
}

// Lock POST /api/admin/users/:id/lock
func (h *AdminHandler) Lock(c *gin.Context) {
	h.setLocked(c, true)
}

// Unlock POST /api/admin/users/:id/unlock clears the lock without touching
// the failed-attempt counter.
func (h *AdminHandler) Unlock(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *AdminHandler) setLocked(c *gin.Context, locked bool) {
	var err error
	if locked {
		err = h.Svc.LockUser(c.Request.Context(), c.Param("id"))
	} else {
		err = h.Svc.UnlockUser(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "lock update failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"is_locked": locked}, "lock state updated", nil)
}

// ResetAttempts POST /api/admin/users/:id/reset-attempts
func (h *AdminHandler) ResetAttempts(c *gin.Context) {
	if err := h.Svc.ResetFailedAttempts(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "reset failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"failed_login_attempts": 0}, "attempts reset", nil)
}

// SetProfessionalStatus PUT /api/admin/users/:id/professional
func (h *AdminHandler) SetProfessionalStatus(c *gin.Context) {
	var req struct {
		IsProfessional *bool `json:"is_professional" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfessionalStatus(c.Request.Context(), c.Param("id"), *req.IsProfessional)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		response.Error(c, http.StatusInternalServerError, "update failed", nil)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "professional status updated", nil)
}
