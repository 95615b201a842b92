package handlers

import (
	"time"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
)

// UserView is the outward shape of an account. The credential hash never
// leaves the service.
type UserView struct {
	ID                          string     `json:"id"`
	Nickname                    string     `json:"nickname"`
	Email                       string     `json:"email"`
	Role                        string     `json:"role"`
	FirstName                   *string    `json:"first_name,omitempty"`
	LastName                    *string    `json:"last_name,omitempty"`
	Bio                         *string    `json:"bio,omitempty"`
	ProfilePictureURL           *string    `json:"profile_picture_url,omitempty"`
	LinkedinProfileURL          *string    `json:"linkedin_profile_url,omitempty"`
	GithubProfileURL            *string    `json:"github_profile_url,omitempty"`
	EmailVerified               bool       `json:"email_verified"`
	IsLocked                    bool       `json:"is_locked"`
	FailedLoginAttempts         int        `json:"failed_login_attempts"`
	IsProfessional              bool       `json:"is_professional"`
	ProfessionalStatusUpdatedAt *time.Time `json:"professional_status_updated_at,omitempty"`
	LastLoginAt                 *time.Time `json:"last_login_at,omitempty"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`
}

func toUserView(u *entity.User) UserView {
	return UserView{
		ID:                          u.ID,
		Nickname:                    u.Nickname,
		Email:                       u.Email,
		Role:                        u.Role.String(),
		FirstName:                   u.FirstName,
		LastName:                    u.LastName,
		Bio:                         u.Bio,
		ProfilePictureURL:           u.ProfilePictureURL,
		LinkedinProfileURL:          u.LinkedinProfileURL,
		GithubProfileURL:            u.GithubProfileURL,
		EmailVerified:               u.EmailVerified,
		IsLocked:                    u.IsLocked,
		FailedLoginAttempts:         u.FailedLoginAttempts,
		IsProfessional:              u.IsProfessional,
		ProfessionalStatusUpdatedAt: u.ProfessionalStatusUpdatedAt,
		LastLoginAt:                 u.LastLoginAt,
		CreatedAt:                   u.CreatedAt,
		UpdatedAt:                   u.UpdatedAt,
	}
}

func toUserViews(users []*entity.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	return out
}
