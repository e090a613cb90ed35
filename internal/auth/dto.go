package auth

import (
	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
)

// LoginRequest accepts either a username or an email as the login handle.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// Login returns the handle the caller supplied.
func (r LoginRequest) Login() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type VerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type PasswordChangeRequest struct {
	OldPassword  string `json:"old_password" validate:"required"`
	NewPassword1 string `json:"new_password1" validate:"required,min=6,max=128"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

// UserSummary is the account shape returned on login.
type UserSummary struct {
	PK        uuid.UUID `json:"pk"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func NewUserSummary(a *models.Account) UserSummary {
	return UserSummary{
		PK:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
}

// TokenPair is an access token and its refresh token.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResponse is written at the top level of the response body, next to
// "success".
type LoginResponse struct {
	Success bool        `json:"success"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    UserSummary `json:"user"`
	Role    enums.Role  `json:"role"`
}
