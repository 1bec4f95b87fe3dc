package dto

import (
	"time"

	"github.com/oguzk/studentdesk/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username        string          `json:"username" binding:"required,min=3"`
	Password        string          `json:"password" binding:"required,min=6"`
	ConfirmPassword string          `json:"confirmPassword" binding:"required,eqfield=Password"`
	RoleType        models.RoleType `json:"roleType" binding:"omitempty,oneof=ADMIN STUDENT"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// NewUserResponse maps a user model to its API representation
func NewUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Role:        string(user.RoleType),
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}
