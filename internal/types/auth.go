package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is an account allowed to save routes.
type User struct {
	ID           uuid.UUID `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"`
	Username     string    `json:"username" example:"johndoe"`
	Email        string    `json:"email" example:"john.doe@example.com"`
	PasswordHash string    `json:"-"` // never exposed
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the registration body.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50" example:"johndoe"`
	Email    string `json:"email" validate:"required,email" example:"john.doe@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"Str0ngP@ss!"`
}

// LoginRequest is the login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"john.doe@example.com"`
	Password string `json:"password" validate:"required" example:"password123"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token" example:"eyJhbGciOiJI..."`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// UserExistsResponse answers an email availability check.
type UserExistsResponse struct {
	Email  string `json:"email"`
	Exists bool   `json:"exists"`
}

// Claims are the custom claims of an access token.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr,omitempty"`
	Email    string `json:"eml"`
	jwt.RegisteredClaims
}
