package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// SignupRequest registers a new portal account.
type SignupRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	FullName  string  `json:"full_name" validate:"required"`
	StudentID *string `json:"student_id,omitempty"`
	IP        string  `json:"-"`
	UserAgent string  `json:"-"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	StudentID *string  `json:"student_id,omitempty"`
	Role      UserRole `json:"role"`
}

// JWTClaims carries the identity attached to an access token.
type JWTClaims struct {
	UserID   string   `json:"uid"`
	Role     UserRole `json:"role"`
	FullName string   `json:"name"`
	jwt.RegisteredClaims
}

// CanManageOccupancy reports whether the actor holds the administrative
// capability required for occupy/vacate operations.
func (c *JWTClaims) CanManageOccupancy() bool {
	if c == nil {
		return false
	}
	return c.Role == RoleAdmin || c.Role == RoleTeacher
}
