package auth

import "time"

// Role values stored on users and sessions.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account in the system. The password hash never leaves
// the package via JSON.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the projection returned by admin listings. It carries no
// credential material.
type UserSummary struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest is the request payload for creating an account
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request payload for authenticating
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the response after successful authentication
type AuthResponse struct {
	User *User `json:"user"`
}

// StatusResponse reports whether the current request carries a valid session.
type StatusResponse struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	User            *UserSummary `json:"user,omitempty"`
}
