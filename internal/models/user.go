package models

import "time"

// AuthMethod identifies how an account authenticates
type AuthMethod string

const (
	AuthMethodEmail  AuthMethod = "email"
	AuthMethodGoogle AuthMethod = "google"
)

// User is an authentication-level identity
type User struct {
	ID           int64      `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Phone        string     `json:"phone" db:"phone"`
	PasswordHash *string    `json:"-" db:"password_hash"`
	GoogleID     *string    `json:"-" db:"google_id"`
	PictureURL   *string    `json:"picture_url,omitempty" db:"picture_url"`
	AuthMethod   AuthMethod `json:"auth_method" db:"auth_method"`
	Verified     bool       `json:"verified" db:"verified"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// AuthSession is a database-backed opaque bearer token. Revocation is a
// row delete; expiry is checked on every lookup.
type AuthSession struct {
	Token     string    `json:"token" db:"token"`
	UserID    int64     `json:"user_id" db:"user_id"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SignUpRequest is the email/password registration payload
type SignUpRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	NokName   string `json:"nokName"`
	NokPhone  string `json:"nokPhone"`
}

// SignInRequest is the email/password sign-in payload
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GoogleAuthRequest carries the claims the client decoded from the Google
// ID token, plus contact fields on sign-up.
type GoogleAuthRequest struct {
	Mode       string `json:"mode"` // "signin" or "signup"
	Credential string `json:"credential"`
	GoogleID   string `json:"googleId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Picture    string `json:"picture"`
	Phone      string `json:"phone"`
	NokName    string `json:"nokName"`
	NokPhone   string `json:"nokPhone"`
}

// AuthResponse is returned on successful sign-in/sign-up
type AuthResponse struct {
	Token     string `json:"token"`
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
}
