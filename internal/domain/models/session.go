package models

import (
	"strings"
	"time"
)

// Session is the authenticated identity passed explicitly to every gateway call.
type Session struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Token     string    `bson:"token"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Credentials is the body of the login and register calls.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate requires both fields.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return NewValidationError("email", "is required")
	}
	if c.Password == "" {
		return NewValidationError("password", "is required")
	}
	return nil
}

// EmailStatus is the answer of the check-email call.
type EmailStatus struct {
	Authorized bool `json:"authorized"`
	Registered bool `json:"registered"`
}
