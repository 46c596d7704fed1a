package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	// It is the member ID used in group documents.
	ID string

	// Email is the user's email address (unique).
	// Pending invitations reference it until the user registers.
	Email string

	// DisplayName is the name shown in balances; may be empty.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        strings.TrimSpace(email),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Name returns the display name, falling back to the email local-part.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return EmailLocalPart(u.Email)
}

// EmailLocalPart returns the part of an email address before "@".
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
