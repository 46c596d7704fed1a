package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator verifies user credentials.
// Implementations decide what a credential is (password, OAuth token, etc.)
// so services never depend on one method.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user whose credential matches.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential meets the implementation's rules.
	ValidateCredential(credential string) error

	// ChangeCredential replaces the credential after re-checking the
	// current one.
	ChangeCredential(ctx context.Context, email, current, next string) (*models.User, error)
}
