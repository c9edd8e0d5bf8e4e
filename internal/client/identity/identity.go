// Package identity is the client side of the identity provider: account
// creation, sign-in and sign-out, display-name updates, and a push stream
// of authentication state changes.
package identity

import (
	"context"
	"errors"

	"investorconnect/internal/core/domain"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailInUse is returned when registering an existing email
	ErrEmailInUse = errors.New("email already in use")
	// ErrAccountDisabled is returned when the account may not sign in
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrNotSignedIn is returned by operations that need a session
	ErrNotSignedIn = errors.New("identity: not signed in")
	// ErrInvalidInput wraps field errors reported by the provider
	ErrInvalidInput = errors.New("identity: invalid input")
)

// inputError carries the provider's own wording
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }
func (e *inputError) Unwrap() error { return ErrInvalidInput }

// Event is one authentication state change. A nil Identity means signed out.
type Event struct {
	Identity *domain.Identity
}

// Provider is what the application needs from the identity provider
type Provider interface {
	// CreateAccount registers and signs in a new account
	CreateAccount(ctx context.Context, email, password string) (domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (domain.Identity, error)
	SignOut(ctx context.Context) error
	// UpdateDisplayName changes the signed-in account's display name
	UpdateDisplayName(ctx context.Context, displayName string) (domain.Identity, error)
	// Current returns the signed-in identity or nil
	Current() *domain.Identity
	// Subscribe streams state changes. Once the provider has initialized,
	// the channel first carries the current state. The returned func
	// unsubscribes and closes the channel.
	Subscribe() (<-chan Event, func())
}
