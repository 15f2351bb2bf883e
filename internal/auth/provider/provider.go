// Package provider defines the collaborator interfaces the authentication
// controllers depend on: the identity provider itself and the out-of-band
// phone challenge service. Implementations live in the devprovider (bundled,
// in-process) and restprovider (hosted API) subpackages.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
)

var (
	ErrInvalidCredentials = errors.New("provider: invalid email or password")
	ErrEmailInUse         = errors.New("provider: email already in use")
	ErrNoCurrentUser      = errors.New("provider: no signed-in user")
	ErrInvalidCode        = errors.New("provider: invalid or expired verification code")
	ErrResolverExpired    = errors.New("provider: sign-in session expired or already used")
	ErrAlreadyEnrolled    = errors.New("provider: a phone factor is already enrolled")
	ErrFactorNotFound     = errors.New("provider: enrolled factor not found")
)

// SecondFactorRequiredError is the distinguished Authenticate failure that
// carries the paused sign-in: an opaque resolver handle plus the hints for
// the factors enrolled on the account.
type SecondFactorRequiredError struct {
	Resolver domain.ResolverHandle
	Hints    []domain.FactorHint
}

func (e *SecondFactorRequiredError) Error() string {
	return fmt.Sprintf("provider: second factor required (%d enrolled factors)", len(e.Hints))
}

// Identity is the primary-credential surface of the identity provider.
type Identity interface {
	// CreateAccount registers a new account and signs it in.
	CreateAccount(ctx context.Context, email, password string) (domain.User, error)

	// Authenticate exchanges email+password for a session. When the account
	// has a second factor enrolled it fails with *SecondFactorRequiredError.
	Authenticate(ctx context.Context, email, password string) (domain.User, error)

	// ResolveSignIn redeems a second-factor assertion against a paused
	// sign-in. The resolver is consumed on success and stays redeemable on
	// failure, until the provider's own expiry.
	ResolveSignIn(ctx context.Context, resolver domain.ResolverHandle, assertion domain.Assertion) (domain.User, error)

	// CurrentUser reports the cached signed-in user, if any.
	CurrentUser() (domain.User, bool)

	// SignOut drops the cached session. Local only, never fails.
	SignOut()

	// Enroll attaches a verified phone factor to the current user.
	Enroll(ctx context.Context, assertion domain.Assertion, displayName string) error

	// Unenroll removes an enrolled factor from the current user.
	Unenroll(ctx context.Context, factorID string) error

	// EnrolledFactors lists the current user's registered second factors.
	EnrolledFactors(ctx context.Context) ([]domain.FactorHint, error)
}

// PhoneChallenger dispatches out-of-band SMS challenges. A zero resolver
// means enrollment for the current user; a non-zero resolver binds the
// challenge to a paused sign-in.
type PhoneChallenger interface {
	DispatchChallenge(ctx context.Context, phoneNumber string, resolver domain.ResolverHandle) domain.ChallengeOutcome
}

// TokenSession is implemented by providers whose session can be persisted
// as an ID token and restored on the next run.
type TokenSession interface {
	// IDToken returns the token minted at the last sign-in, or "" when
	// signed out.
	IDToken() string

	// RestoreSession validates a previously issued token and signs the
	// matching account back in.
	RestoreSession(ctx context.Context, token string) error
}
