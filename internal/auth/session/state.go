// Package session holds the two controllers that drive the MFA-aware
// authentication flow: the identity session controller (primary credential
// exchange, current user, second-factor pause) and the second-factor
// verifier (SMS challenge dispatch, code capture, proof construction).
package session

import "github.com/weatherwise/weatherwise/internal/auth/domain"

// StateKind enumerates the identity session states. Exactly one is active
// at a time.
type StateKind int

const (
	StateIdle StateKind = iota
	StateLoading
	StateAuthenticated
	StateFailed
	StateSecondFactorRequired
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	case StateSecondFactorRequired:
		return "second_factor_required"
	}
	return "unknown"
}

// State is the tagged session state. Only the fields for the active kind
// are meaningful; use the constructors below.
type State struct {
	Kind     StateKind
	User     domain.User           // StateAuthenticated
	Message  string                // StateFailed
	Resolver domain.ResolverHandle // StateSecondFactorRequired
	Hints    []domain.FactorHint   // StateSecondFactorRequired
}

func Idle() State    { return State{Kind: StateIdle} }
func Loading() State { return State{Kind: StateLoading} }

func Authenticated(u domain.User) State {
	return State{Kind: StateAuthenticated, User: u}
}

func Failed(message string) State {
	return State{Kind: StateFailed, Message: message}
}

func SecondFactorRequired(resolver domain.ResolverHandle, hints []domain.FactorHint) State {
	return State{Kind: StateSecondFactorRequired, Resolver: resolver, Hints: hints}
}
