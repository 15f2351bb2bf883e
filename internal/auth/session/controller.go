package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/auth/provider"
)

// Controller owns the primary credential exchange: register, login, logout,
// and completing a login that paused for a second factor. It tracks the
// signed-in user and caches the resolver handle while a login is paused.
//
// Every operation maps its outcome onto the State field; no operation
// returns an error to the caller. Methods are safe for concurrent use,
// though the expected caller is a single UI loop.
type Controller struct {
	provider provider.Identity
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	user     domain.User
	hasUser  bool
	resolver domain.ResolverHandle
	hints    []domain.FactorHint
}

// NewController builds a controller seeded from any already-cached provider
// session, so a restored session starts out Authenticated instead of Idle.
func NewController(p provider.Identity, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{provider: p, logger: logger, state: Idle()}
	if user, ok := p.CurrentUser(); ok {
		c.user = user
		c.hasUser = true
		c.state = Authenticated(user)
	}
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser reports the signed-in user, if any.
func (c *Controller) CurrentUser() (domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user, c.hasUser
}

// Register creates a new account. On success the account is signed in and
// the state becomes Authenticated.
func (c *Controller) Register(ctx context.Context, email, password string) {
	c.setState(Loading())

	user, err := c.provider.CreateAccount(ctx, email, password)
	if err != nil {
		c.logger.Warn("registration failed", "error", err)
		c.setState(Failed(err.Error()))
		return
	}

	c.mu.Lock()
	c.user = user
	c.hasUser = true
	c.state = Authenticated(user)
	c.mu.Unlock()
	c.logger.Info("account registered", "user_id", user.ID)
}

// Login exchanges email+password for a session. When the provider demands a
// second factor the state becomes SecondFactorRequired and the resolver and
// hints are cached for CompleteSecondFactor.
func (c *Controller) Login(ctx context.Context, email, password string) {
	c.setState(Loading())

	user, err := c.provider.Authenticate(ctx, email, password)
	if err != nil {
		var mfaErr *provider.SecondFactorRequiredError
		if errors.As(err, &mfaErr) {
			c.mu.Lock()
			c.resolver = mfaErr.Resolver
			c.hints = mfaErr.Hints
			c.state = SecondFactorRequired(mfaErr.Resolver, mfaErr.Hints)
			c.mu.Unlock()
			c.logger.Info("login paused for second factor", "hints", len(mfaErr.Hints))
			return
		}
		c.logger.Warn("login failed", "error", err)
		c.setState(Failed(err.Error()))
		return
	}

	c.mu.Lock()
	c.user = user
	c.hasUser = true
	c.state = Authenticated(user)
	c.mu.Unlock()
	c.logger.Info("login succeeded", "user_id", user.ID)
}

// CompleteSecondFactor redeems a proof against the cached resolver. With no
// resolver cached it fails locally without contacting the provider. The
// resolver is cleared only on success; a failed proof leaves it cached so
// the user can retry with a fresh code until the provider expires it.
func (c *Controller) CompleteSecondFactor(ctx context.Context, proof domain.Assertion) {
	c.mu.Lock()
	resolver := c.resolver
	c.mu.Unlock()

	if resolver.IsZero() {
		c.setState(Failed("resolver not found"))
		return
	}

	c.setState(Loading())

	user, err := c.provider.ResolveSignIn(ctx, resolver, proof)
	if err != nil {
		c.logger.Warn("second-factor sign-in failed", "error", err)
		c.setState(Failed(err.Error()))
		return
	}

	c.mu.Lock()
	c.user = user
	c.hasUser = true
	c.resolver = ""
	c.hints = nil
	c.state = Authenticated(user)
	c.mu.Unlock()
	c.logger.Info("second-factor sign-in completed", "user_id", user.ID)
}

// Logout drops the session and every cached reference. It is synchronous
// and idempotent.
func (c *Controller) Logout() {
	c.provider.SignOut()

	c.mu.Lock()
	c.user = domain.User{}
	c.hasUser = false
	c.resolver = ""
	c.hints = nil
	c.state = Idle()
	c.mu.Unlock()
}

// ResetState forces the state back to Idle, except when a login is paused
// for a second factor: losing SecondFactorRequired would orphan the
// in-flight challenge, so it is preserved.
func (c *Controller) ResetState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind == StateSecondFactorRequired {
		return
	}
	c.state = Idle()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
