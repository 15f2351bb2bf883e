// Package devprovider is a complete in-process identity provider. It backs
// the default "local" provider mode so the application runs self-contained,
// and it is the provider the test suite exercises the controllers against.
//
// Accounts are held in memory with argon2id password hashes. Sign-ins mint
// HS256 ID tokens so a session can be restored across process restarts.
// SMS codes are minted with HOTP over a per-challenge secret and handed to
// an SMSOutbox instead of a carrier.
package devprovider

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"golang.org/x/time/rate"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/auth/provider"
	"github.com/weatherwise/weatherwise/pkg/cryptox"
	"github.com/weatherwise/weatherwise/pkg/idx"
)

const (
	// MaxResolverAttempts caps failed proof redemptions per paused sign-in
	// before the resolver is discarded (brute-force backstop).
	MaxResolverAttempts = 5

	// DefaultChallengeTTL mirrors the 60s timeout the hosted provider
	// applies to an outstanding SMS challenge.
	DefaultChallengeTTL = 60 * time.Second

	// DefaultResolverTTL bounds how long a paused sign-in stays redeemable.
	DefaultResolverTTL = 5 * time.Minute

	otpSecretBytes = 20
)

// SMSOutbox receives the one-time codes the provider would otherwise hand
// to a carrier. The CLI prints them; tests capture them.
type SMSOutbox interface {
	Deliver(phoneNumber, code string)
}

// SMSOutboxFunc adapts a function to the SMSOutbox interface.
type SMSOutboxFunc func(phoneNumber, code string)

func (f SMSOutboxFunc) Deliver(phoneNumber, code string) { f(phoneNumber, code) }

type account struct {
	id           string
	email        string
	passwordHash string
	factor       *phoneFactor
	createdAt    time.Time
}

type phoneFactor struct {
	id          string
	phoneNumber string
	displayName string
	enrolledAt  time.Time
}

type challenge struct {
	id        string
	phone     string
	secret    string // HOTP secret, counter 0, single code
	resolver  domain.ResolverHandle
	expiresAt time.Time
}

type resolverSession struct {
	handle    domain.ResolverHandle
	accountID string
	attempts  int
	expiresAt time.Time
}

// Options tunes the provider. The zero value is usable.
type Options struct {
	SigningKey   []byte        // HS256 key for ID tokens; random when nil
	TokenTTL     time.Duration // ID token lifetime (default 1h)
	ChallengeTTL time.Duration
	ResolverTTL  time.Duration

	// DispatchRate throttles challenge dispatches per phone number. The
	// zero value means one dispatch per 10 seconds with a burst of 3.
	DispatchRate  rate.Limit
	DispatchBurst int

	// AutoVerifyNumbers are treated as instantly verified: dispatching to
	// one of them yields an auto-verified credential with no SMS sent,
	// matching the hosted provider's instant-verification path.
	AutoVerifyNumbers []string

	Outbox SMSOutbox
	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Provider implements provider.Identity and provider.PhoneChallenger.
type Provider struct {
	mu sync.Mutex

	byEmail map[string]*account
	byID    map[string]*account

	challenges map[string]*challenge
	resolvers  map[domain.ResolverHandle]*resolverSession
	limiters   map[string]*rate.Limiter

	currentID    string
	currentToken string

	autoVerify map[string]bool

	signingKey    []byte
	tokenTTL      time.Duration
	challengeTTL  time.Duration
	resolverTTL   time.Duration
	dispatchRate  rate.Limit
	dispatchBurst int

	outbox SMSOutbox
	logger *slog.Logger
	now    func() time.Time
}

func New(opts Options) *Provider {
	p := &Provider{
		byEmail:       make(map[string]*account),
		byID:          make(map[string]*account),
		challenges:    make(map[string]*challenge),
		resolvers:     make(map[domain.ResolverHandle]*resolverSession),
		limiters:      make(map[string]*rate.Limiter),
		autoVerify:    make(map[string]bool),
		signingKey:    opts.SigningKey,
		tokenTTL:      opts.TokenTTL,
		challengeTTL:  opts.ChallengeTTL,
		resolverTTL:   opts.ResolverTTL,
		dispatchRate:  opts.DispatchRate,
		dispatchBurst: opts.DispatchBurst,
		outbox:        opts.Outbox,
		logger:        opts.Logger,
		now:           opts.Now,
	}

	if p.signingKey == nil {
		key, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			panic(fmt.Sprintf("devprovider: failed to generate signing key: %v", err))
		}
		p.signingKey = []byte(key)
	}
	if p.tokenTTL <= 0 {
		p.tokenTTL = time.Hour
	}
	if p.challengeTTL <= 0 {
		p.challengeTTL = DefaultChallengeTTL
	}
	if p.resolverTTL <= 0 {
		p.resolverTTL = DefaultResolverTTL
	}
	if p.dispatchRate <= 0 {
		p.dispatchRate = rate.Every(10 * time.Second)
	}
	if p.dispatchBurst <= 0 {
		p.dispatchBurst = 3
	}
	if p.outbox == nil {
		p.outbox = SMSOutboxFunc(func(string, string) {})
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	for _, n := range opts.AutoVerifyNumbers {
		p.autoVerify[n] = true
	}

	return p
}

// CreateAccount registers a new account and signs it in.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return domain.User{}, provider.ErrEmailInUse
	}

	acct := &account{
		id:           idx.New().String(),
		email:        email,
		passwordHash: hash,
		createdAt:    p.now(),
	}
	p.byEmail[email] = acct
	p.byID[acct.id] = acct

	p.signInLocked(acct)
	p.logger.Debug("account created", "user_id", acct.id)
	return userOf(acct), nil
}

// Authenticate verifies the primary credential. Accounts with an enrolled
// phone factor pause with *provider.SecondFactorRequiredError instead of
// signing in.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.byEmail[email]
	if !ok {
		return domain.User{}, provider.ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(password, acct.passwordHash); err != nil {
		return domain.User{}, provider.ErrInvalidCredentials
	}

	if acct.factor != nil {
		sess := &resolverSession{
			handle:    domain.ResolverHandle(idx.New().String()),
			accountID: acct.id,
			expiresAt: p.now().Add(p.resolverTTL),
		}
		p.resolvers[sess.handle] = sess
		p.logger.Debug("sign-in paused for second factor", "user_id", acct.id)
		return domain.User{}, &provider.SecondFactorRequiredError{
			Resolver: sess.handle,
			Hints:    hintsOf(acct),
		}
	}

	p.signInLocked(acct)
	return userOf(acct), nil
}

// DispatchChallenge sends (or auto-verifies) an SMS challenge. All failure
// modes are reported through the outcome, never an error: the callback
// contract has exactly three shapes.
func (p *Provider) DispatchChallenge(ctx context.Context, phoneNumber string, resolver domain.ResolverHandle) domain.ChallengeOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !resolver.IsZero() {
		sess, ok := p.resolvers[resolver]
		if !ok || p.now().After(sess.expiresAt) {
			return domain.DispatchFailed("sign-in session expired, start over")
		}
		// The login path dispatches to the enrolled number, not the typed
		// input. The hint carries a masked number, so resolve it here.
		if acct := p.byID[sess.accountID]; acct != nil && acct.factor != nil {
			phoneNumber = acct.factor.phoneNumber
		}
	}

	if !p.limiterFor(phoneNumber).Allow() {
		return domain.DispatchFailed("too many code requests for this number, try again shortly")
	}

	ch := &challenge{
		id:        idx.New().String(),
		phone:     phoneNumber,
		resolver:  resolver,
		expiresAt: p.now().Add(p.challengeTTL),
	}

	secret, err := cryptox.GenerateOTPSecret(otpSecretBytes)
	if err != nil {
		return domain.DispatchFailed("could not generate a verification code")
	}
	ch.secret = secret

	code, err := hotp.GenerateCodeCustom(ch.secret, 0, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.DispatchFailed("could not generate a verification code")
	}

	p.challenges[ch.id] = ch

	if p.autoVerify[phoneNumber] {
		p.logger.Debug("challenge auto-verified", "challenge_id", ch.id)
		return domain.AutoVerified(domain.Credential{ChallengeID: ch.id, Code: code})
	}

	p.outbox.Deliver(phoneNumber, code)
	p.logger.Debug("challenge dispatched", "challenge_id", ch.id)
	return domain.ChallengeSent(ch.id)
}

// ResolveSignIn redeems an assertion against a paused sign-in. The resolver
// survives failed redemptions (so the user may retry with a fresh code) up
// to MaxResolverAttempts, and is consumed on success.
func (p *Provider) ResolveSignIn(ctx context.Context, resolver domain.ResolverHandle, assertion domain.Assertion) (domain.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.resolvers[resolver]
	if !ok || p.now().After(sess.expiresAt) {
		delete(p.resolvers, resolver)
		return domain.User{}, provider.ErrResolverExpired
	}

	ch, err := p.takeChallengeLocked(assertion.Credential)
	if err != nil {
		sess.attempts++
		if sess.attempts >= MaxResolverAttempts {
			delete(p.resolvers, resolver)
			p.logger.Warn("resolver discarded after too many failed proofs", "user_id", sess.accountID)
		}
		return domain.User{}, err
	}
	if !ch.resolver.IsZero() && ch.resolver != resolver {
		sess.attempts++
		return domain.User{}, provider.ErrInvalidCode
	}

	acct := p.byID[sess.accountID]
	if acct == nil {
		delete(p.resolvers, resolver)
		return domain.User{}, provider.ErrResolverExpired
	}

	delete(p.resolvers, resolver) // single use
	p.signInLocked(acct)
	p.logger.Debug("second-factor sign-in resolved", "user_id", acct.id)
	return userOf(acct), nil
}

// Enroll attaches a verified phone factor to the current user.
func (p *Provider) Enroll(ctx context.Context, assertion domain.Assertion, displayName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct := p.byID[p.currentID]
	if acct == nil {
		return provider.ErrNoCurrentUser
	}
	if acct.factor != nil {
		return provider.ErrAlreadyEnrolled
	}

	ch, err := p.takeChallengeLocked(assertion.Credential)
	if err != nil {
		return err
	}

	acct.factor = &phoneFactor{
		id:          idx.New().String(),
		phoneNumber: ch.phone,
		displayName: displayName,
		enrolledAt:  p.now(),
	}
	p.logger.Debug("phone factor enrolled", "user_id", acct.id)
	return nil
}

// Unenroll removes an enrolled factor from the current user.
func (p *Provider) Unenroll(ctx context.Context, factorID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct := p.byID[p.currentID]
	if acct == nil {
		return provider.ErrNoCurrentUser
	}
	if acct.factor == nil || acct.factor.id != factorID {
		return provider.ErrFactorNotFound
	}

	acct.factor = nil
	p.logger.Debug("phone factor removed", "user_id", acct.id)
	return nil
}

// EnrolledFactors lists the current user's registered second factors.
func (p *Provider) EnrolledFactors(ctx context.Context) ([]domain.FactorHint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct := p.byID[p.currentID]
	if acct == nil {
		return nil, provider.ErrNoCurrentUser
	}
	return hintsOf(acct), nil
}

// CurrentUser reports the cached signed-in user.
func (p *Provider) CurrentUser() (domain.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct := p.byID[p.currentID]
	if acct == nil {
		return domain.User{}, false
	}
	return userOf(acct), true
}

// SignOut drops the cached session.
func (p *Provider) SignOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentID = ""
	p.currentToken = ""
}

// IDToken returns the HS256 ID token minted at the last sign-in, or "" when
// signed out. The CLI persists it to restore the session on the next run.
func (p *Provider) IDToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentToken
}

// RestoreSession validates a previously issued ID token and, when it names
// a known account and has not expired, signs that account back in.
func (p *Provider) RestoreSession(ctx context.Context, token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return p.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acct := p.byID[sub]
	if acct == nil {
		return provider.ErrNoCurrentUser
	}
	p.currentID = acct.id
	p.currentToken = token
	return nil
}

// takeChallengeLocked validates and consumes a challenge. Callers hold p.mu.
func (p *Provider) takeChallengeLocked(cred domain.Credential) (*challenge, error) {
	ch, ok := p.challenges[cred.ChallengeID]
	if !ok || p.now().After(ch.expiresAt) {
		delete(p.challenges, cred.ChallengeID)
		return nil, provider.ErrInvalidCode
	}

	match, err := hotp.ValidateCustom(cred.Code, 0, ch.secret, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !match {
		return nil, provider.ErrInvalidCode
	}

	delete(p.challenges, cred.ChallengeID) // single use
	return ch, nil
}

func (p *Provider) signInLocked(acct *account) {
	p.currentID = acct.id

	now := p.now()
	claims := jwt.MapClaims{
		"sub":   acct.id,
		"email": acct.email,
		"iat":   now.Unix(),
		"exp":   now.Add(p.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signingKey)
	if err != nil {
		// Signing HS256 with an in-memory key cannot realistically fail;
		// a missing token only disables session restore.
		p.logger.Error("failed to sign ID token", "error", err)
		token = ""
	}
	p.currentToken = token
}

func (p *Provider) limiterFor(phone string) *rate.Limiter {
	l, ok := p.limiters[phone]
	if !ok {
		l = rate.NewLimiter(p.dispatchRate, p.dispatchBurst)
		p.limiters[phone] = l
	}
	return l
}

func userOf(acct *account) domain.User {
	return domain.User{ID: acct.id, Email: acct.email, CreatedAt: acct.createdAt}
}

func hintsOf(acct *account) []domain.FactorHint {
	if acct.factor == nil {
		return nil
	}
	return []domain.FactorHint{{
		FactorID:    acct.factor.id,
		Kind:        domain.FactorKindPhone,
		DisplayName: acct.factor.displayName,
		PhoneNumber: domain.MaskPhone(acct.factor.phoneNumber),
	}}
}
