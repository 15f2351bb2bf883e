package devprovider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/auth/provider"
)

type outboxRecorder struct {
	codes  []string
	phones []string
}

func (o *outboxRecorder) Deliver(phone, code string) {
	o.phones = append(o.phones, phone)
	o.codes = append(o.codes, code)
}

func (o *outboxRecorder) last() string {
	if len(o.codes) == 0 {
		return ""
	}
	return o.codes[len(o.codes)-1]
}

func newTestProvider(t *testing.T) (*Provider, *outboxRecorder) {
	t.Helper()
	outbox := &outboxRecorder{}
	p := New(Options{
		Outbox:        outbox,
		DispatchRate:  rate.Inf,
		DispatchBurst: 100,
	})
	return p, outbox
}

func TestCreateAccountAndAuthenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestProvider(t)

	user, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	_, err = p.CreateAccount(ctx, "a@b.com", "other")
	require.ErrorIs(t, err, provider.ErrEmailInUse)

	p.SignOut()
	_, ok := p.CurrentUser()
	require.False(t, ok)

	got, err := p.Authenticate(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = p.Authenticate(ctx, "a@b.com", "wrong")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)

	_, err = p.Authenticate(ctx, "nobody@b.com", "pw123456")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)
}

func enrollPhone(t *testing.T, ctx context.Context, p *Provider, outbox *outboxRecorder, phone string) {
	t.Helper()

	outcome := p.DispatchChallenge(ctx, phone, "")
	require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)
	require.NotEmpty(t, outbox.last())

	cred := domain.Credential{ChallengeID: outcome.ChallengeID, Code: outbox.last()}
	require.NoError(t, p.Enroll(ctx, domain.PhoneAssertion(cred), "My phone"))
}

func TestEnrollmentFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, outbox := newTestProvider(t)

	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	enrollPhone(t, ctx, p, outbox, "+15551234567")

	hints, err := p.EnrolledFactors(ctx)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	require.Equal(t, domain.FactorKindPhone, hints[0].Kind)
	require.Equal(t, "+15*****4567", hints[0].PhoneNumber)

	// A second enrollment is rejected.
	outcome := p.DispatchChallenge(ctx, "+15559990000", "")
	require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)
	cred := domain.Credential{ChallengeID: outcome.ChallengeID, Code: outbox.last()}
	require.ErrorIs(t, p.Enroll(ctx, domain.PhoneAssertion(cred), "Second"), provider.ErrAlreadyEnrolled)
}

func TestEnrollRejectsWrongCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestProvider(t)

	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	outcome := p.DispatchChallenge(ctx, "+15551234567", "")
	require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)

	cred := domain.Credential{ChallengeID: outcome.ChallengeID, Code: "000000"}
	require.ErrorIs(t, p.Enroll(ctx, domain.PhoneAssertion(cred), "My phone"), provider.ErrInvalidCode)
}

func TestSecondFactorLoginFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, outbox := newTestProvider(t)

	user, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	enrollPhone(t, ctx, p, outbox, "+15551234567")
	p.SignOut()

	_, err = p.Authenticate(ctx, "a@b.com", "pw123456")
	var mfaErr *provider.SecondFactorRequiredError
	require.ErrorAs(t, err, &mfaErr)
	require.False(t, mfaErr.Resolver.IsZero())
	require.Len(t, mfaErr.Hints, 1)

	outcome := p.DispatchChallenge(ctx, mfaErr.Hints[0].PhoneNumber, mfaErr.Resolver)
	require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)
	// The dispatch goes to the real enrolled number, not the masked hint.
	require.Equal(t, "+15551234567", outbox.phones[len(outbox.phones)-1])

	cred := domain.Credential{ChallengeID: outcome.ChallengeID, Code: outbox.last()}
	got, err := p.ResolveSignIn(ctx, mfaErr.Resolver, domain.PhoneAssertion(cred))
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	current, ok := p.CurrentUser()
	require.True(t, ok)
	require.Equal(t, user.ID, current.ID)

	// The resolver was consumed.
	_, err = p.ResolveSignIn(ctx, mfaErr.Resolver, domain.PhoneAssertion(cred))
	require.ErrorIs(t, err, provider.ErrResolverExpired)
}

func TestResolverSurvivesFailedProofUntilAttemptCap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, outbox := newTestProvider(t)

	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	enrollPhone(t, ctx, p, outbox, "+15551234567")
	p.SignOut()

	_, err = p.Authenticate(ctx, "a@b.com", "pw123456")
	var mfaErr *provider.SecondFactorRequiredError
	require.ErrorAs(t, err, &mfaErr)

	bad := domain.PhoneAssertion(domain.Credential{ChallengeID: "missing", Code: "000000"})
	for range MaxResolverAttempts - 1 {
		_, err = p.ResolveSignIn(ctx, mfaErr.Resolver, bad)
		require.ErrorIs(t, err, provider.ErrInvalidCode)
	}

	// Still redeemable with a fresh, correct proof.
	outcome := p.DispatchChallenge(ctx, "", mfaErr.Resolver)
	require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)
	cred := domain.Credential{ChallengeID: outcome.ChallengeID, Code: outbox.last()}
	_, err = p.ResolveSignIn(ctx, mfaErr.Resolver, domain.PhoneAssertion(cred))
	require.NoError(t, err)
}

func TestResolverDiscardedAfterTooManyFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, outbox := newTestProvider(t)

	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)
	enrollPhone(t, ctx, p, outbox, "+15551234567")
	p.SignOut()

	_, err = p.Authenticate(ctx, "a@b.com", "pw123456")
	var mfaErr *provider.SecondFactorRequiredError
	require.ErrorAs(t, err, &mfaErr)

	bad := domain.PhoneAssertion(domain.Credential{ChallengeID: "missing", Code: "000000"})
	for range MaxResolverAttempts {
		_, err = p.ResolveSignIn(ctx, mfaErr.Resolver, bad)
		require.ErrorIs(t, err, provider.ErrInvalidCode)
	}

	_, err = p.ResolveSignIn(ctx, mfaErr.Resolver, bad)
	require.ErrorIs(t, err, provider.ErrResolverExpired)
}

func TestChallengeIsSingleUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, outbox := newTestProvider(t)

	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	outcome := p.DispatchChallenge(ctx, "+15551234567", "")
	require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)

	cred := domain.Credential{ChallengeID: outcome.ChallengeID, Code: outbox.last()}
	require.NoError(t, p.Enroll(ctx, domain.PhoneAssertion(cred), "My phone"))

	// The enrollment consumed the challenge; replaying it fails.
	factors, err := p.EnrolledFactors(ctx)
	require.NoError(t, err)
	require.NoError(t, p.Unenroll(ctx, factors[0].FactorID))
	require.ErrorIs(t, p.Enroll(ctx, domain.PhoneAssertion(cred), "again"), provider.ErrInvalidCode)
}

func TestAutoVerifyNumbers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	outbox := &outboxRecorder{}
	p := New(Options{
		Outbox:            outbox,
		DispatchRate:      rate.Inf,
		DispatchBurst:     100,
		AutoVerifyNumbers: []string{"+15550000001"},
	})

	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	outcome := p.DispatchChallenge(ctx, "+15550000001", "")
	require.Equal(t, domain.OutcomeAutoVerified, outcome.Kind)
	require.Empty(t, outbox.codes) // no SMS for instant verification

	require.NoError(t, p.Enroll(ctx, domain.PhoneAssertion(outcome.Credential), "My phone"))
}

func TestDispatchRateLimitPerNumber(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := New(Options{
		Outbox:        &outboxRecorder{},
		DispatchRate:  rate.Every(time.Hour),
		DispatchBurst: 2,
	})
	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeChallengeSent, p.DispatchChallenge(ctx, "+15551234567", "").Kind)
	require.Equal(t, domain.OutcomeChallengeSent, p.DispatchChallenge(ctx, "+15551234567", "").Kind)
	require.Equal(t, domain.OutcomeDispatchFailed, p.DispatchChallenge(ctx, "+15551234567", "").Kind)

	// Other numbers are unaffected.
	require.Equal(t, domain.OutcomeChallengeSent, p.DispatchChallenge(ctx, "+15559990000", "").Kind)
}

func TestChallengeExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	outbox := &outboxRecorder{}
	p := New(Options{
		Outbox:        outbox,
		DispatchRate:  rate.Inf,
		DispatchBurst: 100,
		ChallengeTTL:  time.Minute,
		Now:           func() time.Time { return current },
	})

	_, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	outcome := p.DispatchChallenge(ctx, "+15551234567", "")
	require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)

	current = current.Add(2 * time.Minute)
	cred := domain.Credential{ChallengeID: outcome.ChallengeID, Code: outbox.last()}
	require.ErrorIs(t, p.Enroll(ctx, domain.PhoneAssertion(cred), "My phone"), provider.ErrInvalidCode)
}

func TestRestoreSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p, _ := newTestProvider(t)

	user, err := p.CreateAccount(ctx, "a@b.com", "pw123456")
	require.NoError(t, err)

	token := p.IDToken()
	require.NotEmpty(t, token)

	p.SignOut()
	require.Empty(t, p.IDToken())

	require.NoError(t, p.RestoreSession(ctx, token))
	current, ok := p.CurrentUser()
	require.True(t, ok)
	require.Equal(t, user.ID, current.ID)

	require.Error(t, p.RestoreSession(ctx, "not-a-token"))
}
