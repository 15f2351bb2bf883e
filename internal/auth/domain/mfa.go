package domain

import "strings"

// FactorKindPhone is the only second-factor kind this client can verify.
const FactorKindPhone = "phone"

// SMSCodeLength is the provider's fixed one-time code length.
const SMSCodeLength = 6

// ResolverHandle is an opaque token representing a paused sign-in that is
// waiting on a second-factor proof. It is single use: consuming it
// (successfully) invalidates it.
type ResolverHandle string

func (r ResolverHandle) IsZero() bool { return r == "" }

// FactorHint identifies a second factor already registered to an account,
// visible to the client when a login pauses for MFA.
type FactorHint struct {
	FactorID    string
	Kind        string // e.g. FactorKindPhone
	DisplayName string
	PhoneNumber string // masked, e.g. "+1*****1234"
}

// PhoneHint returns the first phone-kind hint, if any. Absence of a phone
// hint is a terminal condition for client-side login.
func PhoneHint(hints []FactorHint) (FactorHint, bool) {
	for _, h := range hints {
		if h.Kind == FactorKindPhone {
			return h, true
		}
	}
	return FactorHint{}, false
}

// MaskPhone obscures the middle digits of a phone number for display in
// factor hints, keeping the prefix and the last four digits.
func MaskPhone(number string) string {
	if len(number) <= 6 {
		return number
	}
	keepPrefix := 2
	if strings.HasPrefix(number, "+") {
		keepPrefix = 3
	}
	return number[:keepPrefix] + strings.Repeat("*", len(number)-keepPrefix-4) + number[len(number)-4:]
}

// Credential pairs a dispatched challenge with the code the user received.
// Building one is purely local; its validity is checked by the provider
// when the derived assertion is redeemed.
type Credential struct {
	ChallengeID string
	Code        string
}

// Assertion is a proof derived from a verified phone credential, redeemable
// once to complete either a login or an enrollment.
type Assertion struct {
	Kind       string
	Credential Credential
}

// PhoneAssertion derives an assertion from a phone credential.
func PhoneAssertion(cred Credential) Assertion {
	return Assertion{Kind: FactorKindPhone, Credential: cred}
}

// ChallengeOutcomeKind discriminates the three mutually exclusive results of
// dispatching an out-of-band phone challenge.
type ChallengeOutcomeKind int

const (
	// OutcomeAutoVerified means a proof was obtained without user code entry.
	OutcomeAutoVerified ChallengeOutcomeKind = iota
	// OutcomeDispatchFailed means the challenge could not be sent.
	OutcomeDispatchFailed
	// OutcomeChallengeSent means an SMS code is on its way.
	OutcomeChallengeSent
)

// ChallengeOutcome is the tagged result of DispatchChallenge. Exactly the
// fields for the active kind are set; the constructors below are the only
// way outcomes should be built.
type ChallengeOutcome struct {
	Kind        ChallengeOutcomeKind
	Credential  Credential // OutcomeAutoVerified
	Reason      string     // OutcomeDispatchFailed
	ChallengeID string     // OutcomeChallengeSent
}

func AutoVerified(cred Credential) ChallengeOutcome {
	return ChallengeOutcome{Kind: OutcomeAutoVerified, Credential: cred}
}

func DispatchFailed(reason string) ChallengeOutcome {
	return ChallengeOutcome{Kind: OutcomeDispatchFailed, Reason: reason}
}

func ChallengeSent(id string) ChallengeOutcome {
	return ChallengeOutcome{Kind: OutcomeChallengeSent, ChallengeID: id}
}
