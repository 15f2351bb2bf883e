package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/auth/provider"
	"github.com/weatherwise/weatherwise/internal/store"
)

const factorDisplayName = "My phone number"

// Verifier owns the phone-verification sub-flow: dispatching an SMS
// challenge, capturing the returned code, and producing a proof usable
// either to finish a paused login or to enroll a new phone factor on an
// already-signed-in user.
//
// All failure is communicated through the status message; no operation
// returns an error. A proof can only be built while a challenge identifier
// is held, and the identifier never outlives ResetInputState, so a
// completed challenge cannot leak into an unrelated verification.
type Verifier struct {
	identity   provider.Identity
	challenger provider.PhoneChallenger
	profiles   store.MFAProfiles
	logger     *slog.Logger

	mu          sync.Mutex
	phoneNumber string
	code        string
	challengeID string
	dispatched  bool
	busy        bool
	status      string
	enrolled    bool
	autoProof   *domain.Credential
	resolver    domain.ResolverHandle
}

// NewVerifier builds a verifier. The profile store mirrors provider-side
// enrollment so the UI can show the enrolled number without a network call.
func NewVerifier(identity provider.Identity, challenger provider.PhoneChallenger, profiles store.MFAProfiles, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		identity:   identity,
		challenger: challenger,
		profiles:   profiles,
		logger:     logger,
	}
}

// Seed restores the enrolled flag and phone number from the persisted
// profile, so the UI reflects an existing enrollment right after startup.
// A missing or unreadable profile just leaves the verifier blank.
func (v *Verifier) Seed(ctx context.Context, userID string) {
	profile, err := v.profiles.GetProfile(ctx, userID)
	if err != nil || !profile.Enabled {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.enrolled = true
	v.phoneNumber = profile.PhoneNumber
	v.status = fmt.Sprintf("Phone MFA is enabled for %s.", profile.PhoneNumber)
}

func (v *Verifier) SetPhoneNumber(number string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.phoneNumber = number
}

func (v *Verifier) SetCode(code string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.code = code
}

func (v *Verifier) PhoneNumber() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phoneNumber
}

func (v *Verifier) Status() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *Verifier) Enrolled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.enrolled
}

func (v *Verifier) ChallengeDispatched() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dispatched
}

func (v *Verifier) Busy() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.busy
}

// StartChallengeForEnrollment dispatches a code to the typed phone number
// so a signed-in user can enroll it as a second factor. Calling it while a
// code is already outstanding simply restarts the dispatch; the provider's
// own rate limiting is the backstop against abuse.
func (v *Verifier) StartChallengeForEnrollment(ctx context.Context) {
	v.mu.Lock()
	v.resolver = ""
	v.autoProof = nil
	phone := v.phoneNumber
	v.mu.Unlock()

	v.dispatch(ctx, phone)
}

// StartChallengeForLogin dispatches a code for a login that paused on a
// second factor. The challenge is bound to the resolver, and on
// auto-verification the proof is only stored: completing the login is the
// caller's responsibility.
func (v *Verifier) StartChallengeForLogin(ctx context.Context, resolver domain.ResolverHandle, hint domain.FactorHint) {
	v.mu.Lock()
	v.resolver = resolver
	v.autoProof = nil
	v.phoneNumber = hint.PhoneNumber
	phone := hint.PhoneNumber
	v.mu.Unlock()

	v.dispatch(ctx, phone)
}

func (v *Verifier) dispatch(ctx context.Context, phone string) {
	if phone == "" {
		v.setStatus("Enter a phone number.")
		return
	}

	v.mu.Lock()
	v.busy = true
	v.dispatched = false
	resolver := v.resolver
	v.mu.Unlock()

	outcome := v.challenger.DispatchChallenge(ctx, phone, resolver)

	switch outcome.Kind {
	case domain.OutcomeAutoVerified:
		if !resolver.IsZero() {
			// Login path: hold the proof for BuildLoginProof.
			v.mu.Lock()
			v.busy = false
			v.dispatched = true
			v.autoProof = &outcome.Credential
			v.code = outcome.Credential.Code
			v.status = "Verification code retrieved automatically."
			v.mu.Unlock()
			return
		}
		v.mu.Lock()
		v.busy = false
		v.dispatched = true
		v.mu.Unlock()
		v.enrollCredential(ctx, outcome.Credential, "Code verified automatically. Phone MFA enabled.")

	case domain.OutcomeDispatchFailed:
		v.logger.Warn("challenge dispatch failed", "reason", outcome.Reason)
		v.mu.Lock()
		v.busy = false
		v.status = "Phone verification failed: " + outcome.Reason
		v.mu.Unlock()

	case domain.OutcomeChallengeSent:
		v.mu.Lock()
		v.busy = false
		v.challengeID = outcome.ChallengeID
		v.dispatched = true
		v.status = "Verification code sent to " + phone
		v.mu.Unlock()
	}
}

// SubmitCodeForEnrollment exchanges the typed code for a proof and enrolls
// it on the current user. Missing challenge or a code of the wrong length
// is rejected locally, before any network call.
func (v *Verifier) SubmitCodeForEnrollment(ctx context.Context) {
	v.mu.Lock()
	id := v.challengeID
	code := v.code
	v.mu.Unlock()

	if id == "" {
		v.setStatus("No verification in progress.")
		return
	}
	if len(code) != domain.SMSCodeLength {
		v.setStatus(fmt.Sprintf("Enter the %d-digit verification code.", domain.SMSCodeLength))
		return
	}

	v.enrollCredential(ctx, domain.Credential{ChallengeID: id, Code: code}, "Phone MFA enabled.")
}

func (v *Verifier) enrollCredential(ctx context.Context, cred domain.Credential, successStatus string) {
	user, ok := v.identity.CurrentUser()
	if !ok {
		v.setStatus("Not signed in.")
		return
	}

	v.mu.Lock()
	v.busy = true
	phone := v.phoneNumber
	v.mu.Unlock()

	err := v.identity.Enroll(ctx, domain.PhoneAssertion(cred), factorDisplayName)
	if err != nil {
		v.logger.Warn("phone factor enrollment failed", "error", err)
		v.mu.Lock()
		v.busy = false
		v.status = "Enabling phone MFA failed: " + err.Error()
		v.mu.Unlock()
		return
	}

	v.mu.Lock()
	v.busy = false
	v.enrolled = true
	v.challengeID = ""
	v.dispatched = false
	v.status = successStatus
	v.mu.Unlock()
	v.logger.Info("phone factor enrolled", "user_id", user.ID)

	profile := domain.PhoneMFAProfile{UserID: user.ID, Enabled: true, PhoneNumber: phone}
	if err := v.profiles.UpsertProfile(ctx, profile); err != nil {
		v.logger.Error("saving MFA profile failed", "error", err)
		v.setStatus("Saving MFA settings failed: " + err.Error())
	}
}

// BuildLoginProof assembles the proof for a paused login from the held
// challenge and typed code (or the auto-retrieved credential). It reports
// failure through the status message and the second return value, never an
// error: construction is local, validity is checked at redemption.
func (v *Verifier) BuildLoginProof() (domain.Assertion, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.autoProof != nil {
		return domain.PhoneAssertion(*v.autoProof), true
	}
	if v.challengeID == "" {
		v.status = "No verification in progress."
		return domain.Assertion{}, false
	}
	if v.code == "" {
		v.status = "Enter the verification code."
		return domain.Assertion{}, false
	}
	return domain.PhoneAssertion(domain.Credential{ChallengeID: v.challengeID, Code: v.code}), true
}

// DisableEnrollment removes the enrolled phone factor from the current
// user. The persisted profile is always rewritten as disabled and the local
// input state always reset, even when no factor exists or the provider call
// fails: the UI must never keep showing a stale enrollment.
func (v *Verifier) DisableEnrollment(ctx context.Context) {
	user, ok := v.identity.CurrentUser()
	if !ok {
		v.setStatus("Not signed in.")
		return
	}

	v.mu.Lock()
	v.busy = true
	v.mu.Unlock()

	status := "Phone MFA disabled."
	factors, err := v.identity.EnrolledFactors(ctx)
	if err != nil {
		status = "Disabling phone MFA failed: " + err.Error()
	} else if hint, found := domain.PhoneHint(factors); !found {
		status = "No enrolled phone factor found."
	} else if err := v.identity.Unenroll(ctx, hint.FactorID); err != nil {
		status = "Disabling phone MFA failed: " + err.Error()
	}

	profile := domain.PhoneMFAProfile{UserID: user.ID, Enabled: false}
	if err := v.profiles.UpsertProfile(ctx, profile); err != nil {
		v.logger.Error("saving MFA profile failed", "error", err)
	}

	v.mu.Lock()
	v.busy = false
	v.enrolled = false
	v.phoneNumber = ""
	v.code = ""
	v.challengeID = ""
	v.dispatched = false
	v.autoProof = nil
	v.status = status
	v.mu.Unlock()
}

// ResetInputState clears every transient field. The owning screen must call
// it on teardown so a challenge identifier never leaks into the next screen
// instance. The enrolled flag survives; it reflects provider-side truth.
func (v *Verifier) ResetInputState() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.phoneNumber = ""
	v.code = ""
	v.challengeID = ""
	v.dispatched = false
	v.autoProof = nil
	v.resolver = ""
	v.status = ""
}

// ResetMessages clears only the status message.
func (v *Verifier) ResetMessages() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = ""
}

func (v *Verifier) setStatus(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = s
}
