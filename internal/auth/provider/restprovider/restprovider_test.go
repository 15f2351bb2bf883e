package restprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/auth/provider"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestAuthenticateSuccess(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/sessions", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "a@b.com", req["email"])
		writeJSON(w, http.StatusOK, map[string]any{
			"user":     map[string]string{"id": "u1", "email": "a@b.com"},
			"id_token": "tok-1",
		})
	}))

	user, err := c.Authenticate(context.Background(), "a@b.com", "pw123456")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "tok-1", c.IDToken())

	current, ok := c.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "u1", current.ID)
}

func TestAuthenticateSecondFactorRequired(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    "second_factor_required",
			"resolver": "r1",
			"hints": []map[string]string{
				{"factor_id": "f1", "kind": "phone", "phone_number": "+15*****4567"},
			},
		})
	}))

	_, err := c.Authenticate(context.Background(), "a@b.com", "pw123456")
	var mfaErr *provider.SecondFactorRequiredError
	require.ErrorAs(t, err, &mfaErr)
	require.Equal(t, domain.ResolverHandle("r1"), mfaErr.Resolver)
	require.Len(t, mfaErr.Hints, 1)
	require.Equal(t, "+15*****4567", mfaErr.Hints[0].PhoneNumber)

	_, ok := c.CurrentUser()
	require.False(t, ok)
}

func TestSentinelErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code string
		want error
	}{
		{"invalid_credentials", provider.ErrInvalidCredentials},
		{"email_in_use", provider.ErrEmailInUse},
		{"invalid_code", provider.ErrInvalidCode},
		{"resolver_expired", provider.ErrResolverExpired},
		{"already_enrolled", provider.ErrAlreadyEnrolled},
		{"factor_not_found", provider.ErrFactorNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": tc.code})
			}))
			_, err := c.Authenticate(context.Background(), "a@b.com", "pw")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolveSignInSendsAssertion(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/sessions/resolve", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "r1", req["resolver"])
		require.Equal(t, "abc", req["challenge_id"])
		require.Equal(t, "123456", req["code"])
		writeJSON(w, http.StatusOK, map[string]any{
			"user":     map[string]string{"id": "u1", "email": "a@b.com"},
			"id_token": "tok-2",
		})
	}))

	proof := domain.PhoneAssertion(domain.Credential{ChallengeID: "abc", Code: "123456"})
	user, err := c.ResolveSignIn(context.Background(), "r1", proof)
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "tok-2", c.IDToken())
}

func TestDispatchChallengeOutcomes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("challenge sent", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"outcome": "challenge_sent", "challenge_id": "abc"})
		}))
		outcome := c.DispatchChallenge(ctx, "+15551234567", "")
		require.Equal(t, domain.OutcomeChallengeSent, outcome.Kind)
		require.Equal(t, "abc", outcome.ChallengeID)
	})

	t.Run("auto verified", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"outcome": "auto_verified", "challenge_id": "abc", "code": "123456"})
		}))
		outcome := c.DispatchChallenge(ctx, "+15551234567", "")
		require.Equal(t, domain.OutcomeAutoVerified, outcome.Kind)
		require.Equal(t, "123456", outcome.Credential.Code)
	})

	t.Run("api failure becomes dispatch failed", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate_limited", "message": "too many code requests"})
		}))
		outcome := c.DispatchChallenge(ctx, "+15551234567", "")
		require.Equal(t, domain.OutcomeDispatchFailed, outcome.Kind)
		require.Contains(t, outcome.Reason, "too many code requests")
	})
}

func TestRestoreSession(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/me" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]string{"id": "u1", "email": "a@b.com"},
		})
	}))

	require.NoError(t, c.RestoreSession(context.Background(), "tok-1"))
	user, ok := c.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "u1", user.ID)

	require.Error(t, c.RestoreSession(context.Background(), "bad-token"))
	_, ok = c.CurrentUser()
	require.False(t, ok)
}
