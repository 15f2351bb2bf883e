// Package restprovider implements the identity provider interfaces against
// a hosted HTTP identity API. It is the "rest" provider mode; the wire
// surface mirrors the hosted service's JSON endpoints and every error comes
// back as one of the provider sentinel errors.
package restprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/weatherwise/weatherwise/internal/auth/domain"
	"github.com/weatherwise/weatherwise/internal/auth/provider"
)

// API error codes the hosted service returns in the "error" field.
const (
	codeInvalidCredentials   = "invalid_credentials"
	codeEmailInUse           = "email_in_use"
	codeInvalidCode          = "invalid_code"
	codeResolverExpired      = "resolver_expired"
	codeAlreadyEnrolled      = "already_enrolled"
	codeFactorNotFound       = "factor_not_found"
	codeSecondFactorRequired = "second_factor_required"
)

// Client implements provider.Identity and provider.PhoneChallenger over
// HTTP. The signed-in user and ID token are cached on the client, matching
// the hosted SDK's session behaviour.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	mu      sync.Mutex
	user    domain.User
	hasUser bool
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type userPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u userPayload) domain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

type sessionResponse struct {
	User    userPayload `json:"user"`
	IDToken string      `json:"id_token"`
}

type hintPayload struct {
	FactorID    string `json:"factor_id"`
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	PhoneNumber string `json:"phone_number"`
}

func (h hintPayload) domain() domain.FactorHint {
	return domain.FactorHint{
		FactorID:    h.FactorID,
		Kind:        h.Kind,
		DisplayName: h.DisplayName,
		PhoneNumber: h.PhoneNumber,
	}
}

type errorResponse struct {
	Error    string        `json:"error"`
	Message  string        `json:"message"`
	Resolver string        `json:"resolver"`
	Hints    []hintPayload `json:"hints"`
}

// CreateAccount registers a new account and signs it in.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (domain.User, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/accounts", map[string]string{
		"email":    email,
		"password": password,
	}, &resp, http.StatusCreated)
	if err != nil {
		return domain.User{}, err
	}
	c.setSession(resp)
	return resp.User.domain(), nil
}

// Authenticate exchanges email+password for a session. A 409 with the
// second-factor code becomes a *provider.SecondFactorRequiredError.
func (c *Client) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]string{
		"email":    email,
		"password": password,
	}, &resp, http.StatusOK)
	if err != nil {
		return domain.User{}, err
	}
	c.setSession(resp)
	return resp.User.domain(), nil
}

// ResolveSignIn redeems a second-factor assertion against a paused sign-in.
func (c *Client) ResolveSignIn(ctx context.Context, resolver domain.ResolverHandle, assertion domain.Assertion) (domain.User, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/sessions/resolve", map[string]string{
		"resolver":     string(resolver),
		"kind":         assertion.Kind,
		"challenge_id": assertion.Credential.ChallengeID,
		"code":         assertion.Credential.Code,
	}, &resp, http.StatusOK)
	if err != nil {
		return domain.User{}, err
	}
	c.setSession(resp)
	return resp.User.domain(), nil
}

// CurrentUser reports the cached signed-in user.
func (c *Client) CurrentUser() (domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasUser {
		return domain.User{}, false
	}
	return c.user, true
}

// SignOut drops the cached session. Local only.
func (c *Client) SignOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = domain.User{}
	c.hasUser = false
	c.token = ""
}

// Enroll attaches a verified phone factor to the current user.
func (c *Client) Enroll(ctx context.Context, assertion domain.Assertion, displayName string) error {
	return c.do(ctx, http.MethodPost, "/v1/factors", map[string]string{
		"kind":         assertion.Kind,
		"challenge_id": assertion.Credential.ChallengeID,
		"code":         assertion.Credential.Code,
		"display_name": displayName,
	}, nil, http.StatusCreated)
}

// Unenroll removes an enrolled factor from the current user.
func (c *Client) Unenroll(ctx context.Context, factorID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/factors/"+factorID, nil, nil, http.StatusNoContent)
}

// EnrolledFactors lists the current user's registered second factors.
func (c *Client) EnrolledFactors(ctx context.Context) ([]domain.FactorHint, error) {
	var resp struct {
		Factors []hintPayload `json:"factors"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/factors", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	hints := make([]domain.FactorHint, 0, len(resp.Factors))
	for _, h := range resp.Factors {
		hints = append(hints, h.domain())
	}
	return hints, nil
}

// DispatchChallenge asks the service to send an SMS challenge. Transport
// and API failures both collapse into a dispatch-failed outcome: the caller
// retries, it never crashes.
func (c *Client) DispatchChallenge(ctx context.Context, phoneNumber string, resolver domain.ResolverHandle) domain.ChallengeOutcome {
	var resp struct {
		Outcome     string `json:"outcome"`
		ChallengeID string `json:"challenge_id"`
		Code        string `json:"code"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/challenges", map[string]string{
		"phone_number": phoneNumber,
		"resolver":     string(resolver),
	}, &resp, http.StatusOK)
	if err != nil {
		return domain.DispatchFailed(err.Error())
	}

	if resp.Outcome == "auto_verified" {
		return domain.AutoVerified(domain.Credential{ChallengeID: resp.ChallengeID, Code: resp.Code})
	}
	return domain.ChallengeSent(resp.ChallengeID)
}

// IDToken returns the ID token from the last sign-in, or "" when signed
// out. The CLI persists it to restore the session on the next run.
func (c *Client) IDToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// RestoreSession validates a previously issued ID token against the
// service and signs the session back in.
func (c *Client) RestoreSession(ctx context.Context, token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	var resp struct {
		User userPayload `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, &resp, http.StatusOK); err != nil {
		c.SignOut()
		return err
	}

	c.mu.Lock()
	c.user = resp.User.domain()
	c.hasUser = true
	c.mu.Unlock()
	return nil
}

func (c *Client) setSession(resp sessionResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = resp.User.domain()
	c.hasUser = true
	c.token = resp.IDToken
}

func (c *Client) do(ctx context.Context, method, path string, body map[string]string, target any, expectedStatus int) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.IDToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse maps an API error body onto the provider sentinel
// errors, including the distinguished second-factor-required branch.
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("identity api: HTTP %d: %s", statusCode, http.StatusText(statusCode))
	}

	switch errResp.Error {
	case codeSecondFactorRequired:
		hints := make([]domain.FactorHint, 0, len(errResp.Hints))
		for _, h := range errResp.Hints {
			hints = append(hints, h.domain())
		}
		return &provider.SecondFactorRequiredError{
			Resolver: domain.ResolverHandle(errResp.Resolver),
			Hints:    hints,
		}
	case codeInvalidCredentials:
		return provider.ErrInvalidCredentials
	case codeEmailInUse:
		return provider.ErrEmailInUse
	case codeInvalidCode:
		return provider.ErrInvalidCode
	case codeResolverExpired:
		return provider.ErrResolverExpired
	case codeAlreadyEnrolled:
		return provider.ErrAlreadyEnrolled
	case codeFactorNotFound:
		return provider.ErrFactorNotFound
	}

	if errResp.Message != "" {
		return fmt.Errorf("identity api: %s", errResp.Message)
	}
	return fmt.Errorf("identity api: %s (HTTP %d)", errResp.Error, statusCode)
}
