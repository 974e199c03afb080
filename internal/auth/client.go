package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/thena-travel/flightdesk/internal/domain"
)

// ErrNotConfigured is returned when the identity provider connection is
// absent. Guest checkout keeps working; authenticated features report this
// instead of crashing.
var ErrNotConfigured = errors.New("identity provider is not configured")

// Client talks to the hosted identity provider. Tokens it issues are opaque
// to this service: their lifecycle and storage are the provider's concern.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient returns nil when the provider URL or key is missing, which
// callers treat as guest-only mode.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *logrus.Logger) *Client {
	if baseURL == "" || apiKey == "" {
		log.Warn("identity provider not configured, authenticated features disabled")
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) Enabled() bool {
	return c != nil
}

// Credentials is an email/password pair for sign-up and sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the provider's issued session material, passed through to the
// caller untouched.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// User is the provider's view of an account.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	EmailConfirmedAt string `json:"email_confirmed_at,omitempty"`
}

// SignUp registers a new account. The provider sends the verification email.
func (c *Client) SignUp(ctx context.Context, creds Credentials) (*User, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	var user User
	if err := c.post(ctx, "/auth/v1/signup", "", creds, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignIn exchanges credentials for a token pair.
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*TokenPair, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	var tokens TokenPair
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", creds, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// UserFromToken resolves the account behind a bearer token.
func (c *Client) UserFromToken(ctx context.Context, token string) (*User, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	var user User
	if err := c.request(ctx, http.MethodGet, "/auth/v1/user", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session behind a bearer token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	return c.post(ctx, "/auth/v1/logout", token, nil, nil)
}

// RequestPasswordReset asks the provider to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	return c.post(ctx, "/auth/v1/recover", "", map[string]string{"email": email}, nil)
}

// VerifyEmailToken redeems a one-time email verification token.
func (c *Client) VerifyEmailToken(ctx context.Context, tokenHash, verifyType string) (*User, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if verifyType == "" {
		verifyType = "email"
	}
	body := map[string]string{"token_hash": tokenHash, "type": verifyType}
	var resp struct {
		User User `json:"user"`
	}
	if err := c.post(ctx, "/auth/v1/verify", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) post(ctx context.Context, path, token string, body, out interface{}) error {
	return c.request(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) request(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.UpstreamError{StatusCode: resp.StatusCode, Message: providerMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func providerMessage(body []byte) string {
	var payload struct {
		Message          string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Message != "":
		return payload.Message
	case payload.ErrorDescription != "":
		return payload.ErrorDescription
	default:
		return payload.Error
	}
}
