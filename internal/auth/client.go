package auth

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/SpareCarry/sparecarry-sub004/internal/apierr"
)

// Clock supplies the current time for session expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// OtpOptions mirrors the options object of a one-time-password sign-in.
type OtpOptions struct {
	EmailRedirectTo  string         `json:"email_redirect_to,omitempty" yaml:"email_redirect_to"`
	ShouldCreateUser bool           `json:"should_create_user" yaml:"should_create_user"`
	Data             map[string]any `json:"data,omitempty" yaml:"data"`
}

// OtpRequest is a recorded SignInWithOtp call.
type OtpRequest struct {
	Email   string     `json:"email" yaml:"email"`
	Phone   string     `json:"phone,omitempty" yaml:"phone"`
	Options OtpOptions `json:"options" yaml:"options"`
}

// OAuthOptions mirrors the options object of an OAuth sign-in.
type OAuthOptions struct {
	RedirectTo string `json:"redirect_to,omitempty"`
	Scopes     string `json:"scopes,omitempty"`
}

// OAuthRequest is the argument of SignInWithOAuth.
type OAuthRequest struct {
	Provider string       `json:"provider"`
	Options  OAuthOptions `json:"options"`
}

// UserResult is the outcome of GetUser. User is nil when signed out.
type UserResult struct {
	User  *User         `json:"user"`
	Error *apierr.Error `json:"error"`
}

// SessionResult is the outcome of GetSession. Session is nil when signed
// out.
type SessionResult struct {
	Session *Session      `json:"session"`
	Error   *apierr.Error `json:"error"`
}

// OAuthResult is the outcome of SignInWithOAuth.
type OAuthResult struct {
	Provider string        `json:"provider"`
	URL      string        `json:"url"`
	Error    *apierr.Error `json:"error"`
}

// Client is the auth API surface over a State.
type Client struct {
	state   *State
	baseURL string
	clock   Clock
	logger  *slog.Logger

	mu  sync.Mutex
	otp []OtpRequest
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the URL OAuth redirects are built from.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithClock overrides the time source used for session expiry.
func WithClock(clock Clock) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates an auth client over state.
func NewClient(state *State, opts ...ClientOption) *Client {
	c := &Client{
		state:   state,
		baseURL: "http://localhost:54321",
		clock:   systemClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the underlying session holder.
func (c *Client) State() *State {
	return c.state
}

// GetUser returns the current user.
func (c *Client) GetUser(ctx context.Context) UserResult {
	return UserResult{User: c.state.User()}
}

// GetSession returns the current session. An expired session is still
// returned; the emulator does not refresh tokens.
func (c *Client) GetSession(ctx context.Context) SessionResult {
	s := c.state.Session()
	if s != nil && s.Expired(c.clock.Now()) {
		c.logger.DebugContext(ctx, "returning expired session", "expires_at", s.ExpiresAt)
	}
	return SessionResult{Session: s}
}

// SignInWithOtp records the request. It does not sign anybody in.
func (c *Client) SignInWithOtp(ctx context.Context, req OtpRequest) *apierr.Error {
	c.mu.Lock()
	c.otp = append(c.otp, req)
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "otp requested", "email", req.Email)
	return nil
}

// OtpRequests returns the recorded SignInWithOtp calls in call order.
func (c *Client) OtpRequests() []OtpRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]OtpRequest, len(c.otp))
	copy(out, c.otp)
	return out
}

// SignInWithOAuth fabricates the provider authorize URL:
//
//	<base>/auth/v1/authorize?provider=<p>&redirect_to=<r>&scopes=<s>
//
// Empty options are left out of the query string.
func (c *Client) SignInWithOAuth(ctx context.Context, req OAuthRequest) OAuthResult {
	q := url.Values{}
	q.Set("provider", req.Provider)
	if req.Options.RedirectTo != "" {
		q.Set("redirect_to", req.Options.RedirectTo)
	}
	if req.Options.Scopes != "" {
		q.Set("scopes", req.Options.Scopes)
	}

	u := c.baseURL + "/auth/v1/authorize?" + q.Encode()
	c.logger.DebugContext(ctx, "oauth authorize url", "provider", req.Provider, "url", u)
	return OAuthResult{Provider: req.Provider, URL: u}
}

// SignOut clears the current identity, notifying listeners.
func (c *Client) SignOut(ctx context.Context) *apierr.Error {
	c.state.ClearUser()
	c.logger.DebugContext(ctx, "signed out")
	return nil
}

// OnAuthStateChange registers fn; see State.AddListener.
func (c *Client) OnAuthStateChange(fn Listener) *Subscription {
	return c.state.AddListener(fn)
}

// SignIn signs user in with a fresh session from NewSession and returns it.
func (c *Client) SignIn(user *User) *Session {
	s := NewSession(user, c.clock.Now())
	c.state.SetUser(user, s)
	return c.state.Session()
}

// Reset clears the state and the recorded OTP requests.
func (c *Client) Reset() {
	c.state.Reset()
	c.mu.Lock()
	c.otp = nil
	c.mu.Unlock()
}
