package apiclient

import (
	"net/http"
	"sync"
	"time"
)

// CredentialSource supplies the current bearer token. An empty string means
// no session.
type CredentialSource interface {
	Token() string
}

// TokenFunc adapts a function to CredentialSource
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Factory hands out a Client bound to the current credential. The client is
// memoized and rebuilt exactly when the credential changes, so callers that
// ask the factory on every operation never use a stale token.
type Factory struct {
	baseURL   string
	creds     CredentialSource
	transport http.RoundTripper
	timeout   time.Duration

	mu     sync.Mutex
	token  string
	client *Client
}

// Option configures a Factory
type Option func(*Factory)

// WithTransport sets the underlying round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Factory) { f.transport = rt }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(f *Factory) { f.timeout = d }
}

// NewFactory creates a client factory for baseURL
func NewFactory(baseURL string, creds CredentialSource, opts ...Option) *Factory {
	f := &Factory{
		baseURL: baseURL,
		creds:   creds,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns the client for the current credential
func (f *Factory) Client() *Client {
	token := ""
	if f.creds != nil {
		token = f.creds.Token()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil && f.token == token {
		return f.client
	}
	f.client = New(f.baseURL, token, f.transport, f.timeout)
	f.token = token
	return f.client
}

// Anonymous returns a client without credentials, used for login and register
func (f *Factory) Anonymous() *Client {
	return New(f.baseURL, "", f.transport, f.timeout)
}
