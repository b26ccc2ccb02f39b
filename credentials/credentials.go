// Package credentials holds the partner OAuth tokens and the per company
// file credentials every API call is signed with.
//
// PartnerCredentials is safe for concurrent reads. Refresh is not
// coordinated: callers that refresh from several goroutines must serialise
// those calls themselves.
package credentials

import (
	"encoding/base64"
	"errors"
	nethttp "net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/gaborage/go-myob/logger"
)

const (
	// DefaultPartnerURL is the root of the MYOB OAuth endpoints
	DefaultPartnerURL = "https://secure.myob.com/oauth2/"
	// DefaultScope is requested on the authorization URL
	DefaultScope = "CompanyFile"

	authorizePath = "account/authorize/"
	tokenPath     = "v1/authorize/"

	// expiryMargin absorbs clock skew and round trip time
	expiryMargin = 30 * time.Second
)

var (
	// ErrMissingConsumer is returned when the consumer key or secret is empty
	ErrMissingConsumer = errors.New("consumer key and secret are required")
	// ErrNoRefreshToken is returned by Refresh before any token was obtained
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// PartnerCredentials wraps the three-step OAuth2 flow for partner access to
// the AccountRight API.
type PartnerCredentials struct {
	mu sync.RWMutex

	consumerKey    string
	consumerSecret string
	callbackURI    string

	verified     bool
	accessToken  string
	refreshToken string
	expiresAt    *time.Time

	companyFiles map[string]string

	partnerURL string
	scope      string
	httpClient *nethttp.Client
	logger     logger.Logger
}

// Option configures PartnerCredentials.
type Option func(*PartnerCredentials)

// WithPartnerURL overrides the OAuth root, e.g. for a test server.
func WithPartnerURL(u string) Option {
	return func(c *PartnerCredentials) { c.partnerURL = u }
}

// WithScope overrides the scope appended to the authorization URL.
func WithScope(scope string) Option {
	return func(c *PartnerCredentials) { c.scope = scope }
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(hc *nethttp.Client) Option {
	return func(c *PartnerCredentials) { c.httpClient = hc }
}

// WithLogger sets the logger used for token lifecycle events.
func WithLogger(l logger.Logger) Option {
	return func(c *PartnerCredentials) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithToken seeds previously obtained tokens. A zero expiresAt leaves the
// expiry unset.
func WithToken(accessToken, refreshToken string, expiresAt time.Time) Option {
	return func(c *PartnerCredentials) {
		c.accessToken = accessToken
		c.refreshToken = refreshToken
		c.expiresAt = timePtr(expiresAt)
	}
}

// WithVerified marks the credentials as having completed the OAuth flow.
func WithVerified(verified bool) Option {
	return func(c *PartnerCredentials) { c.verified = verified }
}

// WithCompanyFileCredentials seeds encoded company file tokens keyed by
// company file id. The map is copied.
func WithCompanyFileCredentials(tokens map[string]string) Option {
	return func(c *PartnerCredentials) {
		for id, tok := range tokens {
			c.companyFiles[id] = tok
		}
	}
}

// New creates partner credentials. Each instance owns a fresh company file
// map.
func New(consumerKey, consumerSecret, callbackURI string, opts ...Option) (*PartnerCredentials, error) {
	if consumerKey == "" || consumerSecret == "" {
		return nil, ErrMissingConsumer
	}
	c := &PartnerCredentials{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		callbackURI:    callbackURI,
		companyFiles:   make(map[string]string),
		partnerURL:     DefaultPartnerURL,
		scope:          DefaultScope,
		logger:         logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ConsumerKey returns the partner API key sent as x-myobapi-key.
func (c *PartnerCredentials) ConsumerKey() string {
	return c.consumerKey
}

// CallbackURI returns the registered OAuth redirect URI.
func (c *PartnerCredentials) CallbackURI() string {
	return c.callbackURI
}

// AccessToken returns the current bearer token.
func (c *PartnerCredentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// RefreshToken returns the current refresh token.
func (c *PartnerCredentials) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshToken
}

// ExpiresAt returns the access token expiry, if known.
func (c *PartnerCredentials) ExpiresAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiresAt == nil {
		return time.Time{}, false
	}
	return *c.expiresAt, true
}

// Verified reports whether a token has been obtained.
func (c *PartnerCredentials) Verified() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verified
}

// Expired reports whether the access token should be treated as stale at
// now. It is false while no expiry is known and true from 30 seconds before
// the actual expiry.
func (c *PartnerCredentials) Expired(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiresAt == nil {
		return false
	}
	return !c.expiresAt.After(now.Add(expiryMargin))
}

// AuthenticateCompanyFile stores the company file login as the base64 of
// "username:password".
func (c *PartnerCredentials) AuthenticateCompanyFile(companyID, username, password string) {
	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	c.mu.Lock()
	c.companyFiles[companyID] = token
	c.mu.Unlock()
}

// CompanyFileToken returns the stored token for a company file. Company
// files accessed through single sign-on have none.
func (c *PartnerCredentials) CompanyFileToken(companyID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tok, ok := c.companyFiles[companyID]
	return tok, ok
}

// SaveToken records a token response and marks the credentials verified.
func (c *PartnerCredentials) SaveToken(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = tok.AccessToken
	c.refreshToken = tok.RefreshToken
	c.expiresAt = timePtr(tok.Expiry)
	c.verified = true
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
