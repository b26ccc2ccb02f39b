package credentials

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// timeNow is replaced in tests
var timeNow = time.Now

// State is a serialisable snapshot from which credentials can be rebuilt.
type State struct {
	ConsumerKey            string            `json:"consumer_key"`
	ConsumerSecret         string            `json:"consumer_secret"`
	CallbackURI            string            `json:"callback_uri"`
	Verified               bool              `json:"verified"`
	CompanyFileCredentials map[string]string `json:"companyfile_credentials,omitempty"`
	AccessToken            string            `json:"oauth_token,omitempty"`
	RefreshToken           string            `json:"refresh_token,omitempty"`
	ExpiresAt              *time.Time        `json:"oauth_expires_at,omitempty"`
}

// State returns a snapshot of the credentials.
func (c *PartnerCredentials) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := State{
		ConsumerKey:    c.consumerKey,
		ConsumerSecret: c.consumerSecret,
		CallbackURI:    c.callbackURI,
		Verified:       c.verified,
		AccessToken:    c.accessToken,
		RefreshToken:   c.refreshToken,
	}
	if c.expiresAt != nil {
		t := *c.expiresAt
		s.ExpiresAt = &t
	}
	if len(c.companyFiles) > 0 {
		s.CompanyFileCredentials = make(map[string]string, len(c.companyFiles))
		for id, tok := range c.companyFiles {
			s.CompanyFileCredentials[id] = tok
		}
	}
	return s
}

// FromState rebuilds credentials from a snapshot. opts are applied after
// the snapshot, so they can point the result at another OAuth server.
func FromState(s State, opts ...Option) (*PartnerCredentials, error) {
	base := []Option{
		WithVerified(s.Verified),
		WithCompanyFileCredentials(s.CompanyFileCredentials),
	}
	var expires time.Time
	if s.ExpiresAt != nil {
		expires = *s.ExpiresAt
	}
	base = append(base, WithToken(s.AccessToken, s.RefreshToken, expires))
	return New(s.ConsumerKey, s.ConsumerSecret, s.CallbackURI, append(base, opts...)...)
}

// WriteState encodes the snapshot as indented JSON.
func (c *PartnerCredentials) WriteState(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c.State()); err != nil {
		return fmt.Errorf("encode credentials state: %w", err)
	}
	return nil
}

// ReadState decodes a snapshot written by WriteState and rebuilds the
// credentials.
func ReadState(r io.Reader, opts ...Option) (*PartnerCredentials, error) {
	var s State
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode credentials state: %w", err)
	}
	return FromState(s, opts...)
}
