package credentials

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

func (c *PartnerCredentials) oauthConfig() *oauth2.Config {
	base := c.partnerURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &oauth2.Config{
		ClientID:     c.consumerKey,
		ClientSecret: c.consumerSecret,
		RedirectURL:  c.callbackURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + authorizePath,
			TokenURL:  base + tokenPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (c *PartnerCredentials) oauthContext(ctx context.Context) context.Context {
	if c.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return ctx
}

// AuthorizationURL returns the URL the account owner visits to grant
// access. state is echoed back to the callback and may be empty.
func (c *PartnerCredentials) AuthorizationURL(state string) string {
	var opts []oauth2.AuthCodeOption
	if c.scope != "" {
		opts = append(opts, oauth2.SetAuthURLParam("scope", c.scope))
	}
	return c.oauthConfig().AuthCodeURL(state, opts...)
}

// Verify exchanges the authorization code for tokens.
func (c *PartnerCredentials) Verify(ctx context.Context, code string) error {
	tok, err := c.oauthConfig().Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	c.SaveToken(tok)
	c.logger.Info().Bool("has_refresh_token", tok.RefreshToken != "").Msg("OAuth code exchanged")
	return nil
}

// Refresh obtains a new access token with the stored refresh token.
func (c *PartnerCredentials) Refresh(ctx context.Context) error {
	refresh := c.RefreshToken()
	if refresh == "" {
		return ErrNoRefreshToken
	}

	src := c.oauthConfig().TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refresh})
	tok, err := src.Token()
	if err != nil {
		return fmt.Errorf("refresh access token: %w", err)
	}
	c.SaveToken(tok)
	c.logger.Debug().Msg("OAuth token refreshed")
	return nil
}

// RefreshIfExpired refreshes only when Expired reports true at the time of
// the call.
func (c *PartnerCredentials) RefreshIfExpired(ctx context.Context) (bool, error) {
	if !c.Expired(timeNow()) {
		return false, nil
	}
	return true, c.Refresh(ctx)
}
