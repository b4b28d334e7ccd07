package discord

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Scopes requested at sign-in. guilds is needed for the admin check,
// guilds.join lets the backend add approved recruits to the guild.
var Scopes = []string{"identify", "email", "guilds", "guilds.join"}

// Endpoint is Discord's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// OAuthConfig builds the authorization-code flow configuration.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
		Scopes:       Scopes,
	}
}

// OAuth is an oauth2.Config whose token exchange uses a fixed HTTP client.
type OAuth struct {
	*oauth2.Config
	httpClient *http.Client
}

// NewOAuth wraps cfg. A nil httpClient keeps the oauth2 default.
func NewOAuth(cfg *oauth2.Config, httpClient *http.Client) *OAuth {
	return &OAuth{Config: cfg, httpClient: httpClient}
}

// Exchange trades an authorization code for a token.
func (o *OAuth) Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	return o.Config.Exchange(ctx, code, opts...)
}
