package spotify

import (
	"github.com/google/uuid"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"featurescout/internal/core"
)

// Authorizer builds implicit-grant authorization URLs. The token comes back in the
// redirect fragment, so no client secret is involved.
type Authorizer struct {
	auth *spotifyauth.Authenticator
}

func NewAuthorizer(config *core.SpotifyConfig) *Authorizer {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithRedirectURL(config.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopeUserReadEmail,
		),
	)
	return &Authorizer{auth: auth}
}

// AuthorizationURL returns a fresh URL with a random state.
func (a *Authorizer) AuthorizationURL() string {
	return a.auth.AuthURL(uuid.NewString(),
		oauth2.SetAuthURLParam("response_type", "token"),
		spotifyauth.ShowDialog,
	)
}
