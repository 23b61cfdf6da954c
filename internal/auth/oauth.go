// Package auth provides the credential primitives for the tender dashboard:
// the Google OAuth provider, bcrypt password hashing, verification-token
// generation, and the shared-key check for the ingestion webhook.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// GoogleUser is the portion of the Google userinfo response we care about.
// Google returns a larger object — we only unmarshal the fields we need.
//
// Userinfo docs: https://developers.google.com/identity/openid-connect/openid-connect
type GoogleUser struct {
	ID        string `json:"id"`             // Google's subject ID — stable, never changes
	Email     string `json:"email"`          // Verified by Google before it reaches us
	Name      string `json:"name"`           // Display name, e.g. "Ada Lovelace"
	AvatarURL string `json:"picture"`        // Profile picture URL
	Verified  bool   `json:"verified_email"` // Google vouches for the address
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. Your server redirects the user to Google's authorization endpoint,
//    with your ClientID and the requested scopes.
// 2. The user approves (or denies) the authorization request on Google.
// 3. Google redirects back to your CallbackURL with a short-lived "code".
// 4. Your server exchanges the code for an access token (server-to-server call).
// 5. Your server uses the access token to call the userinfo endpoint.
//
// The code-for-token exchange uses the ClientSecret and never touches the
// browser, so the access token is never exposed to client-side script.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// You get ClientID and ClientSecret from the Google Cloud console under
// "APIs & Services" → "Credentials" → "OAuth 2.0 Client IDs".
//
// callbackURL must exactly match an authorized redirect URI configured there.
// Example: "http://localhost:8080/auth/google/callback"
//
// Scopes we request:
//   - "profile" — display name and avatar
//   - "email"   — the verified email address
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     endpoints.Google,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting. When
// Google calls back, the handler verifies the returned state matches the
// cookie — this blocks CSRF attempts to complete an OAuth flow the user
// never started.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// Google user profile. This is the core of the callback handler.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Use the token to call Google's userinfo endpoint
//  3. Unmarshal the response into a GoogleUser struct
//
// The returned GoogleUser feeds AuthService.ResolveGoogle, which maps it to
// a user row (creating or linking as needed).
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that automatically adds
	// the "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if gUser.ID == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty subject ID)")
	}

	return &gUser, nil
}
