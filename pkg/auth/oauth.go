// Package auth implements the Google OAuth2 web flow used to link a user's
// Gmail account, and builds Gmail API services from stored tokens.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailReadonlyScope is the only scope the importer needs.
const GmailReadonlyScope = "https://www.googleapis.com/auth/gmail.readonly"

// Flow holds the OAuth2 client configuration for the web redirect flow.
type Flow struct {
	config *oauth2.Config
}

// NewFlow loads OAuth client credentials from the Google Cloud Console JSON
// file and binds them to the redirect URL.
func NewFlow(credentialsPath, redirectURL string, scopes ...string) (*Flow, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("could not read credentials file: %w", err)
	}

	if len(scopes) == 0 {
		scopes = []string{GmailReadonlyScope}
	}
	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("could not parse credentials file: %w", err)
	}
	config.RedirectURL = redirectURL

	return &Flow{config: config}, nil
}

// AuthURL returns the URL the user visits to grant access. Offline access
// is requested so a refresh token comes back with the grant.
func (f *Flow) AuthURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return token, nil
}

// ServiceFromToken builds a Gmail service from a stored token, refreshing
// it transparently when expired.
func (f *Flow) ServiceFromToken(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	client := f.config.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return service, nil
}

// MarshalToken serializes a token for storage.
func MarshalToken(token *oauth2.Token) (string, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("marshal token: %w", err)
	}
	return string(data), nil
}

// UnmarshalToken deserializes a stored token.
func UnmarshalToken(data string) (*oauth2.Token, error) {
	token := &oauth2.Token{}
	if err := json.Unmarshal([]byte(data), token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return token, nil
}
