// Package google holds the OAuth plumbing shared by the directory and
// calendar clients: the out-of-band authorization flow, the on-disk
// token cache, and service construction.
package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
)

// Credentials identifies the OAuth application.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

const tokenFileName = "google.token"

// tokenDir is the directory holding the cached token.
func tokenDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".temu"
	}
	return filepath.Join(home, ".temu")
}

func tokenFile() string {
	return filepath.Join(tokenDir(), tokenFileName)
}

// HasToken reports whether a cached OAuth token exists.
func HasToken() bool {
	_, err := os.ReadFile(tokenFile())
	return err == nil
}

func oauthConfig(creds Credentials) *oauth2.Config {
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oob,
		Scopes: []string{
			calendarapi.CalendarScope,
			"https://www.googleapis.com/auth/contacts.readonly",
			"https://www.googleapis.com/auth/directory.readonly",
		},
	}
}

// AuthURL returns the URL the user visits to authorize access.
func AuthURL(creds Credentials) string {
	return oauthConfig(creds).AuthCodeURL("state")
}

// SaveToken exchanges an authorization code and caches the resulting
// token on disk.
func SaveToken(ctx context.Context, creds Credentials, authCode string) error {
	t, err := oauthConfig(creds).Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	if err := os.MkdirAll(tokenDir(), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFile(), []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	log.Info().Str("path", tokenFile()).Msg("OAuth token saved")
	return nil
}

// TokenSource returns a refreshing token source backed by the cached
// token. The cached access token is treated as expired so the first use
// refreshes it.
func TokenSource(ctx context.Context, creds Credentials) (oauth2.TokenSource, error) {
	slurp, err := os.ReadFile(tokenFile())
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found")
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token format")
	}

	ts := oauthConfig(creds).TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token is invalid: %w", err)
	}
	return ts, nil
}

// HTTPClient returns an HTTP client that authenticates requests with
// the cached token, refreshing it as needed. HTTP/2 is disabled to
// avoid protocol errors against some Google endpoints.
func HTTPClient(ctx context.Context, creds Credentials) (*http.Client, error) {
	ts, err := TokenSource(ctx, creds)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{ForceAttemptHTTP2: false}
	}
	return client, nil
}
