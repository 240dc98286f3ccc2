package gcp

import (
	"context"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Credentials selects how Google clients authenticate. A refresh token with
// its OAuth client wins over service-account JSON, because Drive files
// created by a service account land in that account's own quota.
type Credentials struct {
	JSON string `yaml:"json"`
	File string `yaml:"file"`

	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`
	OAuthRefreshToken string `yaml:"oauth_refresh_token"`
}

func (c Credentials) HasRefreshToken() bool {
	return strings.TrimSpace(c.OAuthRefreshToken) != "" &&
		strings.TrimSpace(c.OAuthClientID) != "" &&
		strings.TrimSpace(c.OAuthClientSecret) != ""
}

// ClientOptions builds options for google.golang.org/api and cloud.google.com
// clients. With nothing configured it returns nil so the client falls back
// to application default credentials.
func ClientOptions(ctx context.Context, c Credentials, scopes ...string) []option.ClientOption {
	if c.HasRefreshToken() {
		conf := &oauth2.Config{
			ClientID:     strings.TrimSpace(c.OAuthClientID),
			ClientSecret: strings.TrimSpace(c.OAuthClientSecret),
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
		}
		ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: strings.TrimSpace(c.OAuthRefreshToken)})
		return []option.ClientOption{option.WithTokenSource(oauth2.ReuseTokenSource(nil, ts))}
	}

	creds := strings.TrimSpace(c.JSON)
	if creds == "" {
		creds = strings.TrimSpace(c.File)
	}
	if creds == "" {
		return nil
	}
	opts := []option.ClientOption{}
	if strings.HasPrefix(creds, "{") {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	if len(scopes) > 0 {
		opts = append(opts, option.WithScopes(scopes...))
	}
	return opts
}

// CredentialsFromEnv reads the same variables the deploy scripts export.
func CredentialsFromEnv() Credentials {
	return Credentials{
		JSON:              strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")),
		File:              strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")),
		OAuthClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		OAuthClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		OAuthRefreshToken: strings.TrimSpace(os.Getenv("GOOGLE_REFRESH_TOKEN")),
	}
}
