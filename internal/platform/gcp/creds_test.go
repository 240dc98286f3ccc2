package gcp

import (
	"context"
	"testing"
)

func TestClientOptionsEmpty(t *testing.T) {
	if opts := ClientOptions(context.Background(), Credentials{}); opts != nil {
		t.Fatalf("expected nil options, got %d", len(opts))
	}
}

func TestClientOptionsRefreshTokenWins(t *testing.T) {
	c := Credentials{
		JSON:              `{"type":"service_account"}`,
		OAuthClientID:     "id",
		OAuthClientSecret: "secret",
		OAuthRefreshToken: "refresh",
	}
	if !c.HasRefreshToken() {
		t.Fatalf("expected refresh token credentials")
	}
	if opts := ClientOptions(context.Background(), c, "scope"); len(opts) != 1 {
		t.Fatalf("expected single token source option, got %d", len(opts))
	}
}

func TestClientOptionsServiceAccount(t *testing.T) {
	c := Credentials{File: "/etc/creds.json", OAuthClientID: "id"}
	if c.HasRefreshToken() {
		t.Fatalf("partial oauth config must not count")
	}
	if opts := ClientOptions(context.Background(), c, "scope"); len(opts) != 2 {
		t.Fatalf("expected file + scopes options, got %d", len(opts))
	}
}
