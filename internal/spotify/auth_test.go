package spotify

import (
	"net/url"
	"strings"
	"testing"

	"featurescout/internal/core"
)

func TestAuthorizationURL(t *testing.T) {
	auth := NewAuthorizer(&core.SpotifyConfig{ClientID: "client-1", RedirectURL: "http://127.0.0.1:8080/"})

	first := auth.AuthorizationURL()
	second := auth.AuthorizationURL()

	u, err := url.Parse(first)
	if err != nil {
		t.Fatalf("Invalid authorization URL %q: %v", first, err)
	}
	query := u.Query()
	tests := map[string]string{
		"response_type": "token",
		"client_id":     "client-1",
		"show_dialog":   "true",
		"redirect_uri":  "http://127.0.0.1:8080/",
	}
	for key, want := range tests {
		if got := query.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if !strings.Contains(query.Get("scope"), "user-read-private") {
		t.Errorf("scope = %q", query.Get("scope"))
	}
	if query.Get("state") == "" || first == second {
		t.Error("Expected a fresh state per URL")
	}
}
