package core

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// SearchParam is the query parameter carrying the searched link in the app location.
const SearchParam = "search"

func accessTokenKey(appID string) string { return appID + "_access_token" }
func prefillKey(appID string) string     { return appID + "_post_access_grant_url_prefill" }

// BootstrapResult tells the caller whether to start searching or wait for the authorization landing.
type BootstrapResult struct {
	Authorized  bool
	Prefill     string
	RedirectURL string
}

// Session holds the access token and carries the pending search across the authorization redirect.
type Session struct {
	appID  string
	kv     KeyValueStore
	nav    Navigator
	api    CatalogAPI
	auth   AuthorizationURLBuilder
	logger *zap.Logger

	mutex sync.RWMutex
	token string
}

func NewSession(appID string, kv KeyValueStore, nav Navigator, api CatalogAPI, auth AuthorizationURLBuilder,
	logger *zap.Logger) *Session {
	return &Session{
		appID:  appID,
		kv:     kv,
		nav:    nav,
		api:    api,
		auth:   auth,
		logger: logger,
	}
}

// SearchLocation returns base with its path and query replaced by /?search=<link>.
func SearchLocation(base *url.URL, link string) *url.URL {
	u := *base
	u.Path = "/"
	u.RawPath = ""
	u.RawQuery = url.Values{SearchParam: {link}}.Encode()
	u.Fragment = ""
	u.RawFragment = ""
	return &u
}

// Bootstrap captures a token from the location fragment, then either installs the
// persisted token or redirects to authorization.
func (s *Session) Bootstrap(ctx context.Context) (BootstrapResult, error) {
	loc := s.nav.Location()

	fragment, err := url.ParseQuery(loc.EscapedFragment())
	if err != nil {
		s.logger.Warn("Ignoring unreadable location fragment", zap.Error(err))
	}
	if loc.Fragment != "" {
		cleared := *loc
		cleared.Fragment = ""
		cleared.RawFragment = ""
		s.nav.Replace(&cleared)
	}

	if token := fragment.Get("access_token"); token != "" {
		s.logger.Info("Captured access token from authorization redirect")
		if err := s.kv.Set(ctx, accessTokenKey(s.appID), token); err != nil {
			return BootstrapResult{}, fmt.Errorf("failed to persist access token: %w", err)
		}

		prefill, ok, err := s.kv.Get(ctx, prefillKey(s.appID))
		if err != nil {
			return BootstrapResult{}, fmt.Errorf("failed to read pending search: %w", err)
		}
		if ok && prefill != "" {
			s.nav.Replace(SearchLocation(s.nav.Location(), prefill))
		}
	}

	if err := s.kv.Delete(ctx, prefillKey(s.appID)); err != nil {
		return BootstrapResult{}, fmt.Errorf("failed to clear pending search: %w", err)
	}

	search := s.nav.Location().Query().Get(SearchParam)

	token, ok, err := s.kv.Get(ctx, accessTokenKey(s.appID))
	if err != nil {
		return BootstrapResult{}, fmt.Errorf("failed to read access token: %w", err)
	}
	if ok && token != "" {
		s.mutex.Lock()
		s.token = token
		s.mutex.Unlock()
		s.api.SetAccessToken(token)

		return BootstrapResult{Authorized: true, Prefill: search}, nil
	}

	if search != "" {
		if err := s.kv.Set(ctx, prefillKey(s.appID), search); err != nil {
			return BootstrapResult{}, fmt.Errorf("failed to stash pending search: %w", err)
		}
	}

	target := s.auth.AuthorizationURL()
	s.logger.Info("No access token, redirecting to authorization")
	if err := s.nav.Redirect(ctx, target); err != nil {
		return BootstrapResult{}, fmt.Errorf("failed to redirect to authorization: %w", err)
	}
	return BootstrapResult{RedirectURL: target}, nil
}

// Invalidate drops the token and reloads. The search parameter stays in the location
// so the reloaded session resolves it again after re-authorization.
func (s *Session) Invalidate(ctx context.Context) error {
	s.mutex.Lock()
	s.token = ""
	s.mutex.Unlock()

	s.api.SetAccessToken("")
	if err := s.kv.Delete(ctx, accessTokenKey(s.appID)); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}

	s.logger.Info("Access token cleared, reloading")
	return s.nav.Reload(ctx)
}

func (s *Session) Authorized() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.token != ""
}
