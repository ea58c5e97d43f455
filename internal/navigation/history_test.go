package navigation

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"featurescout/internal/i18n"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func newTestHistory(t *testing.T) (*History, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	h := NewHistory(mustParse(t, "http://127.0.0.1:8080/"), &out, i18n.NewLocalizer(i18n.DefaultLanguage), zap.NewNop())
	return h, &out
}

func TestHistoryPushBackForward(t *testing.T) {
	h, _ := newTestHistory(t)

	h.Push(mustParse(t, "http://127.0.0.1:8080/?search=a"))
	h.Push(mustParse(t, "http://127.0.0.1:8080/?search=b"))

	if got := h.Location().Query().Get("search"); got != "b" {
		t.Fatalf("Location search = %q, want b", got)
	}
	if !h.Back() || h.Location().Query().Get("search") != "a" {
		t.Fatal("Expected back to reach a")
	}
	if !h.Back() || h.Location().RawQuery != "" {
		t.Fatal("Expected back to reach the start entry")
	}
	if h.Back() {
		t.Error("Expected back at the first entry to fail")
	}

	if !h.Forward() || h.Location().Query().Get("search") != "a" {
		t.Fatal("Expected forward to reach a")
	}

	h.Push(mustParse(t, "http://127.0.0.1:8080/?search=c"))
	if h.Forward() {
		t.Error("Expected push to drop forward entries")
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestHistoryReplace(t *testing.T) {
	h, _ := newTestHistory(t)
	h.Replace(mustParse(t, "http://127.0.0.1:8080/?search=x"))

	if h.Len() != 1 {
		t.Errorf("Expected replace to keep one entry, got %d", h.Len())
	}
	if h.Back() {
		t.Error("Expected no back entry after replace")
	}
}

func TestHistoryLocationIsACopy(t *testing.T) {
	h, _ := newTestHistory(t)

	loc := h.Location()
	loc.Path = "/changed"

	if h.Location().Path != "/" {
		t.Error("Expected mutation of the returned location not to leak")
	}
}

func TestHistoryRedirectPrintsTarget(t *testing.T) {
	h, out := newTestHistory(t)
	target := "https://accounts.spotify.com/authorize?client_id=x"

	if err := h.Redirect(context.Background(), target); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), target) {
		t.Errorf("Expected output to contain the target, got %q", out.String())
	}
	if h.LastRedirect() != target {
		t.Errorf("LastRedirect() = %q", h.LastRedirect())
	}
}

func TestHistoryReload(t *testing.T) {
	h, _ := newTestHistory(t)

	if err := h.Reload(context.Background()); err != nil {
		t.Errorf("Expected reload without handler to be a no-op, got %v", err)
	}

	calls := 0
	h.SetReloadHandler(func(context.Context) error {
		calls++
		return nil
	})
	if err := h.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("Expected handler to run once, got %d", calls)
	}
}
