// Package navigation keeps the app location and its back/forward history.
package navigation

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"featurescout/internal/i18n"
)

// History is an in-memory location history. Redirects to foreign pages are printed
// to out for the user to follow; the console passes the page they land on back in.
type History struct {
	out       io.Writer
	localizer *i18n.Localizer
	logger    *zap.Logger

	mutex        sync.Mutex
	entries      []*url.URL
	index        int
	lastRedirect string
	reload       func(ctx context.Context) error
}

func NewHistory(start *url.URL, out io.Writer, localizer *i18n.Localizer, logger *zap.Logger) *History {
	return &History{
		out:       out,
		localizer: localizer,
		logger:    logger,
		entries:   []*url.URL{clone(start)},
	}
}

func clone(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}

// Location returns a copy of the current entry.
func (h *History) Location() *url.URL {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return clone(h.entries[h.index])
}

// Push drops any forward entries and appends u.
func (h *History) Push(u *url.URL) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.entries = append(h.entries[:h.index+1], clone(u))
	h.index = len(h.entries) - 1
	h.logger.Debug("Pushed location", zap.String("location", u.String()), zap.Int("depth", len(h.entries)))
}

func (h *History) Replace(u *url.URL) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.entries[h.index] = clone(u)
}

func (h *History) Back() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

func (h *History) Forward() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

// Redirect prints the target with instructions instead of opening it.
func (h *History) Redirect(_ context.Context, target string) error {
	h.mutex.Lock()
	h.lastRedirect = target
	h.mutex.Unlock()

	h.logger.Info("Redirecting to authorization page")
	if _, err := fmt.Fprintln(h.out, h.localizer.T("session.authorize", target)); err != nil {
		return fmt.Errorf("failed to print redirect: %w", err)
	}
	return nil
}

// LastRedirect is the most recent Redirect target, empty if none.
func (h *History) LastRedirect() string {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.lastRedirect
}

// SetReloadHandler installs the function Reload calls.
func (h *History) SetReloadHandler(handler func(ctx context.Context) error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.reload = handler
}

func (h *History) Reload(ctx context.Context) error {
	h.mutex.Lock()
	handler := h.reload
	h.mutex.Unlock()

	if handler == nil {
		h.logger.Warn("Reload requested without a handler")
		return nil
	}
	return handler(ctx)
}

// Len is the number of history entries.
func (h *History) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.entries)
}
