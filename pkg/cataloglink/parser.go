// Package cataloglink parses user-supplied catalog links into path segments.
package cataloglink

import (
	"errors"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMalformed is returned for input that is not an absolute http(s) URL
	ErrMalformed = errors.New("malformed link")
	// ErrUnsupportedHost is returned for URLs outside the catalog domain
	ErrUnsupportedHost = errors.New("unsupported link host")
)

var trackingParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "si"}

// Link is a parsed catalog URL.
type Link struct {
	URL *url.URL
	// Segments are the path segments after the leading slash, locale prefix removed.
	Segments []string
}

// Segment returns the i-th path segment or "" when the path is shorter.
func (l *Link) Segment(i int) string {
	if i < 0 || i >= len(l.Segments) {
		return ""
	}
	return l.Segments[i]
}

// Normalize trims and NFKC-normalizes pasted input.
func Normalize(raw string) string {
	return norm.NFKC.String(strings.TrimSpace(raw))
}

// Parse validates raw as a URL on expectedHost and splits its path.
func Parse(raw, expectedHost string) (*Link, error) {
	raw = Normalize(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrMalformed
	}
	if u.Host == "" {
		return nil, ErrMalformed
	}

	// the port is part of the host
	if !strings.EqualFold(u.Host, expectedHost) {
		return nil, ErrUnsupportedHost
	}

	return &Link{URL: u, Segments: splitPath(u.Path)}, nil
}

// Clean normalizes raw and drops share-tracking query parameters. Input that is not an
// http(s) URL is returned normalized but otherwise untouched.
func Clean(raw string) string {
	raw = Normalize(raw)

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return raw
	}

	q := u.Query()
	stripped := false
	for _, param := range trackingParams {
		if q.Has(param) {
			q.Del(param)
			stripped = true
		}
	}
	if !stripped {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func splitPath(path string) []string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) > 0 && strings.HasPrefix(segments[0], "intl-") {
		segments = segments[1:]
	}
	return segments
}

// FirstFromURIList returns the first URI of a text/uri-list payload, skipping comment lines.
func FirstFromURIList(payload string) string {
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line
	}
	return ""
}
