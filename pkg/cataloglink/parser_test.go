package cataloglink

import (
	"errors"
	"reflect"
	"testing"
)

const host = "open.spotify.com"

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		segments []string
		err      error
	}{
		{
			"track link",
			"https://open.spotify.com/track/2WjkOw9JVbvAdKKUaGs3OK",
			[]string{"track", "2WjkOw9JVbvAdKKUaGs3OK"},
			nil,
		},
		{
			"playlist link with share params",
			"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			[]string{"playlist", "37i9dQZF1DXcBWIGoYBM5M"},
			nil,
		},
		{
			"legacy user playlist link",
			"https://open.spotify.com/user/spotify/playlist/37i9dQZF1DXcBWIGoYBM5M",
			[]string{"user", "spotify", "playlist", "37i9dQZF1DXcBWIGoYBM5M"},
			nil,
		},
		{
			"locale prefix is dropped",
			"https://open.spotify.com/intl-de/album/1DFixLWuPkv3KT3TnV35m3",
			[]string{"album", "1DFixLWuPkv3KT3TnV35m3"},
			nil,
		},
		{
			"surrounding whitespace",
			"  https://open.spotify.com/track/abc \n",
			[]string{"track", "abc"},
			nil,
		},
		{
			"host is case insensitive",
			"https://OPEN.Spotify.com/track/abc",
			[]string{"track", "abc"},
			nil,
		},
		{"plain text", "not a url", nil, ErrMalformed},
		{"missing scheme", "open.spotify.com/track/abc", nil, ErrMalformed},
		{"spotify uri", "spotify:track:abc", nil, ErrMalformed},
		{"empty host", "https:///track/abc", nil, ErrMalformed},
		{"other host", "https://other-host.example/track/abc", nil, ErrUnsupportedHost},
		{"lookalike host", "https://open.spotify.com.evil.example/track/abc", nil, ErrUnsupportedHost},
		{"catalog host on another port", "https://open.spotify.com:8443/track/abc", nil, ErrUnsupportedHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := Parse(tt.input, host)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !reflect.DeepEqual(link.Segments, tt.segments) {
				t.Errorf("Parse(%q) segments = %v, want %v", tt.input, link.Segments, tt.segments)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			"tracking params",
			"https://open.spotify.com/track/abc?si=xyz&utm_source=copy-link&context=keep",
			"https://open.spotify.com/track/abc?context=keep",
		},
		{"only share id", " https://open.spotify.com/playlist/p1?si=abc ", "https://open.spotify.com/playlist/p1"},
		{"nothing to strip", "https://open.spotify.com/track/abc?b=2&a=1", "https://open.spotify.com/track/abc?b=2&a=1"},
		{"not a url", "hello there", "hello there"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.expected {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLinkSegment(t *testing.T) {
	link := &Link{Segments: []string{"track", "abc"}}

	if got := link.Segment(1); got != "abc" {
		t.Errorf("Segment(1) = %q, want %q", got, "abc")
	}
	if got := link.Segment(3); got != "" {
		t.Errorf("Segment(3) = %q, want empty", got)
	}
	if got := link.Segment(-1); got != "" {
		t.Errorf("Segment(-1) = %q, want empty", got)
	}
}

func TestFirstFromURIList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single uri", "https://open.spotify.com/track/abc", "https://open.spotify.com/track/abc"},
		{"crlf list", "https://open.spotify.com/track/a\r\nhttps://open.spotify.com/track/b\r\n", "https://open.spotify.com/track/a"},
		{"leading comment", "# dragged from player\r\nhttps://open.spotify.com/album/x", "https://open.spotify.com/album/x"},
		{"only comments", "# nothing\n#", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstFromURIList(tt.input); got != tt.expected {
				t.Errorf("FirstFromURIList() = %q, want %q", got, tt.expected)
			}
		})
	}
}
