package core

import (
	"context"
	"net/url"
	"strings"
	"time"
)

type ContentType string

const (
	// ContentTrack is a single catalog track
	ContentTrack ContentType = "track"
	// ContentAlbum is an album, a collection of tracks
	ContentAlbum ContentType = "album"
	// ContentPlaylist is a user playlist, a collection of tracks
	ContentPlaylist ContentType = "playlist"
)

// ContentKey identifies a cached content item.
type ContentKey struct {
	Type ContentType
	ID   string
}

func (k ContentKey) String() string {
	return string(k.Type) + ":" + k.ID
}

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Track struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Artists    []Artist      `json:"artists"`
	Album      string        `json:"album"`
	Duration   time.Duration `json:"duration"`
	Popularity int           `json:"popularity"`
	PreviewURL string        `json:"preview_url,omitempty"`
	URL        string        `json:"url"`
}

// ArtistNames joins the track's artist names for display.
func (t *Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Collection is an album or playlist with the ids of its member tracks in order.
type Collection struct {
	ID       string      `json:"id"`
	Kind     ContentType `json:"kind"`
	Name     string      `json:"name"`
	Owner    string      `json:"owner"`
	ImageURL string      `json:"image_url,omitempty"`
	URL      string      `json:"url"`
	Total    int         `json:"total"`
	TrackIDs []string    `json:"track_ids"`
}

type AudioFeatures struct {
	TrackID          string  `json:"track_id"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Speechiness      float64 `json:"speechiness"`
	Valence          float64 `json:"valence"`
	Loudness         float64 `json:"loudness"`
	Tempo            float64 `json:"tempo"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	TimeSignature    int     `json:"time_signature"`
}

// Value returns the normalized value of a known feature id.
func (f *AudioFeatures) Value(featureID string) (float64, bool) {
	switch featureID {
	case "acousticness":
		return f.Acousticness, true
	case "danceability":
		return f.Danceability, true
	case "energy":
		return f.Energy, true
	case "instrumentalness":
		return f.Instrumentalness, true
	case "liveness":
		return f.Liveness, true
	case "speechiness":
		return f.Speechiness, true
	case "valence":
		return f.Valence, true
	}
	return 0, false
}

// ContentItem is immutable once created by a resolver.
type ContentItem struct {
	ID            string         `json:"id"`
	Type          ContentType    `json:"type"`
	Payload       any            `json:"payload"`
	AudioFeatures *AudioFeatures `json:"audio_features,omitempty"`
}

func (c ContentItem) Key() ContentKey {
	return ContentKey{Type: c.Type, ID: c.ID}
}

func (c ContentItem) Track() (*Track, bool) {
	t, ok := c.Payload.(*Track)
	return t, ok
}

func (c ContentItem) Collection() (*Collection, bool) {
	col, ok := c.Payload.(*Collection)
	return col, ok
}

type SeedType string

const (
	SeedArtist SeedType = "artist"
	SeedTrack  SeedType = "track"
	SeedGenre  SeedType = "genre"
)

// CollectionEntry is a curated recommendation seed.
type CollectionEntry struct {
	Type SeedType `json:"type"`
	ID   string   `json:"id"`
}

// FeatureRange is an inclusive [min, max] pair on the 0..100 scale.
type FeatureRange [2]int

func (r FeatureRange) Min() int { return r[0] }
func (r FeatureRange) Max() int { return r[1] }

type AudioFeatureRanges map[string]FeatureRange

type FeatureDefinition struct {
	ID          string
	Name        string
	Description string
}

type SearchStatus int

const (
	// StatusIdle is the state before the first search
	StatusIdle SearchStatus = iota
	// StatusSearching indicates a search is in flight
	StatusSearching
	// StatusSuccess indicates the last search finished and a view is set
	StatusSuccess
	// StatusError indicates the last search failed with a user-visible reason
	StatusError
)

func (s SearchStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSearching:
		return "searching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

type View string

const (
	ViewStart          View = "start"
	ViewTrackDetail    View = "track-detail"
	ViewAlbumDetail    View = "album-detail"
	ViewPlaylistDetail View = "playlist-detail"
	ViewSearchResults  View = "search-results"
)

type ViewData struct {
	ID string `json:"id,omitempty"`
}

// SearchState is a snapshot of the search state machine.
type SearchState struct {
	Status       SearchStatus `json:"-"`
	StatusName   string       `json:"status"`
	View         View         `json:"view"`
	ViewData     ViewData     `json:"view_data"`
	ErrorMessage string       `json:"error,omitempty"`
	Notice       string       `json:"notice,omitempty"`
}

// FetchResult reports a non-fatal condition of a collection fetch.
type FetchResult struct {
	Truncated bool
	Total     int
	Limit     int
}

// RecommendationOptions is the query built from the seed collection and ranges.
type RecommendationOptions struct {
	SeedArtists []string
	SeedTracks  []string
	SeedGenres  []string
	// Bounds maps "min_<feature>" and "max_<feature>" to a 0..1 value.
	Bounds map[string]float64
}

// CatalogAPI is the remote catalog capability. Not-found tracks come back as nil entries.
type CatalogAPI interface {
	GetTracks(ctx context.Context, ids []string) ([]*Track, error)
	GetAudioFeaturesForTracks(ctx context.Context, ids []string) ([]*AudioFeatures, error)
	GetPlaylist(ctx context.Context, id string) (*Collection, error)
	GetAlbum(ctx context.Context, id string) (*Collection, error)
	GetRecommendations(ctx context.Context, opts RecommendationOptions) ([]Track, error)
	GetAvailableGenreSeeds(ctx context.Context) ([]string, error)
	SetAccessToken(token string)
}

// AuthorizationURLBuilder builds the implicit-grant authorization URL.
type AuthorizationURLBuilder interface {
	AuthorizationURL() string
}

type ContentStore interface {
	Has(key ContentKey) bool
	Get(key ContentKey) (ContentItem, bool)
	Put(items ...ContentItem)
	Len() int
}

// KeyValueStore is durable string storage. Get reports a missing key with ok=false.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Navigator interface {
	Location() *url.URL
	Push(u *url.URL)
	Replace(u *url.URL)
	Redirect(ctx context.Context, target string) error
	Reload(ctx context.Context) error
}

// Metrics receives search and API outcomes. A nil Metrics is replaced by a no-op.
type Metrics interface {
	RecordSearch(contentType, outcome string, duration time.Duration)
	RecordError(kind string)
	SetCachedItems(n int)
	SetCollectionEntries(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecordSearch(string, string, time.Duration) {}
func (nopMetrics) RecordError(string)                         {}
func (nopMetrics) SetCachedItems(int)                         {}
func (nopMetrics) SetCollectionEntries(int)                   {}
