// Package spotify adapts the Spotify Web API to the catalog interface used by the resolvers.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"featurescout/internal/core"
)

const (
	// DefaultAPIBaseURL is the Web API root; it must end with a slash
	DefaultAPIBaseURL = "https://api.spotify.com/v1/"
	// MaxTracksPerRequest is the id ceiling of the several-tracks endpoint
	MaxTracksPerRequest = 50
	// MaxAudioFeaturesPerRequest is the id ceiling of the several-audio-features endpoint
	MaxAudioFeaturesPerRequest = 100
)

type Client struct {
	config    *core.SpotifyConfig
	logger    *zap.Logger
	transport http.RoundTripper
	baseURL   string

	mutex      sync.RWMutex
	client     *spotify.Client
	httpClient *http.Client
}

func NewClient(config *core.SpotifyConfig, recorder CallRecorder, logger *zap.Logger) *Client {
	baseURL := config.APIBaseURL
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{
		config:    config,
		logger:    logger,
		transport: NewRetryTransport(http.DefaultTransport, config.MaxRetries, recorder, logger),
		baseURL:   baseURL,
	}
}

// SetAccessToken installs a bearer token for all later calls; an empty token logs the client out.
func (c *Client) SetAccessToken(token string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if token == "" {
		c.client = nil
		c.httpClient = nil
		return
	}

	c.httpClient = &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		},
	}
	c.client = spotify.New(c.httpClient, spotify.WithBaseURL(c.baseURL))
}

func (c *Client) api() (*spotify.Client, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.client == nil {
		return nil, core.ErrNotAuthenticated
	}
	return c.client, nil
}

func (c *Client) GetTracks(ctx context.Context, ids []string) ([]*core.Track, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	tracks := make([]*core.Track, 0, len(ids))
	for _, batch := range batches(ids, MaxTracksPerRequest) {
		fetched, err := client.GetTracks(ctx, toIDs(batch))
		if err != nil {
			return nil, convertError(err)
		}
		for _, track := range fetched {
			if track == nil {
				tracks = append(tracks, nil)
				continue
			}
			tracks = append(tracks, convertFullTrack(track))
		}
	}

	c.logger.Debug("Fetched tracks", zap.Int("requested", len(ids)), zap.Int("returned", len(tracks)))
	return tracks, nil
}

func (c *Client) GetAudioFeaturesForTracks(ctx context.Context, ids []string) ([]*core.AudioFeatures, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	features := make([]*core.AudioFeatures, 0, len(ids))
	for _, batch := range batches(ids, MaxAudioFeaturesPerRequest) {
		fetched, err := client.GetAudioFeatures(ctx, toIDs(batch)...)
		if err != nil {
			return nil, convertError(err)
		}
		for _, f := range fetched {
			if f == nil {
				features = append(features, nil)
				continue
			}
			features = append(features, convertAudioFeatures(f))
		}
	}
	return features, nil
}

func (c *Client) GetPlaylist(ctx context.Context, id string) (*core.Collection, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	playlist, err := client.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return nil, convertError(err)
	}

	trackIDs := make([]string, 0, len(playlist.Tracks.Tracks))
	for i := range playlist.Tracks.Tracks {
		// Local files and episodes carry no catalog id.
		if trackID := string(playlist.Tracks.Tracks[i].Track.ID); trackID != "" {
			trackIDs = append(trackIDs, trackID)
		}
	}

	return &core.Collection{
		ID:       string(playlist.ID),
		Kind:     core.ContentPlaylist,
		Name:     playlist.Name,
		Owner:    playlist.Owner.DisplayName,
		ImageURL: firstImage(playlist.Images),
		URL:      playlist.ExternalURLs["spotify"],
		Total:    int(playlist.Tracks.Total),
		TrackIDs: trackIDs,
	}, nil
}

func (c *Client) GetAlbum(ctx context.Context, id string) (*core.Collection, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	album, err := client.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return nil, convertError(err)
	}

	trackIDs := make([]string, 0, len(album.Tracks.Tracks))
	for i := range album.Tracks.Tracks {
		trackIDs = append(trackIDs, string(album.Tracks.Tracks[i].ID))
	}

	return &core.Collection{
		ID:       string(album.ID),
		Kind:     core.ContentAlbum,
		Name:     album.Name,
		Owner:    joinArtists(album.Artists),
		ImageURL: firstImage(album.Images),
		URL:      album.ExternalURLs["spotify"],
		Total:    int(album.Tracks.Total),
		TrackIDs: trackIDs,
	}, nil
}

// boundSetters maps "min_<feature>"/"max_<feature>" bounds onto the library's track attributes.
var boundSetters = map[string]func(*spotify.TrackAttributes, float64) *spotify.TrackAttributes{
	"min_acousticness":     (*spotify.TrackAttributes).MinAcousticness,
	"max_acousticness":     (*spotify.TrackAttributes).MaxAcousticness,
	"min_danceability":     (*spotify.TrackAttributes).MinDanceability,
	"max_danceability":     (*spotify.TrackAttributes).MaxDanceability,
	"min_energy":           (*spotify.TrackAttributes).MinEnergy,
	"max_energy":           (*spotify.TrackAttributes).MaxEnergy,
	"min_instrumentalness": (*spotify.TrackAttributes).MinInstrumentalness,
	"max_instrumentalness": (*spotify.TrackAttributes).MaxInstrumentalness,
	"min_liveness":         (*spotify.TrackAttributes).MinLiveness,
	"max_liveness":         (*spotify.TrackAttributes).MaxLiveness,
	"min_loudness":         (*spotify.TrackAttributes).MinLoudness,
	"max_loudness":         (*spotify.TrackAttributes).MaxLoudness,
	"min_speechiness":      (*spotify.TrackAttributes).MinSpeechiness,
	"max_speechiness":      (*spotify.TrackAttributes).MaxSpeechiness,
	"min_tempo":            (*spotify.TrackAttributes).MinTempo,
	"max_tempo":            (*spotify.TrackAttributes).MaxTempo,
	"min_valence":          (*spotify.TrackAttributes).MinValence,
	"max_valence":          (*spotify.TrackAttributes).MaxValence,
}

func trackAttributes(bounds map[string]float64) (*spotify.TrackAttributes, bool) {
	attrs := spotify.NewTrackAttributes()
	for key, value := range bounds {
		set, ok := boundSetters[key]
		if !ok {
			return nil, false
		}
		set(attrs, value)
	}
	return attrs, true
}

// GetRecommendations goes through the library whenever it accepts the request. Seed counts
// it refuses locally (none, or more than five) are sent as built so the API's 400 comes back.
func (c *Client) GetRecommendations(ctx context.Context, opts core.RecommendationOptions) ([]core.Track, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	attrs, known := trackAttributes(opts.Bounds)
	seeds := opts.SeedCount()
	if seeds == 0 || seeds > spotify.MaxNumberOfSeeds || !known {
		return c.requestRecommendations(ctx, opts)
	}

	recs, err := client.GetRecommendations(ctx, spotify.Seeds{
		Artists: toIDs(opts.SeedArtists),
		Tracks:  toIDs(opts.SeedTracks),
		Genres:  opts.SeedGenres,
	}, attrs)
	if err != nil {
		return nil, convertError(err)
	}

	tracks := make([]core.Track, 0, len(recs.Tracks))
	for i := range recs.Tracks {
		tracks = append(tracks, convertSimpleTrack(&recs.Tracks[i]))
	}

	c.logger.Debug("Fetched recommendations",
		zap.Int("seeds", seeds),
		zap.Int("tracks", len(tracks)))
	return tracks, nil
}

type errorResponse struct {
	Error spotify.Error `json:"error"`
}

func (c *Client) requestRecommendations(ctx context.Context, opts core.RecommendationOptions) ([]core.Track, error) {
	c.mutex.RLock()
	httpClient := c.httpClient
	c.mutex.RUnlock()
	if httpClient == nil {
		return nil, core.ErrNotAuthenticated
	}

	endpoint := c.baseURL + "recommendations"
	if query := opts.Values().Encode(); query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommendations request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommendations request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil || body.Error.Message == "" {
			body.Error.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &core.APIError{Status: resp.StatusCode, Message: body.Error.Message}
	}

	var body spotify.Recommendations
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode recommendations: %w", err)
	}

	tracks := make([]core.Track, 0, len(body.Tracks))
	for i := range body.Tracks {
		tracks = append(tracks, convertSimpleTrack(&body.Tracks[i]))
	}
	return tracks, nil
}

func (c *Client) GetAvailableGenreSeeds(ctx context.Context) ([]string, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}

	genres, err := client.GetAvailableGenreSeeds(ctx)
	if err != nil {
		return nil, convertError(err)
	}
	return genres, nil
}

// convertError turns library errors carrying an HTTP status into *core.APIError.
func convertError(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return &core.APIError{Status: apiErr.Status, Message: apiErr.Message}
	}
	var apiErrPtr *spotify.Error
	if errors.As(err, &apiErrPtr) {
		return &core.APIError{Status: apiErrPtr.Status, Message: apiErrPtr.Message}
	}
	return err
}

func convertFullTrack(track *spotify.FullTrack) *core.Track {
	t := convertSimpleTrack(&track.SimpleTrack)
	t.Album = track.Album.Name
	t.Popularity = int(track.Popularity)
	return &t
}

func convertSimpleTrack(track *spotify.SimpleTrack) core.Track {
	artists := make([]core.Artist, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, core.Artist{ID: string(artist.ID), Name: artist.Name})
	}

	return core.Track{
		ID:         string(track.ID),
		Title:      track.Name,
		Artists:    artists,
		Duration:   time.Duration(track.Duration) * time.Millisecond,
		PreviewURL: track.PreviewURL,
		URL:        track.ExternalURLs["spotify"],
	}
}

func convertAudioFeatures(f *spotify.AudioFeatures) *core.AudioFeatures {
	return &core.AudioFeatures{
		TrackID:          string(f.ID),
		Acousticness:     float64(f.Acousticness),
		Danceability:     float64(f.Danceability),
		Energy:           float64(f.Energy),
		Instrumentalness: float64(f.Instrumentalness),
		Liveness:         float64(f.Liveness),
		Speechiness:      float64(f.Speechiness),
		Valence:          float64(f.Valence),
		Loudness:         float64(f.Loudness),
		Tempo:            float64(f.Tempo),
		Key:              int(f.Key),
		Mode:             int(f.Mode),
		TimeSignature:    int(f.TimeSignature),
	}
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}

func firstImage(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

func batches(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
