package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"featurescout/internal/core"
)

type recordedCall struct {
	endpoint string
	status   int
}

type mockRecorder struct {
	mutex sync.Mutex
	calls []recordedCall
}

func (m *mockRecorder) RecordAPICall(endpoint string, status int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls = append(m.calls, recordedCall{endpoint: endpoint, status: status})
}

const (
	trackJSON = `{"id":"t1","name":"One","duration_ms":215000,"popularity":42,
		"preview_url":"https://p.scdn.co/mp3-preview/t1","external_urls":{"spotify":"https://open.spotify.com/track/t1"},
		"artists":[{"id":"ar1","name":"First"},{"id":"ar2","name":"Second"}],"album":{"id":"a1","name":"Album"}}`
	featuresJSON = `{"id":"t1","acousticness":0.1,"danceability":0.8,"energy":0.5,"instrumentalness":0,
		"liveness":0.2,"speechiness":0.05,"valence":0.25,"loudness":-6.5,"tempo":122,"key":5,"mode":1,"time_signature":4}`
)

func newCatalogServer(t *testing.T, requests *[]*http.Request) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/tracks", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		parts := make([]string, len(ids))
		for i, id := range ids {
			if id == "t1" {
				parts[i] = trackJSON
			} else {
				parts[i] = "null"
			}
		}
		_, _ = w.Write([]byte(`{"tracks":[` + strings.Join(parts, ",") + `]}`))
	})
	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		_, _ = w.Write([]byte(`{"audio_features":[` + featuresJSON + `,null]}`))
	})
	mux.HandleFunc("/playlists/p1", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		_, _ = w.Write([]byte(`{"id":"p1","name":"Mix","owner":{"id":"u1","display_name":"Someone"},
			"images":[{"url":"https://i.scdn.co/image/p1"}],"external_urls":{"spotify":"https://open.spotify.com/playlist/p1"},
			"tracks":{"total":120,"items":[{"track":` + trackJSON + `},{"is_local":true,"track":{"name":"Local"}}]}}`))
	})
	mux.HandleFunc("/albums/a1", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		_, _ = w.Write([]byte(`{"id":"a1","name":"Album","artists":[{"id":"ar1","name":"First"}],
			"tracks":{"total":2,"items":[{"id":"t1","name":"One"},{"id":"t2","name":"Two"}]}}`))
	})
	mux.HandleFunc("/albums/missing", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"Non existing id: 'missing'"}}`))
	})
	mux.HandleFunc("/recommendations", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		if r.URL.Query().Get("min_energy") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"status":400,"message":"invalid request"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"tracks":[{"id":"r1","name":"Rec","artists":[{"id":"ar9","name":"Nine"}]}]}`))
	})
	mux.HandleFunc("/recommendations/available-genre-seeds", func(w http.ResponseWriter, r *http.Request) {
		*requests = append(*requests, r)
		_, _ = w.Write([]byte(`{"genres":["acoustic","house"]}`))
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, requests *[]*http.Request, recorder CallRecorder) *Client {
	t.Helper()
	ts := newCatalogServer(t, requests)
	client := NewClient(&core.SpotifyConfig{APIBaseURL: ts.URL, MaxRetries: 1}, recorder, zap.NewNop())
	client.SetAccessToken("tok")
	return client
}

func TestClientNotAuthenticated(t *testing.T) {
	client := NewClient(&core.SpotifyConfig{}, nil, zap.NewNop())

	if _, err := client.GetTracks(context.Background(), []string{"t1"}); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Errorf("GetTracks() error = %v, want ErrNotAuthenticated", err)
	}
	if _, err := client.GetRecommendations(context.Background(), core.RecommendationOptions{}); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Errorf("GetRecommendations() error = %v, want ErrNotAuthenticated", err)
	}

	client.SetAccessToken("tok")
	client.SetAccessToken("")
	if _, err := client.GetAvailableGenreSeeds(context.Background()); !errors.Is(err, core.ErrNotAuthenticated) {
		t.Errorf("Expected clearing the token to log out, got %v", err)
	}
}

func TestClientGetTracks(t *testing.T) {
	var requests []*http.Request
	recorder := &mockRecorder{}
	client := newTestClient(t, &requests, recorder)

	tracks, err := client.GetTracks(context.Background(), []string{"t1", "nope"})
	if err != nil {
		t.Fatalf("GetTracks() error = %v", err)
	}
	if len(tracks) != 2 || tracks[1] != nil {
		t.Fatalf("Expected a nil entry for the unknown id, got %v", tracks)
	}

	track := tracks[0]
	if track.Title != "One" || track.Album != "Album" || track.Popularity != 42 {
		t.Errorf("Unexpected track %+v", track)
	}
	if track.ArtistNames() != "First, Second" {
		t.Errorf("ArtistNames() = %q", track.ArtistNames())
	}
	if track.Duration.Seconds() != 215 {
		t.Errorf("Duration = %v", track.Duration)
	}
	if track.URL != "https://open.spotify.com/track/t1" {
		t.Errorf("URL = %q", track.URL)
	}

	if got := requests[0].Header.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization header = %q", got)
	}
	if len(recorder.calls) != 1 || recorder.calls[0] != (recordedCall{endpoint: "tracks", status: http.StatusOK}) {
		t.Errorf("Recorded calls = %v", recorder.calls)
	}
}

func TestClientGetTracksBatches(t *testing.T) {
	var requests []*http.Request
	client := newTestClient(t, &requests, nil)

	ids := make([]string, MaxTracksPerRequest+1)
	for i := range ids {
		ids[i] = "x"
	}
	tracks, err := client.GetTracks(context.Background(), ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(requests) != 2 {
		t.Errorf("Expected 2 batched requests, got %d", len(requests))
	}
	if len(tracks) != len(ids) {
		t.Errorf("Expected one entry per id, got %d", len(tracks))
	}
}

func TestClientGetAudioFeatures(t *testing.T) {
	var requests []*http.Request
	client := newTestClient(t, &requests, nil)

	features, err := client.GetAudioFeaturesForTracks(context.Background(), []string{"t1", "nope"})
	if err != nil {
		t.Fatal(err)
	}
	if len(features) != 2 || features[1] != nil {
		t.Fatalf("Unexpected features %v", features)
	}
	f := features[0]
	if f.TrackID != "t1" || f.Tempo != 122 || f.Key != 5 || f.TimeSignature != 4 {
		t.Errorf("Unexpected features %+v", f)
	}
	if v, _ := f.Value("energy"); v != 0.5 {
		t.Errorf("energy = %v", v)
	}
}

func TestClientGetPlaylist(t *testing.T) {
	var requests []*http.Request
	client := newTestClient(t, &requests, nil)

	playlist, err := client.GetPlaylist(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	if playlist.Kind != core.ContentPlaylist || playlist.Owner != "Someone" || playlist.Total != 120 {
		t.Errorf("Unexpected playlist %+v", playlist)
	}
	if len(playlist.TrackIDs) != 1 || playlist.TrackIDs[0] != "t1" {
		t.Errorf("Expected local tracks to be skipped, got %v", playlist.TrackIDs)
	}
	if playlist.ImageURL != "https://i.scdn.co/image/p1" {
		t.Errorf("ImageURL = %q", playlist.ImageURL)
	}
}

func TestClientGetAlbum(t *testing.T) {
	var requests []*http.Request
	client := newTestClient(t, &requests, nil)

	album, err := client.GetAlbum(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if album.Kind != core.ContentAlbum || album.Owner != "First" || album.Total != 2 {
		t.Errorf("Unexpected album %+v", album)
	}
	if strings.Join(album.TrackIDs, ",") != "t1,t2" {
		t.Errorf("TrackIDs = %v", album.TrackIDs)
	}

	_, err = client.GetAlbum(context.Background(), "missing")
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("Expected a 404 APIError, got %v", err)
	}
	if outcome := core.Classify(err); outcome.Kind != core.KindNotFound {
		t.Errorf("Classify() = %v, want not found", outcome.Kind)
	}
}

func TestClientGetRecommendations(t *testing.T) {
	var requests []*http.Request
	client := newTestClient(t, &requests, nil)

	opts := core.BuildRecommendationOptions(
		[]core.CollectionEntry{{Type: core.SeedGenre, ID: "house"}},
		core.AudioFeatureRanges{"energy": {20, 80}},
		core.DefaultAudioFeatures,
	)
	tracks, err := client.GetRecommendations(context.Background(), opts)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "r1" || tracks[0].ArtistNames() != "Nine" {
		t.Errorf("Unexpected tracks %+v", tracks)
	}

	query := requests[0].URL.Query()
	if query.Get("seed_genres") != "house" || query.Get("min_energy") != "0.2" || query.Get("max_energy") != "0.8" {
		t.Errorf("Unexpected query %v", query)
	}
	if _, present := query["seed_artists"]; present {
		t.Error("Expected empty seed groups to be omitted")
	}

	_, err = client.GetRecommendations(context.Background(), core.RecommendationOptions{})
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "invalid request" {
		t.Errorf("Expected a 400 APIError, got %v", err)
	}
	if outcome := core.Classify(err); outcome.Kind != core.KindBadRequest {
		t.Errorf("Classify() = %v, want bad request", outcome.Kind)
	}
}

func TestClientGetRecommendationsSeedLimits(t *testing.T) {
	var requests []*http.Request
	client := newTestClient(t, &requests, nil)

	entries := []core.CollectionEntry{{Type: core.SeedArtist, ID: "ar1"}}
	for _, id := range []string{"t1", "t2", "t3", "t4", "t5"} {
		entries = append(entries, core.CollectionEntry{Type: core.SeedTrack, ID: id})
	}
	opts := core.BuildRecommendationOptions(entries, nil, core.DefaultAudioFeatures)

	if _, err := client.GetRecommendations(context.Background(), opts); err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("Expected six seeds to reach the API, got %d requests", len(requests))
	}
	query := requests[0].URL.Query()
	if query.Get("seed_artists") != "ar1" || query.Get("seed_tracks") != "t1,t2,t3,t4,t5" {
		t.Errorf("Unexpected seeds %v", query)
	}
	if query.Get("min_valence") != "0" || query.Get("max_valence") != "1" {
		t.Errorf("Expected default bounds, got %v", query)
	}
}

func TestTrackAttributes(t *testing.T) {
	opts := core.BuildRecommendationOptions(nil, nil, core.DefaultAudioFeatures)
	if _, ok := trackAttributes(opts.Bounds); !ok {
		t.Error("Expected every default feature bound to map onto track attributes")
	}
	if _, ok := trackAttributes(map[string]float64{"min_mood": 0.1}); ok {
		t.Error("Expected unknown bounds to be rejected")
	}
}

func TestClientGetAvailableGenreSeeds(t *testing.T) {
	var requests []*http.Request
	client := newTestClient(t, &requests, nil)

	genres, err := client.GetAvailableGenreSeeds(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(genres, ",") != "acoustic,house" {
		t.Errorf("Genres = %v", genres)
	}
}

func TestBatches(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		size  int
		sizes []int
	}{
		{"empty", 0, 50, nil},
		{"exact", 50, 50, []int{50}},
		{"overflow", 101, 50, []int{50, 50, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := batches(make([]string, tt.n), tt.size)
			if len(got) != len(tt.sizes) {
				t.Fatalf("Expected %d batches, got %d", len(tt.sizes), len(got))
			}
			for i, b := range got {
				if len(b) != tt.sizes[i] {
					t.Errorf("Batch %d has %d ids, want %d", i, len(b), tt.sizes[i])
				}
			}
		})
	}
}
