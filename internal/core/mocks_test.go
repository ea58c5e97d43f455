package core

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"featurescout/internal/i18n"
)

// Mock implementations for testing

type mockCatalog struct {
	mutex sync.Mutex

	tracks      map[string]*Track
	features    map[string]*AudioFeatures
	albums      map[string]*Collection
	playlists   map[string]*Collection
	genres      []string
	recommended []Track

	tracksErr    error
	featuresErr  error
	collectErr   error
	recommendErr error
	genresErr    error

	trackCalls      [][]string
	featureCalls    [][]string
	collectionCalls []string
	recommendCalls  []RecommendationOptions
	token           string
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		tracks:    make(map[string]*Track),
		features:  make(map[string]*AudioFeatures),
		albums:    make(map[string]*Collection),
		playlists: make(map[string]*Collection),
	}
}

func (m *mockCatalog) addTrack(id, title string) {
	m.tracks[id] = &Track{ID: id, Title: title, Artists: []Artist{{ID: "a-" + id, Name: "Artist " + id}}}
	m.features[id] = &AudioFeatures{TrackID: id, Energy: 0.5, Valence: 0.25}
}

func (m *mockCatalog) GetTracks(_ context.Context, ids []string) ([]*Track, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.trackCalls = append(m.trackCalls, append([]string(nil), ids...))
	if m.tracksErr != nil {
		return nil, m.tracksErr
	}
	out := make([]*Track, len(ids))
	for i, id := range ids {
		out[i] = m.tracks[id]
	}
	return out, nil
}

func (m *mockCatalog) GetAudioFeaturesForTracks(_ context.Context, ids []string) ([]*AudioFeatures, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.featureCalls = append(m.featureCalls, append([]string(nil), ids...))
	if m.featuresErr != nil {
		return nil, m.featuresErr
	}
	out := make([]*AudioFeatures, len(ids))
	for i, id := range ids {
		out[i] = m.features[id]
	}
	return out, nil
}

func (m *mockCatalog) GetPlaylist(_ context.Context, id string) (*Collection, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.collectionCalls = append(m.collectionCalls, "playlist:"+id)
	if m.collectErr != nil {
		return nil, m.collectErr
	}
	if p, ok := m.playlists[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, &APIError{Status: 404, Message: "Not found."}
}

func (m *mockCatalog) GetAlbum(_ context.Context, id string) (*Collection, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.collectionCalls = append(m.collectionCalls, "album:"+id)
	if m.collectErr != nil {
		return nil, m.collectErr
	}
	if a, ok := m.albums[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, &APIError{Status: 404, Message: "Not found."}
}

func (m *mockCatalog) GetRecommendations(_ context.Context, opts RecommendationOptions) ([]Track, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.recommendCalls = append(m.recommendCalls, opts)
	if m.recommendErr != nil {
		return nil, m.recommendErr
	}
	return m.recommended, nil
}

func (m *mockCatalog) GetAvailableGenreSeeds(_ context.Context) ([]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.genresErr != nil {
		return nil, m.genresErr
	}
	return m.genres, nil
}

func (m *mockCatalog) SetAccessToken(token string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.token = token
}

func (m *mockCatalog) accessToken() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.token
}

func (m *mockCatalog) apiCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.trackCalls) + len(m.featureCalls) + len(m.collectionCalls) + len(m.recommendCalls)
}

type mockStore struct {
	mutex sync.Mutex
	items map[ContentKey]ContentItem
}

func newMockStore() *mockStore {
	return &mockStore{items: make(map[ContentKey]ContentItem)}
}

func (m *mockStore) Has(key ContentKey) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.items[key]
	return ok
}

func (m *mockStore) Get(key ContentKey) (ContentItem, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	item, ok := m.items[key]
	return item, ok
}

func (m *mockStore) Put(items ...ContentItem) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, item := range items {
		if _, exists := m.items[item.Key()]; !exists {
			m.items[item.Key()] = item
		}
	}
}

func (m *mockStore) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.items)
}

type mockKV struct {
	mutex  sync.Mutex
	values map[string]string
	setErr error
}

func newMockKV() *mockKV {
	return &mockKV{values: make(map[string]string)}
}

func (m *mockKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mockKV) Set(_ context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockKV) Delete(_ context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.values, key)
	return nil
}

type mockNavigator struct {
	mutex     sync.Mutex
	entries   []*url.URL
	index     int
	redirects []string
	reloads   int
	onReload  func(ctx context.Context) error
}

func newMockNavigator(raw string) *mockNavigator {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return &mockNavigator{entries: []*url.URL{u}}
}

func (m *mockNavigator) Location() *url.URL {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	u := *m.entries[m.index]
	return &u
}

func (m *mockNavigator) Push(u *url.URL) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = append(m.entries[:m.index+1], u)
	m.index++
}

func (m *mockNavigator) Replace(u *url.URL) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries[m.index] = u
}

func (m *mockNavigator) Redirect(_ context.Context, target string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.redirects = append(m.redirects, target)
	return nil
}

func (m *mockNavigator) Reload(ctx context.Context) error {
	m.mutex.Lock()
	m.reloads++
	handler := m.onReload
	m.mutex.Unlock()

	if handler != nil {
		return handler(ctx)
	}
	return nil
}

func (m *mockNavigator) Back() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.index == 0 {
		return false
	}
	m.index--
	return true
}

func (m *mockNavigator) Forward() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.index >= len(m.entries)-1 {
		return false
	}
	m.index++
	return true
}

func (m *mockNavigator) SetReloadHandler(handler func(ctx context.Context) error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onReload = handler
}

type mockAuth struct {
	url string
}

func (m mockAuth) AuthorizationURL() string {
	return m.url
}

type mockMetrics struct {
	mutex    sync.Mutex
	searches []string
	errors   []string
	cached   int
	entries  int
}

func (m *mockMetrics) RecordSearch(contentType, outcome string, _ time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.searches = append(m.searches, contentType+"/"+outcome)
}

func (m *mockMetrics) RecordError(kind string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *mockMetrics) SetCachedItems(n int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cached = n
}

func (m *mockMetrics) SetCollectionEntries(n int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = n
}

type mockReauthorizer struct {
	calls int
}

func (m *mockReauthorizer) Invalidate(_ context.Context) error {
	m.calls++
	return nil
}

// testHarness wires the search components against mocks.
type testHarness struct {
	catalog      *mockCatalog
	store        *mockStore
	kv           *mockKV
	nav          *mockNavigator
	metrics      *mockMetrics
	localizer    *i18n.Localizer
	errors       *ErrorHandler
	session      *Session
	tracks       *TrackResolver
	collections  *CollectionResolver
	orchestrator *Orchestrator
}

const testAuthURL = "https://accounts.spotify.com/authorize?client_id=test"

func newTestHarness(limit int) *testHarness {
	logger := zap.NewNop()
	h := &testHarness{
		catalog:   newMockCatalog(),
		store:     newMockStore(),
		kv:        newMockKV(),
		nav:       newMockNavigator("http://127.0.0.1:8080/"),
		metrics:   &mockMetrics{},
		localizer: i18n.NewLocalizer(i18n.DefaultLanguage),
	}
	h.errors = NewErrorHandler(h.localizer, nil, h.metrics, logger)
	h.session = NewSession(DefaultAppID, h.kv, h.nav, h.catalog, mockAuth{url: testAuthURL}, logger)
	h.errors.SetReauthorizer(h.session)
	h.tracks = NewTrackResolver(h.catalog, h.store, h.errors, logger)
	h.collections = NewCollectionResolver(h.catalog, h.store, h.tracks, h.errors, limit, logger)
	h.orchestrator = NewOrchestrator(DefaultCatalogHost, h.tracks, h.collections, h.errors, h.store,
		h.localizer, h.metrics, logger)
	return h
}
