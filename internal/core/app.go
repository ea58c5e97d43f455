package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"featurescout/internal/i18n"
	"featurescout/pkg/cataloglink"
	"featurescout/pkg/fuzzy"
)

// HistoryNavigator is a Navigator with back/forward entries and a reload hook.
type HistoryNavigator interface {
	Navigator
	Back() bool
	Forward() bool
	SetReloadHandler(handler func(ctx context.Context) error)
}

// App wires the session, search orchestrator and seed collection into the user-facing operations.
type App struct {
	nav          HistoryNavigator
	session      *Session
	orchestrator *Orchestrator
	collection   *SeedCollection
	api          CatalogAPI
	cache        ContentStore
	errors       *ErrorHandler
	localizer    *i18n.Localizer
	metrics      Metrics
	logger       *zap.Logger

	reloadRequested atomic.Bool
	awaitingAuth    atomic.Bool

	mutex      sync.RWMutex
	genres     []string
	results    []Track
	nowPlaying string
}

type AppDeps struct {
	Navigator    HistoryNavigator
	Session      *Session
	Orchestrator *Orchestrator
	Collection   *SeedCollection
	API          CatalogAPI
	Cache        ContentStore
	Errors       *ErrorHandler
	Localizer    *i18n.Localizer
	Metrics      Metrics
}

func NewApp(deps AppDeps, logger *zap.Logger) *App {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	a := &App{
		nav:          deps.Navigator,
		session:      deps.Session,
		orchestrator: deps.Orchestrator,
		collection:   deps.Collection,
		api:          deps.API,
		cache:        deps.Cache,
		errors:       deps.Errors,
		localizer:    deps.Localizer,
		metrics:      metrics,
		logger:       logger,
	}
	a.nav.SetReloadHandler(a.scheduleReload)
	metrics.SetCollectionEntries(a.collection.Len())
	return a
}

func (a *App) scheduleReload(_ context.Context) error {
	a.reloadRequested.Store(true)
	return nil
}

// Boot runs the session bootstrap. When authorized it fetches genre seeds in the
// background and resolves the prefilled search.
func (a *App) Boot(ctx context.Context) error {
	res, err := a.session.Bootstrap(ctx)
	if err != nil {
		return err
	}
	if !res.Authorized {
		a.awaitingAuth.Store(true)
		return nil
	}
	a.awaitingAuth.Store(false)

	go a.refreshGenreSeeds(context.WithoutCancel(ctx))

	a.orchestrator.Resolve(ctx, res.Prefill)
	return a.reloadIfRequested(ctx)
}

// CompleteAuthorization treats landing as the address the authorization redirect returned to.
func (a *App) CompleteAuthorization(ctx context.Context, landing string) error {
	u, err := url.Parse(cataloglink.Normalize(landing))
	if err != nil || u.Host == "" {
		return fmt.Errorf("not an authorization landing address: %q", landing)
	}
	a.nav.Replace(u)
	return a.Boot(ctx)
}

func (a *App) reloadIfRequested(ctx context.Context) error {
	if !a.reloadRequested.CompareAndSwap(true, false) {
		return nil
	}
	a.logger.Info("Reloading session")
	return a.Boot(ctx)
}

// EnterURL records the link, share-tracking parameters removed, in history and resolves it.
func (a *App) EnterURL(ctx context.Context, raw string) error {
	link := cataloglink.Clean(raw)
	a.nav.Push(SearchLocation(a.nav.Location(), link))
	a.orchestrator.Resolve(ctx, link)
	return a.reloadIfRequested(ctx)
}

// Drop handles a text/uri-list payload.
func (a *App) Drop(ctx context.Context, payload string) error {
	link := cataloglink.FirstFromURIList(payload)
	if link == "" {
		return nil
	}
	return a.EnterURL(ctx, link)
}

// Back moves one history entry back and resolves its search. It reports whether history moved.
func (a *App) Back(ctx context.Context) (bool, error) {
	if !a.nav.Back() {
		return false, nil
	}
	return true, a.popState(ctx)
}

func (a *App) Forward(ctx context.Context) (bool, error) {
	if !a.nav.Forward() {
		return false, nil
	}
	return true, a.popState(ctx)
}

func (a *App) popState(ctx context.Context) error {
	a.orchestrator.Resolve(ctx, a.nav.Location().Query().Get(SearchParam))
	return a.reloadIfRequested(ctx)
}

// Recommend fetches recommendations for the current collection and shows them.
func (a *App) Recommend(ctx context.Context) error {
	opts := a.collection.RecommendationOptions()

	tracks, err := a.api.GetRecommendations(ctx, opts)
	if err != nil {
		handled := a.errors.Handle(ctx, fmt.Errorf("failed to get recommendations: %w", err))
		var searchErr *SearchError
		if errors.As(handled, &searchErr) {
			a.orchestrator.ShowError(searchErr.Reason)
		}
		if reloadErr := a.reloadIfRequested(ctx); reloadErr != nil {
			return reloadErr
		}
		return handled
	}

	a.mutex.Lock()
	a.results = tracks
	a.mutex.Unlock()

	a.logger.Info("Fetched recommendations",
		zap.Int("seeds", opts.SeedCount()),
		zap.Int("results", len(tracks)))

	a.orchestrator.ShowView(ViewSearchResults, ViewData{})
	return nil
}

func (a *App) refreshGenreSeeds(ctx context.Context) {
	genres, err := a.api.GetAvailableGenreSeeds(ctx)
	if err != nil {
		if handled := a.errors.Handle(ctx, fmt.Errorf("failed to get genre seeds: %w", err)); handled != nil {
			a.logger.Warn("Genre seeds unavailable", zap.Error(handled))
		}
		// no user action follows a background fetch, so reload here
		if reloadErr := a.reloadIfRequested(ctx); reloadErr != nil {
			a.logger.Error("Failed to reload session", zap.Error(reloadErr))
		}
		return
	}

	a.mutex.Lock()
	a.genres = genres
	a.mutex.Unlock()

	a.logger.Debug("Fetched genre seeds", zap.Int("count", len(genres)))
}

func (a *App) GenreSeeds() []string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	out := make([]string, len(a.genres))
	copy(out, a.genres)
	return out
}

// AddSeed adds a collection entry. Genres are checked against the fetched genre seeds when available
// and spelled the way the catalog publishes them.
func (a *App) AddSeed(ctx context.Context, entry CollectionEntry) (bool, error) {
	if entry.Type == SeedGenre {
		if genres := a.GenreSeeds(); len(genres) > 0 && !containsString(genres, entry.ID) {
			canonical, ok := fuzzy.Lookup(entry.ID, genres)
			if !ok {
				return false, a.unknownGenre(entry.ID, genres)
			}
			entry.ID = canonical
		}
	}

	added, err := a.collection.Add(ctx, entry)
	a.metrics.SetCollectionEntries(a.collection.Len())
	return added, err
}

func (a *App) unknownGenre(genre string, genres []string) error {
	reason := a.localizer.T("error.collection.unknown_genre", genre)
	if match, ok := fuzzy.Closest(genre, genres, fuzzy.DefaultThreshold); ok {
		reason = a.localizer.T("error.collection.unknown_genre_suggestion", genre, match.Value)
	}
	return &InputError{Reason: reason, Err: ErrInvalidSeed}
}

func (a *App) RemoveSeed(ctx context.Context, entry CollectionEntry) (bool, error) {
	removed, err := a.collection.Remove(ctx, entry)
	a.metrics.SetCollectionEntries(a.collection.Len())
	return removed, err
}

func (a *App) SetRange(ctx context.Context, featureID string, lower, upper int) error {
	return a.collection.SetRange(ctx, featureID, lower, upper)
}

func (a *App) Collection() []CollectionEntry {
	return a.collection.Entries()
}

func (a *App) Ranges() AudioFeatureRanges {
	return a.collection.Ranges()
}

func (a *App) SetNowPlaying(trackID string) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.nowPlaying = trackID
}

func (a *App) NowPlaying() string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.nowPlaying
}

// Results returns the last recommendations.
func (a *App) Results() []Track {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	out := make([]Track, len(a.results))
	copy(out, a.results)
	return out
}

func (a *App) Content(key ContentKey) (ContentItem, bool) {
	return a.cache.Get(key)
}

func (a *App) State() SearchState {
	return a.orchestrator.State()
}

// AwaitingAuthorization reports whether the last bootstrap redirected to authorization.
func (a *App) AwaitingAuthorization() bool {
	return a.awaitingAuth.Load()
}

func (a *App) Ready() bool {
	return a.session.Authorized()
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
