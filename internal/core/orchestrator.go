package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"featurescout/internal/i18n"
	"featurescout/pkg/cataloglink"
)

type route struct {
	kind ContentType
	view View
}

// dispatchTable maps the first path segment of a catalog link to its resolver and view.
var dispatchTable = map[string]route{
	"track":    {kind: ContentTrack, view: ViewTrackDetail},
	"album":    {kind: ContentAlbum, view: ViewAlbumDetail},
	"playlist": {kind: ContentPlaylist, view: ViewPlaylistDetail},
}

// redirectRule re-enters dispatchTable under another type when segment guardIndex equals guardValue.
type redirectRule struct {
	guardIndex int
	guardValue string
	target     string
	idIndex    int
}

// redirectRules are applied at most once; their targets must be dispatchTable keys.
var redirectRules = map[string]redirectRule{
	// user/{uid}/playlist/{pid}
	"user": {guardIndex: 2, guardValue: "playlist", target: "playlist", idIndex: 3},
}

func dispatch(link *cataloglink.Link) (route, string, bool) {
	contentType, id := link.Segment(0), link.Segment(1)

	if rule, ok := redirectRules[contentType]; ok {
		if link.Segment(rule.guardIndex) != rule.guardValue {
			return route{}, "", false
		}
		contentType, id = rule.target, link.Segment(rule.idIndex)
	}

	r, ok := dispatchTable[contentType]
	return r, id, ok
}

type resolution struct {
	kind   ContentType
	view   View
	data   ViewData
	notice string
}

// Orchestrator owns the search state machine. At most one search runs at a time.
type Orchestrator struct {
	host        string
	tracks      *TrackResolver
	collections *CollectionResolver
	errors      *ErrorHandler
	cache       ContentStore
	localizer   *i18n.Localizer
	metrics     Metrics
	logger      *zap.Logger

	mutex sync.RWMutex
	state SearchState
}

func NewOrchestrator(
	host string,
	tracks *TrackResolver,
	collections *CollectionResolver,
	errs *ErrorHandler,
	cache ContentStore,
	localizer *i18n.Localizer,
	metrics Metrics,
	logger *zap.Logger,
) *Orchestrator {
	if host == "" {
		host = DefaultCatalogHost
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Orchestrator{
		host:        host,
		tracks:      tracks,
		collections: collections,
		errors:      errs,
		cache:       cache,
		localizer:   localizer,
		metrics:     metrics,
		logger:      logger,
		state:       SearchState{Status: StatusIdle, View: ViewStart},
	}
}

// Resolve runs a search for rawURL. It returns false without doing anything when a search is already in flight.
func (o *Orchestrator) Resolve(ctx context.Context, rawURL string) bool {
	if !o.begin() {
		o.logger.Debug("Search already in flight, dropping", zap.String("url", rawURL))
		return false
	}

	start := time.Now()
	res, err := o.resolve(ctx, rawURL)

	outcome := "success"
	var searchErr *SearchError
	switch {
	case errors.As(err, &searchErr):
		outcome = "error"
		o.logger.Info("Search failed",
			zap.String("url", rawURL),
			zap.String("kind", searchErr.Kind.String()))
		o.fail(searchErr.Reason)
	case err != nil:
		o.logger.Error("Search failed silently", zap.String("url", rawURL), zap.Error(err))
		o.succeed(res)
	default:
		o.succeed(res)
	}

	kind := string(res.kind)
	if kind == "" {
		kind = "none"
	}
	o.metrics.RecordSearch(kind, outcome, time.Since(start))
	o.metrics.SetCachedItems(o.cache.Len())

	return true
}

func (o *Orchestrator) resolve(ctx context.Context, rawURL string) (resolution, error) {
	rawURL = cataloglink.Normalize(rawURL)
	if rawURL == "" {
		return resolution{view: ViewStart}, nil
	}

	link, err := cataloglink.Parse(rawURL, o.host)
	switch {
	case errors.Is(err, cataloglink.ErrUnsupportedHost):
		return resolution{}, o.errors.Local(KindUnsupportedHost, err)
	case err != nil:
		return resolution{}, o.errors.Local(KindMalformedInput, err)
	}

	r, id, ok := dispatch(link)
	if !ok {
		return resolution{}, o.errors.Local(KindUnsupportedContentType, nil)
	}
	if id == "" {
		return resolution{kind: r.kind}, o.errors.Local(KindBadRequest, nil)
	}

	res := resolution{kind: r.kind, view: r.view, data: ViewData{ID: id}}

	if r.kind == ContentTrack {
		return res, o.tracks.FetchTracks(ctx, []string{id})
	}

	fetched, err := o.collections.FetchCollection(ctx, r.kind, id)
	if fetched.Truncated {
		res.notice = o.localizer.T("warning.collection.truncated", r.kind, fetched.Total, fetched.Limit, fetched.Limit)
	}
	return res, err
}

func (o *Orchestrator) begin() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.state.Status == StatusSearching {
		return false
	}
	o.state.Status = StatusSearching
	o.state.ErrorMessage = ""
	o.state.Notice = ""
	return true
}

func (o *Orchestrator) succeed(res resolution) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.state = SearchState{
		Status:   StatusSuccess,
		View:     res.view,
		ViewData: res.data,
		Notice:   res.notice,
	}
}

func (o *Orchestrator) fail(reason string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.state.Status = StatusError
	o.state.ErrorMessage = reason
}

// ShowView switches the view outside of a search. It is ignored while a search is in flight.
func (o *Orchestrator) ShowView(view View, data ViewData) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.state.Status == StatusSearching {
		return
	}
	o.state = SearchState{Status: StatusSuccess, View: view, ViewData: data}
}

// ShowError puts a user-visible failure of a non-search operation into the Error state.
func (o *Orchestrator) ShowError(reason string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.state.Status == StatusSearching {
		return
	}
	o.state.Status = StatusError
	o.state.ErrorMessage = reason
}

func (o *Orchestrator) State() SearchState {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	s := o.state
	s.StatusName = s.Status.String()
	return s
}
