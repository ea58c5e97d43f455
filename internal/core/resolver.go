package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errAllInvalidIDs = errors.New("catalog returned no track for any requested id")

// TrackResolver fetches tracks and their audio features in bulk, skipping cached ids.
type TrackResolver struct {
	api    CatalogAPI
	cache  ContentStore
	errors *ErrorHandler
	logger *zap.Logger
}

func NewTrackResolver(api CatalogAPI, cache ContentStore, errs *ErrorHandler, logger *zap.Logger) *TrackResolver {
	return &TrackResolver{
		api:    api,
		cache:  cache,
		errors: errs,
		logger: logger,
	}
}

// FetchTracks returns a *SearchError for user-visible failures and nil for silent ones.
func (r *TrackResolver) FetchTracks(ctx context.Context, ids []string) error {
	missing := r.missing(ids)
	if len(missing) == 0 {
		return nil
	}

	var (
		tracks   []*Track
		features []*AudioFeatures
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tracks, err = r.api.GetTracks(gCtx, missing)
		if err != nil {
			return fmt.Errorf("failed to get tracks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		features, err = r.api.GetAudioFeaturesForTracks(gCtx, missing)
		if err != nil {
			return fmt.Errorf("failed to get audio features: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return r.errors.Handle(ctx, err)
	}

	found := 0
	for _, track := range tracks {
		if track != nil {
			found++
		}
	}
	if found == 0 {
		r.logger.Debug("All requested track ids are invalid", zap.Strings("ids", missing))
		return r.errors.Local(KindAllInvalidIDs, errAllInvalidIDs)
	}

	byID := make(map[string]*AudioFeatures, len(features))
	for _, f := range features {
		if f != nil {
			byID[f.TrackID] = f
		}
	}

	items := make([]ContentItem, 0, found)
	for _, track := range tracks {
		if track == nil {
			continue
		}
		items = append(items, ContentItem{
			ID:            track.ID,
			Type:          ContentTrack,
			Payload:       track,
			AudioFeatures: byID[track.ID],
		})
	}
	r.cache.Put(items...)

	r.logger.Debug("Fetched tracks",
		zap.Int("requested", len(ids)),
		zap.Int("fetched", len(items)))

	return nil
}

// missing keeps the first occurrence of every uncached, non-empty id.
func (r *TrackResolver) missing(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !r.cache.Has(ContentKey{Type: ContentTrack, ID: id}) {
			out = append(out, id)
		}
	}
	return out
}

// CollectionResolver fetches an album or playlist and the first page of its tracks.
type CollectionResolver struct {
	api    CatalogAPI
	cache  ContentStore
	tracks *TrackResolver
	errors *ErrorHandler
	limit  int
	logger *zap.Logger
}

func NewCollectionResolver(api CatalogAPI, cache ContentStore, tracks *TrackResolver, errs *ErrorHandler,
	limit int, logger *zap.Logger) *CollectionResolver {
	if limit <= 0 {
		limit = DefaultTracksLimit
	}
	return &CollectionResolver{
		api:    api,
		cache:  cache,
		tracks: tracks,
		errors: errs,
		limit:  limit,
		logger: logger,
	}
}

// FetchCollection reports truncation through the result; it is never an error.
func (r *CollectionResolver) FetchCollection(ctx context.Context, kind ContentType, id string) (FetchResult, error) {
	if r.cache.Has(ContentKey{Type: kind, ID: id}) {
		return FetchResult{}, nil
	}

	var (
		collection *Collection
		err        error
	)
	switch kind {
	case ContentAlbum:
		collection, err = r.api.GetAlbum(ctx, id)
	case ContentPlaylist:
		collection, err = r.api.GetPlaylist(ctx, id)
	default:
		return FetchResult{}, fmt.Errorf("unsupported collection kind %q", kind)
	}
	if err != nil {
		return FetchResult{}, r.errors.Handle(ctx, fmt.Errorf("failed to get %s: %w", kind, err))
	}

	result := FetchResult{Total: collection.Total, Limit: r.limit}
	trackIDs := collection.TrackIDs
	if collection.Total > r.limit || len(trackIDs) > r.limit {
		result.Truncated = true
		r.logger.Warn("Collection exceeds per-request track limit",
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.Int("total", collection.Total),
			zap.Int("limit", r.limit))
	}
	if len(trackIDs) > r.limit {
		trackIDs = trackIDs[:r.limit]
	}
	collection.TrackIDs = trackIDs

	r.cache.Put(ContentItem{ID: id, Type: kind, Payload: collection})

	if err := r.tracks.FetchTracks(ctx, trackIDs); err != nil {
		return result, err
	}
	return result, nil
}
