package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"featurescout/internal/i18n"
)

var (
	// ErrInvalidSeed is returned for entries with an unknown type or empty id
	ErrInvalidSeed = errors.New("invalid collection entry")
	// ErrInvalidRange is returned for unknown features or bounds outside 0..100
	ErrInvalidRange = errors.New("invalid audio feature range")
)

// InputError is a rejected user edit with a localized reason.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string { return e.Reason }
func (e *InputError) Unwrap() error { return e.Err }

func collectionKey(appID string) string    { return appID + "_collection" }
func featureRangesKey(appID string) string { return appID + "_collection_audio_features" }

// SeedCollection holds the curated recommendation seeds and feature ranges.
// Every mutation is written through to the key-value store; a failed write leaves memory unchanged.
type SeedCollection struct {
	kv        KeyValueStore
	appID     string
	features  []FeatureDefinition
	localizer *i18n.Localizer
	logger    *zap.Logger

	mutex   sync.RWMutex
	entries []CollectionEntry
	ranges  AudioFeatureRanges
}

// LoadSeedCollection restores persisted entries and merges persisted ranges over the defaults.
func LoadSeedCollection(ctx context.Context, kv KeyValueStore, appID string, features []FeatureDefinition,
	localizer *i18n.Localizer, logger *zap.Logger) (*SeedCollection, error) {
	c := &SeedCollection{
		kv:        kv,
		appID:     appID,
		features:  features,
		localizer: localizer,
		logger:    logger,
		ranges:    DefaultRanges(features),
	}

	raw, ok, err := kv.Get(ctx, collectionKey(appID))
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if ok {
		var saved []CollectionEntry
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			logger.Warn("Ignoring unreadable saved collection", zap.Error(err))
		}
		for _, e := range saved {
			if validSeedType(e.Type) && e.ID != "" && !containsEntry(c.entries, e) {
				c.entries = append(c.entries, e)
			}
		}
	}

	raw, ok, err = kv.Get(ctx, featureRangesKey(appID))
	if err != nil {
		return nil, fmt.Errorf("failed to load audio feature ranges: %w", err)
	}
	if ok {
		var saved AudioFeatureRanges
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			logger.Warn("Ignoring unreadable saved audio feature ranges", zap.Error(err))
		}
		for id, r := range saved {
			if _, known := c.ranges[id]; !known || !validRange(r) {
				logger.Warn("Ignoring saved audio feature range",
					zap.String("feature", id), zap.Ints("range", r[:]))
				continue
			}
			c.ranges[id] = r
		}
	}

	logger.Debug("Loaded seed collection", zap.Int("entries", len(c.entries)))
	return c, nil
}

func validSeedType(t SeedType) bool {
	return t == SeedArtist || t == SeedTrack || t == SeedGenre
}

func validRange(r FeatureRange) bool {
	return r.Min() >= 0 && r.Min() <= r.Max() && r.Max() <= RangeScale
}

func containsEntry(entries []CollectionEntry, entry CollectionEntry) bool {
	for _, e := range entries {
		if e == entry {
			return true
		}
	}
	return false
}

// Add inserts entry unless it is already present. It reports whether the collection changed.
func (c *SeedCollection) Add(ctx context.Context, entry CollectionEntry) (bool, error) {
	if !validSeedType(entry.Type) || entry.ID == "" {
		return false, &InputError{
			Reason: c.localizer.T("error.collection.unknown_seed_type", string(entry.Type)),
			Err:    ErrInvalidSeed,
		}
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if containsEntry(c.entries, entry) {
		return false, nil
	}
	next := append(slices.Clone(c.entries), entry)
	if err := c.persistEntries(ctx, next); err != nil {
		return false, err
	}
	c.entries = next
	return true, nil
}

// Remove deletes entry; removing an absent entry is a no-op.
func (c *SeedCollection) Remove(ctx context.Context, entry CollectionEntry) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	i := slices.Index(c.entries, entry)
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(c.entries), i, i+1)
	if err := c.persistEntries(ctx, next); err != nil {
		return false, err
	}
	c.entries = next
	return true, nil
}

func (c *SeedCollection) Has(entry CollectionEntry) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return containsEntry(c.entries, entry)
}

// Entries returns a copy in insertion order.
func (c *SeedCollection) Entries() []CollectionEntry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make([]CollectionEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *SeedCollection) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// SetRange overwrites the range of a known feature.
func (c *SeedCollection) SetRange(ctx context.Context, featureID string, lower, upper int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, known := c.ranges[featureID]; !known {
		return &InputError{
			Reason: c.localizer.T("error.collection.unknown_feature", featureID),
			Err:    ErrInvalidRange,
		}
	}
	r := FeatureRange{lower, upper}
	if !validRange(r) {
		return &InputError{
			Reason: c.localizer.T("error.collection.invalid_range", lower, upper),
			Err:    ErrInvalidRange,
		}
	}

	previous := c.ranges[featureID]
	c.ranges[featureID] = r
	if err := c.persistRanges(ctx); err != nil {
		c.ranges[featureID] = previous
		return err
	}
	return nil
}

// Ranges returns a copy of the current ranges.
func (c *SeedCollection) Ranges() AudioFeatureRanges {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	out := make(AudioFeatureRanges, len(c.ranges))
	for id, r := range c.ranges {
		out[id] = r
	}
	return out
}

// RecommendationOptions builds the query for the current seeds and ranges.
func (c *SeedCollection) RecommendationOptions() RecommendationOptions {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return BuildRecommendationOptions(c.entries, c.ranges, c.features)
}

func (c *SeedCollection) persistEntries(ctx context.Context, entries []CollectionEntry) error {
	if entries == nil {
		entries = []CollectionEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := c.kv.Set(ctx, collectionKey(c.appID), string(data)); err != nil {
		return fmt.Errorf("failed to persist collection: %w", err)
	}
	return nil
}

func (c *SeedCollection) persistRanges(ctx context.Context) error {
	data, err := json.Marshal(c.ranges)
	if err != nil {
		return fmt.Errorf("failed to encode audio feature ranges: %w", err)
	}
	if err := c.kv.Set(ctx, featureRangesKey(c.appID), string(data)); err != nil {
		return fmt.Errorf("failed to persist audio feature ranges: %w", err)
	}
	return nil
}
