package core

import (
	"net/url"
	"strconv"
	"strings"
)

// RangeScale is the upper bound of a stored feature range; the API expects 0..1.
const RangeScale = 100

// DefaultAudioFeatures are the features shown and filtered on, in display order.
var DefaultAudioFeatures = []FeatureDefinition{
	{ID: "acousticness", Name: "feature.acousticness",
		Description: "Confidence the track is acoustic"},
	{ID: "danceability", Name: "feature.danceability",
		Description: "How suitable the track is for dancing"},
	{ID: "energy", Name: "feature.energy",
		Description: "Perceptual intensity and activity"},
	{ID: "instrumentalness", Name: "feature.instrumentalness",
		Description: "Likelihood the track contains no vocals"},
	{ID: "liveness", Name: "feature.liveness",
		Description: "Presence of an audience in the recording"},
	{ID: "speechiness", Name: "feature.speechiness",
		Description: "Presence of spoken words"},
	{ID: "valence", Name: "feature.valence",
		Description: "Musical positiveness conveyed by the track"},
}

// DefaultRanges returns the full [0,100] range for every feature.
func DefaultRanges(features []FeatureDefinition) AudioFeatureRanges {
	ranges := make(AudioFeatureRanges, len(features))
	for _, f := range features {
		ranges[f.ID] = FeatureRange{0, RangeScale}
	}
	return ranges
}

// BuildRecommendationOptions groups seeds by type, omitting empty groups, and emits
// min_/max_ bounds for every feature whether or not its range was changed.
func BuildRecommendationOptions(entries []CollectionEntry, ranges AudioFeatureRanges,
	features []FeatureDefinition) RecommendationOptions {
	var opts RecommendationOptions

	for _, e := range entries {
		switch e.Type {
		case SeedArtist:
			opts.SeedArtists = append(opts.SeedArtists, e.ID)
		case SeedTrack:
			opts.SeedTracks = append(opts.SeedTracks, e.ID)
		case SeedGenre:
			opts.SeedGenres = append(opts.SeedGenres, e.ID)
		}
	}

	opts.Bounds = make(map[string]float64, 2*len(features))
	for _, f := range features {
		r, ok := ranges[f.ID]
		if !ok {
			r = FeatureRange{0, RangeScale}
		}
		opts.Bounds["min_"+f.ID] = float64(r.Min()) / RangeScale
		opts.Bounds["max_"+f.ID] = float64(r.Max()) / RangeScale
	}

	return opts
}

// Values renders the options as the recommendations query string parameters.
func (o RecommendationOptions) Values() url.Values {
	v := url.Values{}
	if len(o.SeedArtists) > 0 {
		v.Set("seed_artists", strings.Join(o.SeedArtists, ","))
	}
	if len(o.SeedTracks) > 0 {
		v.Set("seed_tracks", strings.Join(o.SeedTracks, ","))
	}
	if len(o.SeedGenres) > 0 {
		v.Set("seed_genres", strings.Join(o.SeedGenres, ","))
	}

	for k, bound := range o.Bounds {
		v.Set(k, strconv.FormatFloat(bound, 'f', -1, 64))
	}
	return v
}

// SeedCount is the number of seeds across all groups.
func (o RecommendationOptions) SeedCount() int {
	return len(o.SeedArtists) + len(o.SeedTracks) + len(o.SeedGenres)
}
