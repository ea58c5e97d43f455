// Package fuzzy matches free-form input against a fixed vocabulary such as genre seeds.
package fuzzy

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the minimum similarity for a suggestion.
const DefaultThreshold = 0.6

var separatorRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Normalize folds case and diacritics and joins words with a single hyphen,
// the form genre seeds are published in ("Hip Hop" -> "hip-hop").
func Normalize(text string) string {
	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}

	text = strings.ToLower(result.String())
	text = separatorRegex.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// Similarity is the longest common subsequence of the normalized inputs
// relative to the longer one, in [0, 1].
func Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1.0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	return float64(longestCommonSubsequence(ra, rb)) / float64(max(len(ra), len(rb)))
}

func longestCommonSubsequence(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Match is a candidate with its similarity to the query.
type Match struct {
	Value string
	Score float64
}

// Lookup returns the candidate equal to query after normalization.
func Lookup(query string, candidates []string) (string, bool) {
	target := Normalize(query)
	if target == "" {
		return "", false
	}
	for _, c := range candidates {
		if Normalize(c) == target {
			return c, true
		}
	}
	return "", false
}

// Suggest returns up to limit candidates scoring at least threshold, best first.
// Ties keep candidate order.
func Suggest(query string, candidates []string, threshold float64, limit int) []Match {
	var matches []Match
	for _, c := range candidates {
		if score := Similarity(query, c); score >= threshold {
			matches = append(matches, Match{Value: c, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Closest returns the best candidate scoring at least threshold.
func Closest(query string, candidates []string, threshold float64) (Match, bool) {
	matches := Suggest(query, candidates, threshold, 1)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}
