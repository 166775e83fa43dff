package domain

import (
	"sort"
	"strings"
)

const (
	DefaultRelatedLimit = 6
	MaxRelatedLimit     = 24

	relevanceBase       = 10
	relevancePerTag     = 5
	relevanceHighRating = 3
	relevancePerKDl     = 2
	highRatingThreshold = 4.0
)

// ClampRelatedLimit applies the default and ceiling to a requested limit.
func ClampRelatedLimit(limit int) int {
	if limit <= 0 {
		return DefaultRelatedLimit
	}
	if limit > MaxRelatedLimit {
		return MaxRelatedLimit
	}
	return limit
}

// TagOverlap counts the distinct tags of candidate that also appear in
// source. Tags compare case-insensitively after trimming.
func TagOverlap(source, candidate []string) int {
	want := make(map[string]struct{}, len(source))
	for _, t := range source {
		if t = normalizeTag(t); t != "" {
			want[t] = struct{}{}
		}
	}
	seen := make(map[string]struct{}, len(candidate))
	n := 0
	for _, t := range candidate {
		t = normalizeTag(t)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := want[t]; ok {
			n++
		}
	}
	return n
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// RelevanceScore scores candidate against the source tags:
// 10 + 5 per shared tag + 3 if rated 4.0 or higher + 2 per thousand downloads.
func RelevanceScore(sourceTags []string, candidate *CatalogItem) int {
	score := relevanceBase + relevancePerTag*TagOverlap(sourceTags, candidate.Tags)
	if candidate.AverageRating >= highRatingThreshold {
		score += relevanceHighRating
	}
	if candidate.DownloadCount > 0 {
		score += relevancePerKDl * int(candidate.DownloadCount/1000)
	}
	return score
}

// ScoredItem pairs a catalog item with its relevance score.
type ScoredItem struct {
	Item  CatalogItem `json:"item"`
	Score int         `json:"score"`
}

// RankRelated scores candidates, drops the source item, sorts by score
// descending and keeps at most limit. Equal scores keep candidate order.
func RankRelated(source ContentRef, sourceTags []string, candidates []CatalogItem, limit int) []ScoredItem {
	ranked := make([]ScoredItem, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ID == source.ContentID && c.ContentType == source.ContentType {
			continue
		}
		ranked = append(ranked, ScoredItem{Item: *c, Score: RelevanceScore(sourceTags, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
