package feed

import (
	"strings"

	"github.com/samber/lo"

	"github.com/waypost/waypost/internal/domain"
)

// tagSet is a case-insensitive set of free-text tags. Members are stored
// lowercased and trimmed; duplicates collapse.
type tagSet map[string]struct{}

// newTagSet normalizes a list of free-text tags into a set. Empty and
// whitespace-only tags are dropped.
func newTagSet(tags []string) tagSet {
	set := make(tagSet, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// intersectionSize counts the members of other also present in s.
func (s tagSet) intersectionSize(other tagSet) int {
	// Iterate the smaller set.
	if len(other) < len(s) {
		s, other = other, s
	}
	n := 0
	for t := range s {
		if _, ok := other[t]; ok {
			n++
		}
	}
	return n
}

// activityTags extracts the union of activity tags across a post's place
// segments. A post without content or segments yields an empty set.
func activityTags(p *domain.Post) tagSet {
	if p.Content == nil {
		return tagSet{}
	}
	return newTagSet(lo.FlatMap(p.Content.Segments, func(seg domain.PlaceSegment, _ int) []string {
		return seg.Activities
	}))
}

// moodTags extracts the union of non-empty mood tags across a post's place
// segments. A post without content or segments yields an empty set.
func moodTags(p *domain.Post) tagSet {
	if p.Content == nil {
		return tagSet{}
	}
	return newTagSet(lo.Map(p.Content.Segments, func(seg domain.PlaceSegment, _ int) string {
		return seg.Mood
	}))
}
