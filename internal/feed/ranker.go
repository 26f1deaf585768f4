package feed

import (
	"cmp"
	"slices"
	"time"

	"github.com/waypost/waypost/internal/domain"
)

// ViewerContext bundles the viewer-side ranking inputs: preference profile
// and accepted follow set. The ranker never mutates either.
type ViewerContext struct {
	Profile   *domain.ViewerProfile
	Following map[string]struct{}
}

// RankedPost pairs a candidate post with its computed total score. It exists
// only within a single ranking pass and is never persisted.
type RankedPost struct {
	Post  *domain.Post
	Score float64
}

// Ranker computes per-post scores and total orderings. It is purely
// functional: no I/O, no mutation, deterministic for fixed inputs including
// the evaluation time.
type Ranker struct {
	cfg ScoringConfig
}

// NewRanker creates a Ranker with the given signal weights.
func NewRanker(cfg ScoringConfig) *Ranker {
	return &Ranker{cfg: cfg}
}

// Score computes the total score of a single post for a viewer at the given
// evaluation time: the sum of follower-boost, recency-decay, engagement,
// activity-match and mood-match contributions.
func (r *Ranker) Score(post *domain.Post, vc ViewerContext, now time.Time) float64 {
	viewerActivities, viewerMoods := viewerTagSets(vc.Profile)
	return r.score(post, vc.Following, viewerActivities, viewerMoods, now)
}

// Rank scores every candidate and returns them ordered by descending score.
// The sort is stable: posts with equal scores keep their corpus order, so
// pagination is deterministic across repeated requests against an unchanged
// corpus.
func (r *Ranker) Rank(posts []domain.Post, vc ViewerContext, now time.Time) []RankedPost {
	viewerActivities, viewerMoods := viewerTagSets(vc.Profile)

	ranked := make([]RankedPost, len(posts))
	for i := range posts {
		ranked[i] = RankedPost{
			Post:  &posts[i],
			Score: r.score(&posts[i], vc.Following, viewerActivities, viewerMoods, now),
		}
	}

	slices.SortStableFunc(ranked, func(a, b RankedPost) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

func (r *Ranker) score(post *domain.Post, following map[string]struct{}, viewerActivities, viewerMoods tagSet, now time.Time) float64 {
	return r.cfg.followerBoostScore(post.CreatorID, following) +
		r.cfg.recencyScore(post.CreatedAt, now) +
		r.cfg.engagementScore(post.LikeCount, post.CommentCount) +
		r.cfg.matchScore(r.cfg.ActivityWeight, viewerActivities, activityTags(post)) +
		r.cfg.matchScore(r.cfg.MoodWeight, viewerMoods, moodTags(post))
}

// viewerTagSets normalizes the viewer's preference lists once per ranking
// pass. A nil profile yields empty sets.
func viewerTagSets(profile *domain.ViewerProfile) (activities, moods tagSet) {
	if profile == nil {
		return tagSet{}, tagSet{}
	}
	return newTagSet(profile.FavoriteActivities), newTagSet(profile.PreferredMoods)
}
