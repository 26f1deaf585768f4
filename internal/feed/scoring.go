package feed

import (
	"math"
	"time"
)

// ScoringConfig holds the tunable weights and constants of the five ranking
// signals. The magnitudes are tuning parameters; the relative roles are what
// matter. FollowerBoost is tuned to roughly the maximum plausible total of
// the other four signals for an average post, so followed-creator content
// reliably outranks unfollowed content without drowning the other signals.
type ScoringConfig struct {
	// FollowerBoost is the fixed bonus for posts from followed creators.
	FollowerBoost float64 `koanf:"follower_boost" validate:"gt=0"`

	// RecencyWeight scales the recency-decay contribution.
	RecencyWeight float64 `koanf:"recency_weight" validate:"gt=0"`

	// RecencyHalfLifeDays controls how fast the recency score decays.
	RecencyHalfLifeDays float64 `koanf:"recency_half_life_days" validate:"gt=0"`

	// RecencyScale multiplies the decayed recency value.
	RecencyScale float64 `koanf:"recency_scale" validate:"gt=0"`

	// EngagementWeight scales the log-compressed engagement contribution.
	EngagementWeight float64 `koanf:"engagement_weight" validate:"gt=0"`

	// LikeUnitScore is the raw engagement value of one like.
	LikeUnitScore float64 `koanf:"like_unit_score" validate:"gt=0"`

	// CommentUnitScore is the raw engagement value of one comment. Comments
	// cost more effort than likes and are weighted higher.
	CommentUnitScore float64 `koanf:"comment_unit_score" validate:"gt=0"`

	// ActivityWeight scales the activity-preference match contribution.
	ActivityWeight float64 `koanf:"activity_weight" validate:"gt=0"`

	// MoodWeight scales the mood-preference match contribution.
	MoodWeight float64 `koanf:"mood_weight" validate:"gt=0"`

	// MatchScale multiplies the raw match ratio of both preference scorers.
	MatchScale float64 `koanf:"match_scale" validate:"gt=0"`
}

// DefaultScoringConfig returns the default signal weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		FollowerBoost:       500,
		RecencyWeight:       100,
		RecencyHalfLifeDays: 7,
		RecencyScale:        1.0,
		EngagementWeight:    10,
		LikeUnitScore:       1,
		CommentUnitScore:    3,
		ActivityWeight:      80,
		MoodWeight:          60,
		MatchScale:          1.0,
	}
}

const hoursPerDay = 24

// followerBoostScore returns the fixed boost when the creator is in the
// viewer's accepted follow set, else zero. A step function, not proportional.
func (c ScoringConfig) followerBoostScore(creatorID string, following map[string]struct{}) float64 {
	if _, ok := following[creatorID]; ok {
		return c.FollowerBoost
	}
	return 0
}

// recencyScore returns an exponentially decaying score based on post age at
// the injected evaluation time. Negative age (clock skew) is treated as a
// just-created post.
func (c ScoringConfig) recencyScore(createdAt, now time.Time) float64 {
	ageDays := now.Sub(createdAt).Hours() / hoursPerDay
	if ageDays < 0 {
		ageDays = 0
	}
	decay := math.Exp(-ageDays / c.RecencyHalfLifeDays)
	return c.RecencyWeight * decay * c.RecencyScale
}

// engagementScore combines like and comment counts into a log-compressed
// score, bounding the influence of virally engaged outliers. Absent counters
// load as zero upstream; negative values are treated as zero.
func (c ScoringConfig) engagementScore(likes, comments int) float64 {
	if likes < 0 {
		likes = 0
	}
	if comments < 0 {
		comments = 0
	}
	raw := float64(likes)*c.LikeUnitScore + float64(comments)*c.CommentUnitScore
	if raw == 0 {
		return 0
	}
	return c.EngagementWeight * math.Log1p(raw)
}

// matchScore returns weight scaled by the fraction of the viewer's tags that
// appear in the post's tags. The denominator is deliberately the viewer's
// set size, not a symmetric Jaccard measure: matching all of a viewer's few
// preferences scores as well as matching all of many. Either set empty means
// exactly zero.
func (c ScoringConfig) matchScore(weight float64, viewerTags, postTags tagSet) float64 {
	if len(viewerTags) == 0 || len(postTags) == 0 {
		return 0
	}
	ratio := float64(viewerTags.intersectionSize(postTags)) / float64(len(viewerTags))
	return weight * ratio * c.MatchScale
}
