package domain

import "context"

// ProfileRepository defines read access to viewer and creator profiles.
type ProfileRepository interface {
	// GetViewerProfile retrieves the preference profile for a viewer. Returns
	// (nil, nil) if the viewer has no profile; absence is not an error.
	GetViewerProfile(ctx context.Context, viewerID string) (*ViewerProfile, error)

	// GetCreatorInfo retrieves display metadata for a creator. Returns
	// (nil, nil) if the creator is unknown.
	GetCreatorInfo(ctx context.Context, creatorID string) (*CreatorInfo, error)
}

// PostRepository defines read access to the candidate post corpus.
type PostRepository interface {
	// ListPostsWithContent retrieves the entire candidate corpus with journey
	// content and place segments preloaded, so ranking never issues per-post
	// lookups. The returned order is deterministic for an unchanged corpus.
	ListPostsWithContent(ctx context.Context) ([]Post, error)
}

// FollowRepository defines read access to the viewer's follow relationships.
type FollowRepository interface {
	// GetAcceptedFollowing returns the set of creator ids the viewer follows
	// with an accepted relationship state. An empty set is valid.
	GetAcceptedFollowing(ctx context.Context, viewerID string) (map[string]struct{}, error)
}

// LikeRepository defines read access to per-viewer like state.
type LikeRepository interface {
	// HasViewerLiked reports whether the viewer has liked the given post.
	// Unknown viewers or posts report false, never an error.
	HasViewerLiked(ctx context.Context, viewerID, postID string) (bool, error)
}
