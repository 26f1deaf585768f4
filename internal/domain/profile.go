package domain

// ViewerProfile holds the stated content preferences of the user a feed is
// being built for. Profiles are optional; a viewer without one receives an
// unpersonalized feed rather than an error.
type ViewerProfile struct {
	// ViewerID identifies the profile owner.
	ViewerID string

	// FavoriteActivities are free-text activity tags the viewer likes.
	FavoriteActivities []string

	// PreferredMoods are free-text mood tags the viewer likes.
	PreferredMoods []string
}

// EmptyViewerProfile returns a profile with no preferences for the given
// viewer. Used in place of an absent profile so every viewer gets a feed.
func EmptyViewerProfile(viewerID string) *ViewerProfile {
	return &ViewerProfile{ViewerID: viewerID}
}

// CreatorInfo is the display metadata attached to feed items for a post's
// creator.
type CreatorInfo struct {
	// CreatorID identifies the creator.
	CreatorID string

	// DisplayName is the creator's public name.
	DisplayName string

	// AvatarURL points at the creator's avatar image. Nil if none is set.
	AvatarURL *string
}
