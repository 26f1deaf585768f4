package domain

import "time"

// Post represents a published trip post as seen by the feed engine. The
// engine only reads posts; creation and counter maintenance belong to the
// post service.
type Post struct {
	// ID is the unique identifier of the post.
	ID string

	// CreatorID identifies the user who published the post.
	CreatorID string

	// CreatedAt is when the post was published. Immutable once assigned.
	CreatedAt time.Time

	// LikeCount is the precomputed number of likes. Never negative.
	LikeCount int

	// CommentCount is the precomputed number of comments. Never negative.
	CommentCount int

	// Content holds the journey details. A nil Content is valid and means the
	// post carries no matchable tags.
	Content *PostContent
}

// PostContent holds the journey details attached to a post.
type PostContent struct {
	// JourneyTitle is the title of the trip.
	JourneyTitle string

	// PlacesVisited lists free-text place names mentioned in the journey.
	PlacesVisited []string

	// Segments are the per-place entries of the journey, ordered by Seq.
	Segments []PlaceSegment
}

// PlaceSegment is a single stop of a journey. Mood and Activities are the
// free-text tags used for preference matching.
type PlaceSegment struct {
	// Seq orders segments within their journey.
	Seq int

	// Name is the display name of the place.
	Name string

	// Latitude and Longitude locate the place.
	Latitude  float64
	Longitude float64

	// Address is the free-text address of the place.
	Address string

	// Mood is a free-text mood tag for this stop. May be empty.
	Mood string

	// Activities are free-text activity tags for this stop.
	Activities []string

	// ExperienceTags are additional descriptive tags shown to readers.
	ExperienceTags []string

	// ImageURLs are photo URLs attached to this stop.
	ImageURLs []string
}
