package feed

import "time"

// Page is the paginated, enriched feed response. It is produced fresh per
// request and never cached by the engine.
type Page struct {
	Items       []Item `json:"items"`
	CurrentPage int    `json:"currentPage"`
	PageSize    int    `json:"pageSize"`
	TotalPosts  int    `json:"totalPosts"`
	TotalPages  int    `json:"totalPages"`
	HasMore     bool   `json:"hasMore"`
}

// Item is a single enriched entry of a feed page.
type Item struct {
	PostID           string        `json:"postId"`
	CreatorID        string        `json:"creatorId"`
	CreatorName      string        `json:"creatorName"`
	CreatorAvatarURL *string       `json:"creatorAvatarUrl"`
	CreatedAt        time.Time     `json:"createdAt"`
	LikeCount        int           `json:"likeCount"`
	CommentCount     int           `json:"commentCount"`
	LikedByViewer    bool          `json:"likedByViewer"`
	JourneyTitle     string        `json:"journeyTitle"`
	PlacesVisited    []string      `json:"placesVisited"`
	Segments         []SegmentView `json:"segments"`
	Score            float64       `json:"score"`
}

// SegmentView is the response form of a journey place segment.
type SegmentView struct {
	Seq            int      `json:"seq"`
	Name           string   `json:"name"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Address        string   `json:"address"`
	Mood           string   `json:"mood"`
	Activities     []string `json:"activities"`
	ExperienceTags []string `json:"experienceTags"`
	ImageURLs      []string `json:"imageUrls"`
}
