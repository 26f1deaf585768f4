package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/waypost/waypost/internal/domain"
)

// Event types published by the platform CRUD services.
const (
	TypePostCreated    = "post.created"
	TypePostUpdated    = "post.updated"
	TypePostDeleted    = "post.deleted"
	TypeLikeCreated    = "like.created"
	TypeLikeDeleted    = "like.deleted"
	TypeCommentCreated = "comment.created"
	TypeCommentDeleted = "comment.deleted"
	TypeFollowUpdated  = "follow.updated"
	TypeProfileUpdated = "profile.updated"
	TypeCreatorUpdated = "creator.updated"
)

// platformEvent is the raw JSON envelope on the platform event stream. Seq is
// the monotonically increasing stream cursor.
type platformEvent struct {
	Seq     int64           `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// postPayload carries a full post snapshot for post.created/updated events.
type postPayload struct {
	PostID       string          `json:"postId"`
	CreatorID    string          `json:"creatorId"`
	CreatedAt    time.Time       `json:"createdAt"`
	LikeCount    int             `json:"likeCount"`
	CommentCount int             `json:"commentCount"`
	Content      *contentPayload `json:"content,omitempty"`
}

type contentPayload struct {
	JourneyTitle  string           `json:"journeyTitle"`
	PlacesVisited []string         `json:"placesVisited"`
	Segments      []segmentPayload `json:"segments"`
}

type segmentPayload struct {
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

// likePayload identifies a like or comment event's subject.
type likePayload struct {
	ViewerID string `json:"viewerId"`
	PostID   string `json:"postId"`
}

// followPayload carries the relationship state after a follow change.
type followPayload struct {
	ViewerID  string `json:"viewerId"`
	CreatorID string `json:"creatorId"`
	State     string `json:"state"`
	Removed   bool   `json:"removed,omitempty"`
}

// profilePayload carries a viewer's preference profile snapshot.
type profilePayload struct {
	ViewerID           string   `json:"viewerId"`
	FavoriteActivities []string `json:"favoriteActivities"`
	PreferredMoods     []string `json:"preferredMoods"`
}

// creatorPayload carries creator display metadata.
type creatorPayload struct {
	CreatorID   string  `json:"creatorId"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

func parseEvent(data []byte) (*platformEvent, error) {
	var event platformEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event missing type")
	}
	return &event, nil
}

func (e *platformEvent) decodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s event missing payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

func (p *postPayload) toDomain() *domain.Post {
	post := &domain.Post{
		ID:           p.PostID,
		CreatorID:    p.CreatorID,
		CreatedAt:    p.CreatedAt.UTC(),
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
	}
	if p.Content == nil {
		return post
	}

	content := &domain.PostContent{
		JourneyTitle:  p.Content.JourneyTitle,
		PlacesVisited: p.Content.PlacesVisited,
		Segments:      make([]domain.PlaceSegment, len(p.Content.Segments)),
	}
	for i, seg := range p.Content.Segments {
		content.Segments[i] = domain.PlaceSegment{
			Seq:            seg.Seq,
			Name:           seg.Name,
			Latitude:       seg.Latitude,
			Longitude:      seg.Longitude,
			Address:        seg.Address,
			Mood:           seg.Mood,
			Activities:     seg.Activities,
			ExperienceTags: seg.ExperienceTags,
			ImageURLs:      seg.ImageURLs,
		}
	}
	post.Content = content
	return post
}
