package events

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/waypost/waypost/internal/domain"
	"github.com/waypost/waypost/internal/metrics"
)

const (
	cursorServiceName  = "platform-events"
	cursorSaveInterval = 5 * time.Second
	reconnectDelay     = 5 * time.Second
	statsLogInterval   = 30 * time.Second
)

// Store is the write side the subscriber projects platform events onto.
type Store interface {
	UpsertPost(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, postID string) error
	SetLike(ctx context.Context, viewerID, postID string) error
	RemoveLike(ctx context.Context, viewerID, postID string) error
	AdjustCommentCount(ctx context.Context, postID string, delta int) error
	SetFollowState(ctx context.Context, viewerID, creatorID, state string) error
	RemoveFollow(ctx context.Context, viewerID, creatorID string) error
	UpsertViewerProfile(ctx context.Context, profile *domain.ViewerProfile) error
	UpsertCreator(ctx context.Context, info *domain.CreatorInfo) error

	GetCursor(ctx context.Context, service string) (int64, error)
	UpdateCursor(ctx context.Context, service string, cursor int64) error
}

// Subscriber connects to the platform event stream and keeps the local read
// store in sync with the CRUD services that own the entities.
type Subscriber struct {
	url    string
	store  Store
	logger *slog.Logger
}

// NewSubscriber creates a new event-stream subscriber.
func NewSubscriber(streamURL string, store Store, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		url:    streamURL,
		store:  store,
		logger: logger,
	}
}

// Start connects to the event stream and processes events until the context
// is cancelled. It automatically reconnects on transient errors, resuming
// from the last persisted cursor.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := s.subscribe(ctx); err != nil {
				s.logger.Error("event stream connection error, reconnecting", "error", err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(reconnectDelay):
				}
			}
		}
	}
}

func (s *Subscriber) buildURL(cursor int64) string {
	u, _ := url.Parse(s.url)
	q := u.Query()
	if cursor > 0 {
		q.Set("cursor", fmt.Sprintf("%d", cursor))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	cursor, err := s.store.GetCursor(ctx, cursorServiceName)
	if err != nil {
		s.logger.Warn("failed to load cursor, starting from live", "error", err)
	}

	wsURL := s.buildURL(cursor)
	s.logger.Info("connecting to event stream", "url", wsURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.Close()

	s.logger.Info("connected to event stream")

	lastCursorSave := time.Now()
	var latestCursor int64
	var eventsReceived, eventsApplied int64
	lastStatsLog := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		event, err := parseEvent(message)
		if err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}

		eventsReceived++
		latestCursor = event.Seq

		if err := s.handleEvent(ctx, event); err != nil {
			s.logger.Error("failed to handle event", "type", event.Type, "error", err)
		} else {
			eventsApplied++
			metrics.EventsProcessed.WithLabelValues(event.Type).Inc()
		}

		if time.Since(lastStatsLog) >= statsLogInterval {
			s.logger.Info("event stream stats",
				"events_received", eventsReceived,
				"events_applied", eventsApplied,
			)
			lastStatsLog = time.Now()
		}

		if time.Since(lastCursorSave) >= cursorSaveInterval {
			if err := s.store.UpdateCursor(ctx, cursorServiceName, latestCursor); err != nil {
				s.logger.Error("failed to save cursor", "error", err)
			} else {
				lastCursorSave = time.Now()
			}
		}
	}
}

// handleEvent projects a single platform event onto the read store. Unknown
// event types are skipped so the stream can evolve ahead of this consumer.
func (s *Subscriber) handleEvent(ctx context.Context, event *platformEvent) error {
	switch event.Type {
	case TypePostCreated, TypePostUpdated:
		var p postPayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.UpsertPost(ctx, p.toDomain())

	case TypePostDeleted:
		var p postPayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.DeletePost(ctx, p.PostID)

	case TypeLikeCreated:
		var p likePayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.SetLike(ctx, p.ViewerID, p.PostID)

	case TypeLikeDeleted:
		var p likePayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.RemoveLike(ctx, p.ViewerID, p.PostID)

	case TypeCommentCreated:
		var p likePayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.AdjustCommentCount(ctx, p.PostID, 1)

	case TypeCommentDeleted:
		var p likePayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.AdjustCommentCount(ctx, p.PostID, -1)

	case TypeFollowUpdated:
		var p followPayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		if p.Removed {
			return s.store.RemoveFollow(ctx, p.ViewerID, p.CreatorID)
		}
		return s.store.SetFollowState(ctx, p.ViewerID, p.CreatorID, p.State)

	case TypeProfileUpdated:
		var p profilePayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.UpsertViewerProfile(ctx, &domain.ViewerProfile{
			ViewerID:           p.ViewerID,
			FavoriteActivities: p.FavoriteActivities,
			PreferredMoods:     p.PreferredMoods,
		})

	case TypeCreatorUpdated:
		var p creatorPayload
		if err := event.decodePayload(&p); err != nil {
			return err
		}
		return s.store.UpsertCreator(ctx, &domain.CreatorInfo{
			CreatorID:   p.CreatorID,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
		})

	default:
		s.logger.Debug("skipping unknown event type", "type", event.Type)
		return nil
	}
}
