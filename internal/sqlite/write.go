package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/waypost/waypost/internal/domain"
)

// UpsertPost inserts or replaces a post together with its journey content
// and place segments in a single transaction.
func (s *Store) UpsertPost(ctx context.Context, post *domain.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO posts (id, creator_id, created_at, like_count, comment_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			creator_id = excluded.creator_id,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count`,
		post.ID, post.CreatorID, post.CreatedAt.UnixMilli(), post.LikeCount, post.CommentCount,
	)
	if err != nil {
		return fmt.Errorf("upsert post: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_content WHERE post_id = ?`, post.ID); err != nil {
		return fmt.Errorf("clear post content: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM place_segments WHERE post_id = ?`, post.ID); err != nil {
		return fmt.Errorf("clear place segments: %w", err)
	}

	if post.Content != nil {
		placesJSON, err := encodeStrings(post.Content.PlacesVisited)
		if err != nil {
			return fmt.Errorf("encode places visited: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO post_content (post_id, journey_title, places_visited)
			VALUES (?, ?, ?)`,
			post.ID, post.Content.JourneyTitle, placesJSON,
		)
		if err != nil {
			return fmt.Errorf("insert post content: %w", err)
		}

		for _, seg := range post.Content.Segments {
			if err := insertSegment(ctx, tx, post.ID, seg); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertSegment(ctx context.Context, tx *sql.Tx, postID string, seg domain.PlaceSegment) error {
	activitiesJSON, err := encodeStrings(seg.Activities)
	if err != nil {
		return fmt.Errorf("encode segment activities: %w", err)
	}
	tagsJSON, err := encodeStrings(seg.ExperienceTags)
	if err != nil {
		return fmt.Errorf("encode segment experience tags: %w", err)
	}
	imagesJSON, err := encodeStrings(seg.ImageURLs)
	if err != nil {
		return fmt.Errorf("encode segment image urls: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO place_segments
			(post_id, seq, name, latitude, longitude, address, mood, activities, experience_tags, image_urls)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		postID, seg.Seq, seg.Name, seg.Latitude, seg.Longitude, seg.Address, seg.Mood,
		activitiesJSON, tagsJSON, imagesJSON,
	)
	if err != nil {
		return fmt.Errorf("insert place segment: %w", err)
	}
	return nil
}

// DeletePost removes a post; content and segments cascade.
func (s *Store) DeletePost(ctx context.Context, postID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postID); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// UpsertCreator inserts or updates creator display metadata.
func (s *Store) UpsertCreator(ctx context.Context, info *domain.CreatorInfo) error {
	var avatar sql.NullString
	if info.AvatarURL != nil {
		avatar = sql.NullString{String: *info.AvatarURL, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO creators (creator_id, display_name, avatar_url)
		VALUES (?, ?, ?)
		ON CONFLICT (creator_id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar_url = excluded.avatar_url`,
		info.CreatorID, info.DisplayName, avatar,
	)
	if err != nil {
		return fmt.Errorf("upsert creator: %w", err)
	}
	return nil
}

// UpsertViewerProfile inserts or updates a viewer's preference profile.
func (s *Store) UpsertViewerProfile(ctx context.Context, profile *domain.ViewerProfile) error {
	activitiesJSON, err := encodeStrings(profile.FavoriteActivities)
	if err != nil {
		return fmt.Errorf("encode favorite activities: %w", err)
	}
	moodsJSON, err := encodeStrings(profile.PreferredMoods)
	if err != nil {
		return fmt.Errorf("encode preferred moods: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO viewer_profiles (viewer_id, favorite_activities, preferred_moods)
		VALUES (?, ?, ?)
		ON CONFLICT (viewer_id) DO UPDATE SET
			favorite_activities = excluded.favorite_activities,
			preferred_moods = excluded.preferred_moods`,
		profile.ViewerID, activitiesJSON, moodsJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert viewer profile: %w", err)
	}
	return nil
}

// SetLike records a like and bumps the post's counter. Duplicate likes are
// ignored so replayed events stay idempotent.
func (s *Store) SetLike(ctx context.Context, viewerID, postID string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO likes (viewer_id, post_id) VALUES (?, ?)`,
		viewerID, postID,
	)
	if err != nil {
		return fmt.Errorf("insert like: %w", err)
	}
	inserted, _ := res.RowsAffected()
	if inserted == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE posts SET like_count = like_count + 1 WHERE id = ?`, postID,
	); err != nil {
		return fmt.Errorf("increment like count: %w", err)
	}
	return nil
}

// RemoveLike removes a like and drops the post's counter, never below zero.
func (s *Store) RemoveLike(ctx context.Context, viewerID, postID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM likes WHERE viewer_id = ? AND post_id = ?`,
		viewerID, postID,
	)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE posts SET like_count = MAX(like_count - 1, 0) WHERE id = ?`, postID,
	); err != nil {
		return fmt.Errorf("decrement like count: %w", err)
	}
	return nil
}

// AdjustCommentCount shifts a post's comment counter by delta, clamped at
// zero.
func (s *Store) AdjustCommentCount(ctx context.Context, postID string, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE posts SET comment_count = MAX(comment_count + ?, 0) WHERE id = ?`,
		delta, postID,
	)
	if err != nil {
		return fmt.Errorf("adjust comment count: %w", err)
	}
	return nil
}

// SetFollowState upserts the relationship state between a viewer and a
// creator.
func (s *Store) SetFollowState(ctx context.Context, viewerID, creatorID, state string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO follows (viewer_id, creator_id, state)
		VALUES (?, ?, ?)
		ON CONFLICT (viewer_id, creator_id) DO UPDATE SET state = excluded.state`,
		viewerID, creatorID, state,
	)
	if err != nil {
		return fmt.Errorf("upsert follow: %w", err)
	}
	return nil
}

// RemoveFollow deletes the relationship between a viewer and a creator.
func (s *Store) RemoveFollow(ctx context.Context, viewerID, creatorID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE viewer_id = ? AND creator_id = ?`,
		viewerID, creatorID,
	); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

// GetCursor retrieves the saved event-stream cursor for a service. Returns 0
// if no cursor has been saved.
func (s *Store) GetCursor(ctx context.Context, service string) (int64, error) {
	var cursor int64
	err := s.db.QueryRowContext(ctx,
		`SELECT cursor_value FROM cursors WHERE service = ?`, service,
	).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query cursor: %w", err)
	}
	return cursor, nil
}

// UpdateCursor upserts the event-stream cursor so ingestion can resume after
// a restart.
func (s *Store) UpdateCursor(ctx context.Context, service string, cursor int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cursors (service, cursor_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (service) DO UPDATE SET cursor_value = ?, updated_at = ?`,
		service, cursor, time.Now().UnixMilli(), cursor, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert cursor: %w", err)
	}
	return nil
}

// DeleteOldPosts removes posts older than maxAge and any excess rows beyond
// maxRows, keeping the most recent posts. Returns the number of rows deleted.
func (s *Store) DeleteOldPosts(ctx context.Context, maxAge time.Duration, maxRows int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM posts WHERE created_at < ?`,
		time.Now().UTC().Add(-maxAge).UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired posts: %w", err)
	}
	ttlDeleted, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `
		DELETE FROM posts WHERE id IN (
			SELECT id FROM posts
			ORDER BY created_at DESC, id DESC
			LIMIT -1 OFFSET ?
		)`, maxRows,
	)
	if err != nil {
		return 0, fmt.Errorf("delete excess posts: %w", err)
	}
	capDeleted, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return ttlDeleted + capDeleted, nil
}
