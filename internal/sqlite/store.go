package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/waypost/waypost/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id            TEXT PRIMARY KEY,
	creator_id    TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	like_count    INTEGER NOT NULL DEFAULT 0,
	comment_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS post_content (
	post_id        TEXT PRIMARY KEY REFERENCES posts (id) ON DELETE CASCADE,
	journey_title  TEXT NOT NULL DEFAULT '',
	places_visited TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS place_segments (
	post_id         TEXT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	name            TEXT NOT NULL DEFAULT '',
	latitude        REAL NOT NULL DEFAULT 0,
	longitude       REAL NOT NULL DEFAULT 0,
	address         TEXT NOT NULL DEFAULT '',
	mood            TEXT NOT NULL DEFAULT '',
	activities      TEXT NOT NULL DEFAULT '[]',
	experience_tags TEXT NOT NULL DEFAULT '[]',
	image_urls      TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (post_id, seq)
);

CREATE TABLE IF NOT EXISTS viewer_profiles (
	viewer_id           TEXT PRIMARY KEY,
	favorite_activities TEXT NOT NULL DEFAULT '[]',
	preferred_moods     TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS creators (
	creator_id   TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	avatar_url   TEXT
);

CREATE TABLE IF NOT EXISTS follows (
	viewer_id  TEXT NOT NULL,
	creator_id TEXT NOT NULL,
	state      TEXT NOT NULL,
	PRIMARY KEY (viewer_id, creator_id)
);

CREATE TABLE IF NOT EXISTS likes (
	viewer_id TEXT NOT NULL,
	post_id   TEXT NOT NULL,
	PRIMARY KEY (viewer_id, post_id)
);

CREATE TABLE IF NOT EXISTS cursors (
	service      TEXT PRIMARY KEY,
	cursor_value INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
`

// followStateAccepted is the relationship state that makes a follow count
// for feed personalization.
const followStateAccepted = "accepted"

// Store implements the feed engine's read ports and the event ingestion
// write operations on a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path, applies the
// schema and returns a Store. The caller should call Close when done.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer; serialize access through one conn.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetViewerProfile retrieves a viewer's preference profile. Returns
// (nil, nil) when the viewer has no profile.
func (s *Store) GetViewerProfile(ctx context.Context, viewerID string) (*domain.ViewerProfile, error) {
	var activitiesJSON, moodsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT favorite_activities, preferred_moods FROM viewer_profiles WHERE viewer_id = ?`,
		viewerID,
	).Scan(&activitiesJSON, &moodsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query viewer profile: %w", err)
	}

	profile := &domain.ViewerProfile{ViewerID: viewerID}
	if profile.FavoriteActivities, err = decodeStrings(activitiesJSON); err != nil {
		return nil, fmt.Errorf("decode favorite activities: %w", err)
	}
	if profile.PreferredMoods, err = decodeStrings(moodsJSON); err != nil {
		return nil, fmt.Errorf("decode preferred moods: %w", err)
	}
	return profile, nil
}

// GetCreatorInfo retrieves creator display metadata. Returns (nil, nil) when
// the creator is unknown.
func (s *Store) GetCreatorInfo(ctx context.Context, creatorID string) (*domain.CreatorInfo, error) {
	var (
		name   string
		avatar sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name, avatar_url FROM creators WHERE creator_id = ?`,
		creatorID,
	).Scan(&name, &avatar)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query creator info: %w", err)
	}

	info := &domain.CreatorInfo{CreatorID: creatorID, DisplayName: name}
	if avatar.Valid {
		info.AvatarURL = &avatar.String
	}
	return info, nil
}

// GetAcceptedFollowing returns the creator ids the viewer follows with an
// accepted state.
func (s *Store) GetAcceptedFollowing(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT creator_id FROM follows WHERE viewer_id = ? AND state = ?`,
		viewerID, followStateAccepted,
	)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()

	following := make(map[string]struct{})
	for rows.Next() {
		var creatorID string
		if err := rows.Scan(&creatorID); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		following[creatorID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follows: %w", err)
	}
	return following, nil
}

// HasViewerLiked reports whether the viewer has liked the post.
func (s *Store) HasViewerLiked(ctx context.Context, viewerID, postID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM likes WHERE viewer_id = ? AND post_id = ?`,
		viewerID, postID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query like: %w", err)
	}
	return true, nil
}

// ListPostsWithContent retrieves the whole candidate corpus with journey
// content and segments preloaded in three queries, ordered newest first with
// id as tiebreaker so the order is deterministic for an unchanged corpus.
func (s *Store) ListPostsWithContent(ctx context.Context) ([]domain.Post, error) {
	posts, index, err := s.listPosts(ctx)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	if err := s.attachContent(ctx, posts, index); err != nil {
		return nil, err
	}
	if err := s.attachSegments(ctx, posts, index); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) listPosts(ctx context.Context) ([]domain.Post, map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, creator_id, created_at, like_count, comment_count
		FROM posts
		ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	index := make(map[string]int)
	for rows.Next() {
		var (
			p         domain.Post
			createdMs int64
		)
		if err := rows.Scan(&p.ID, &p.CreatorID, &createdMs, &p.LikeCount, &p.CommentCount); err != nil {
			return nil, nil, fmt.Errorf("scan post: %w", err)
		}
		p.CreatedAt = time.UnixMilli(createdMs).UTC()
		index[p.ID] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, index, nil
}

func (s *Store) attachContent(ctx context.Context, posts []domain.Post, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT post_id, journey_title, places_visited FROM post_content`,
	)
	if err != nil {
		return fmt.Errorf("query post content: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, title, placesJSON string
		if err := rows.Scan(&postID, &title, &placesJSON); err != nil {
			return fmt.Errorf("scan post content: %w", err)
		}
		i, ok := index[postID]
		if !ok {
			continue
		}
		places, err := decodeStrings(placesJSON)
		if err != nil {
			return fmt.Errorf("decode places visited: %w", err)
		}
		posts[i].Content = &domain.PostContent{
			JourneyTitle:  title,
			PlacesVisited: places,
		}
	}
	return rows.Err()
}

func (s *Store) attachSegments(ctx context.Context, posts []domain.Post, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, seq, name, latitude, longitude, address, mood,
		       activities, experience_tags, image_urls
		FROM place_segments
		ORDER BY post_id, seq`,
	)
	if err != nil {
		return fmt.Errorf("query place segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			postID                               string
			seg                                  domain.PlaceSegment
			activitiesJSON, tagsJSON, imagesJSON string
		)
		err := rows.Scan(&postID, &seg.Seq, &seg.Name, &seg.Latitude, &seg.Longitude,
			&seg.Address, &seg.Mood, &activitiesJSON, &tagsJSON, &imagesJSON)
		if err != nil {
			return fmt.Errorf("scan place segment: %w", err)
		}
		i, ok := index[postID]
		if !ok || posts[i].Content == nil {
			continue
		}
		if seg.Activities, err = decodeStrings(activitiesJSON); err != nil {
			return fmt.Errorf("decode segment activities: %w", err)
		}
		if seg.ExperienceTags, err = decodeStrings(tagsJSON); err != nil {
			return fmt.Errorf("decode segment experience tags: %w", err)
		}
		if seg.ImageURLs, err = decodeStrings(imagesJSON); err != nil {
			return fmt.Errorf("decode segment image urls: %w", err)
		}
		posts[i].Content.Segments = append(posts[i].Content.Segments, seg)
	}
	return rows.Err()
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
