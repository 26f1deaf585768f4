// Command seed loads a deterministic demo corpus into the local read store:
// a handful of creators, trip posts with place segments, viewer profiles,
// follows and likes. Useful for local development and for serving a static
// corpus with event ingestion disabled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/waypost/waypost/internal/domain"
	"github.com/waypost/waypost/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath string
		reset  bool
	)

	flag.StringVar(&dbPath, "db", envOrDefault("WAYPOST_DATABASE_PATH", "waypost.db"), "Path to the SQLite database")
	flag.BoolVar(&reset, "reset", false, "Delete the database file before seeding")
	flag.Parse()

	if reset {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove database: %w", err)
		}
		fmt.Printf("Removed %s\n", dbPath)
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	for _, creator := range demoCreators() {
		if err := store.UpsertCreator(ctx, creator); err != nil {
			return fmt.Errorf("seed creator %s: %w", creator.CreatorID, err)
		}
	}

	for _, profile := range demoProfiles() {
		if err := store.UpsertViewerProfile(ctx, profile); err != nil {
			return fmt.Errorf("seed profile %s: %w", profile.ViewerID, err)
		}
	}

	posts := demoPosts(time.Now().UTC())
	for _, post := range posts {
		if err := store.UpsertPost(ctx, post); err != nil {
			return fmt.Errorf("seed post %s: %w", post.ID, err)
		}
	}

	for _, follow := range demoFollows() {
		if err := store.SetFollowState(ctx, follow[0], follow[1], "accepted"); err != nil {
			return fmt.Errorf("seed follow %s->%s: %w", follow[0], follow[1], err)
		}
	}

	for _, like := range demoLikes() {
		if err := store.SetLike(ctx, like[0], like[1]); err != nil {
			return fmt.Errorf("seed like %s->%s: %w", like[0], like[1], err)
		}
	}

	fmt.Printf("Seeded %d posts into %s\n", len(posts), dbPath)
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func strPtr(s string) *string { return &s }

func demoCreators() []*domain.CreatorInfo {
	return []*domain.CreatorInfo{
		{CreatorID: "creator-aiko", DisplayName: "Aiko Tanaka", AvatarURL: strPtr("https://cdn.waypost.example/avatars/aiko.jpg")},
		{CreatorID: "creator-mateo", DisplayName: "Mateo Rossi", AvatarURL: strPtr("https://cdn.waypost.example/avatars/mateo.jpg")},
		{CreatorID: "creator-lena", DisplayName: "Lena Berg"},
	}
}

func demoProfiles() []*domain.ViewerProfile {
	return []*domain.ViewerProfile{
		{
			ViewerID:           "viewer-sam",
			FavoriteActivities: []string{"hiking", "kayaking", "street food"},
			PreferredMoods:     []string{"adventurous", "relaxed"},
		},
		{
			ViewerID:           "viewer-priya",
			FavoriteActivities: []string{"museums", "photography"},
			PreferredMoods:     []string{"cultural"},
		},
	}
}

func demoPosts(now time.Time) []*domain.Post {
	return []*domain.Post{
		{
			ID:           "post-fjord-trek",
			CreatorID:    "creator-lena",
			CreatedAt:    now.Add(-36 * time.Hour),
			LikeCount:    42,
			CommentCount: 7,
			Content: &domain.PostContent{
				JourneyTitle:  "Five days in the western fjords",
				PlacesVisited: []string{"Bergen", "Flåm", "Geiranger"},
				Segments: []domain.PlaceSegment{
					{
						Seq: 1, Name: "Trolltunga", Latitude: 60.124, Longitude: 6.74,
						Address: "Odda, Norway", Mood: "adventurous",
						Activities:     []string{"hiking", "camping"},
						ExperienceTags: []string{"sunrise", "cliffside"},
						ImageURLs:      []string{"https://cdn.waypost.example/p/fjord-1.jpg"},
					},
					{
						Seq: 2, Name: "Nærøyfjord", Latitude: 60.932, Longitude: 6.94,
						Address: "Aurland, Norway", Mood: "relaxed",
						Activities: []string{"kayaking"},
						ImageURLs:  []string{"https://cdn.waypost.example/p/fjord-2.jpg"},
					},
				},
			},
		},
		{
			ID:           "post-kyoto-autumn",
			CreatorID:    "creator-aiko",
			CreatedAt:    now.Add(-5 * 24 * time.Hour),
			LikeCount:    128,
			CommentCount: 19,
			Content: &domain.PostContent{
				JourneyTitle:  "Autumn temples of Kyoto",
				PlacesVisited: []string{"Kyoto", "Nara"},
				Segments: []domain.PlaceSegment{
					{
						Seq: 1, Name: "Kiyomizu-dera", Latitude: 34.9949, Longitude: 135.785,
						Address: "Kyoto, Japan", Mood: "cultural",
						Activities:     []string{"museums", "photography", "street food"},
						ExperienceTags: []string{"autumn leaves"},
						ImageURLs:      []string{"https://cdn.waypost.example/p/kyoto-1.jpg"},
					},
				},
			},
		},
		{
			ID:           "post-dolomites",
			CreatorID:    "creator-mateo",
			CreatedAt:    now.Add(-12 * 24 * time.Hour),
			LikeCount:    310,
			CommentCount: 44,
			Content: &domain.PostContent{
				JourneyTitle:  "Via ferrata weekend in the Dolomites",
				PlacesVisited: []string{"Cortina d'Ampezzo"},
				Segments: []domain.PlaceSegment{
					{
						Seq: 1, Name: "Tre Cime di Lavaredo", Latitude: 46.619, Longitude: 12.302,
						Address: "Dolomites, Italy", Mood: "adventurous",
						Activities: []string{"hiking", "climbing"},
						ImageURLs:  []string{"https://cdn.waypost.example/p/dolomites-1.jpg"},
					},
				},
			},
		},
		{
			ID:        "post-no-content",
			CreatorID: "creator-mateo",
			CreatedAt: now.Add(-2 * time.Hour),
			LikeCount: 3,
		},
	}
}

func demoFollows() [][2]string {
	return [][2]string{
		{"viewer-sam", "creator-lena"},
		{"viewer-priya", "creator-aiko"},
	}
}

func demoLikes() [][2]string {
	return [][2]string{
		{"viewer-sam", "post-dolomites"},
		{"viewer-priya", "post-kyoto-autumn"},
	}
}
