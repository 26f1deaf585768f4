package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/waypost/waypost/internal/domain"
)

type fakeRepos struct {
	profiles map[string]*domain.ViewerProfile
	creators map[string]*domain.CreatorInfo
	follows  map[string]map[string]struct{}
	likes    map[string]map[string]struct{}
	posts    []domain.Post

	profileErr error
	creatorErr error
	followErr  error
	corpusErr  error
	likeErr    error
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		profiles: map[string]*domain.ViewerProfile{},
		creators: map[string]*domain.CreatorInfo{},
		follows:  map[string]map[string]struct{}{},
		likes:    map[string]map[string]struct{}{},
	}
}

func (f *fakeRepos) GetViewerProfile(_ context.Context, viewerID string) (*domain.ViewerProfile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profiles[viewerID], nil
}

func (f *fakeRepos) GetCreatorInfo(_ context.Context, creatorID string) (*domain.CreatorInfo, error) {
	if f.creatorErr != nil {
		return nil, f.creatorErr
	}
	return f.creators[creatorID], nil
}

func (f *fakeRepos) GetAcceptedFollowing(_ context.Context, viewerID string) (map[string]struct{}, error) {
	if f.followErr != nil {
		return nil, f.followErr
	}
	return f.follows[viewerID], nil
}

func (f *fakeRepos) ListPostsWithContent(_ context.Context) ([]domain.Post, error) {
	if f.corpusErr != nil {
		return nil, f.corpusErr
	}
	return f.posts, nil
}

func (f *fakeRepos) HasViewerLiked(_ context.Context, viewerID, postID string) (bool, error) {
	if f.likeErr != nil {
		return false, f.likeErr
	}
	_, ok := f.likes[viewerID][postID]
	return ok, nil
}

func newTestService(repos *fakeRepos) *Service {
	s := NewService(repos, repos, repos, repos, DefaultScoringConfig(), slog.New(slog.DiscardHandler))
	s.now = func() time.Time { return rankNow }
	return s
}

func corpusOf(n int) []domain.Post {
	posts := make([]domain.Post, n)
	for i := range posts {
		posts[i] = domain.Post{
			ID:        fmt.Sprintf("p%02d", i),
			CreatorID: "c1",
			CreatedAt: rankNow.Add(-time.Duration(i) * time.Hour),
			LikeCount: i,
		}
	}
	return posts
}

func TestGetPersonalizedFeedPagination(t *testing.T) {
	repos := newFakeRepos()
	repos.posts = corpusOf(45)
	svc := newTestService(repos)

	tests := []struct {
		name           string
		page           int
		wantItems      int
		wantHasMore    bool
		wantTotalPages int
	}{
		{name: "first page is full", page: 0, wantItems: 20, wantHasMore: true, wantTotalPages: 3},
		{name: "middle page is full", page: 1, wantItems: 20, wantHasMore: true, wantTotalPages: 3},
		{name: "last page holds the remainder", page: 2, wantItems: 5, wantHasMore: false, wantTotalPages: 3},
		{name: "overrun page is empty with totals", page: 3, wantItems: 0, wantHasMore: false, wantTotalPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.GetPersonalizedFeed(context.Background(), "v1", tt.page, 20)
			if err != nil {
				t.Fatalf("GetPersonalizedFeed() error = %v", err)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("len(Items) = %d, want %d", len(page.Items), tt.wantItems)
			}
			if page.HasMore != tt.wantHasMore {
				t.Errorf("HasMore = %v, want %v", page.HasMore, tt.wantHasMore)
			}
			if page.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", page.TotalPages, tt.wantTotalPages)
			}
			if page.TotalPosts != 45 {
				t.Errorf("TotalPosts = %d, want 45", page.TotalPosts)
			}
			if page.CurrentPage != tt.page {
				t.Errorf("CurrentPage = %d, want %d", page.CurrentPage, tt.page)
			}
		})
	}
}

func TestGetPersonalizedFeedDefaultsAndClamps(t *testing.T) {
	repos := newFakeRepos()
	repos.posts = corpusOf(150)
	svc := newTestService(repos)

	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
		wantItems    int
	}{
		{name: "negative page treated as zero", page: -3, pageSize: 20, wantPage: 0, wantPageSize: 20, wantItems: 20},
		{name: "zero pageSize falls back to default", page: 0, pageSize: 0, wantPage: 0, wantPageSize: DefaultPageSize, wantItems: 20},
		{name: "negative pageSize falls back to default", page: 0, pageSize: -1, wantPage: 0, wantPageSize: DefaultPageSize, wantItems: 20},
		{name: "oversized pageSize clamps to max", page: 0, pageSize: 5000, wantPage: 0, wantPageSize: MaxPageSize, wantItems: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.GetPersonalizedFeed(context.Background(), "v1", tt.page, tt.pageSize)
			if err != nil {
				t.Fatalf("GetPersonalizedFeed() error = %v", err)
			}
			if page.CurrentPage != tt.wantPage {
				t.Errorf("CurrentPage = %d, want %d", page.CurrentPage, tt.wantPage)
			}
			if page.PageSize != tt.wantPageSize {
				t.Errorf("PageSize = %d, want %d", page.PageSize, tt.wantPageSize)
			}
			if len(page.Items) != tt.wantItems {
				t.Errorf("len(Items) = %d, want %d", len(page.Items), tt.wantItems)
			}
		})
	}
}

func TestGetPersonalizedFeedEmptyCorpus(t *testing.T) {
	svc := newTestService(newFakeRepos())

	page, err := svc.GetPersonalizedFeed(context.Background(), "v1", 0, 20)
	if err != nil {
		t.Fatalf("GetPersonalizedFeed() error = %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0", len(page.Items))
	}
	if page.TotalPosts != 0 || page.TotalPages != 0 {
		t.Errorf("totals = (%d, %d), want (0, 0)", page.TotalPosts, page.TotalPages)
	}
	if page.HasMore {
		t.Error("HasMore = true, want false")
	}
}

func TestGetPersonalizedFeedGracefulDegradation(t *testing.T) {
	repos := newFakeRepos()
	// No profile for the viewer, a post without content, and an unknown
	// creator: all must degrade, none may error.
	repos.posts = []domain.Post{{ID: "bare", CreatorID: "ghost", CreatedAt: rankNow}}
	svc := newTestService(repos)

	page, err := svc.GetPersonalizedFeed(context.Background(), "no-profile-viewer", 0, 20)
	if err != nil {
		t.Fatalf("GetPersonalizedFeed() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(page.Items))
	}

	item := page.Items[0]
	if item.CreatorName != "Unknown" {
		t.Errorf("CreatorName = %q, want %q", item.CreatorName, "Unknown")
	}
	if item.CreatorAvatarURL != nil {
		t.Errorf("CreatorAvatarURL = %v, want nil", *item.CreatorAvatarURL)
	}
	if item.LikedByViewer {
		t.Error("LikedByViewer = true, want false")
	}
	if item.Segments == nil || item.PlacesVisited == nil {
		t.Error("Segments and PlacesVisited must be empty slices, not nil")
	}
}

func TestGetPersonalizedFeedEnrichment(t *testing.T) {
	avatar := "https://cdn.example/ana.jpg"
	repos := newFakeRepos()
	repos.posts = []domain.Post{{
		ID:           "trip",
		CreatorID:    "ana",
		CreatedAt:    rankNow.Add(-time.Hour),
		LikeCount:    4,
		CommentCount: 1,
		Content: &domain.PostContent{
			JourneyTitle:  "Coastal loop",
			PlacesVisited: []string{"Lisbon", "Porto"},
			Segments: []domain.PlaceSegment{{
				Seq: 1, Name: "Cabo da Roca", Mood: "windswept",
				Activities: []string{"hiking"},
			}},
		},
	}}
	repos.creators["ana"] = &domain.CreatorInfo{CreatorID: "ana", DisplayName: "Ana", AvatarURL: &avatar}
	repos.likes["v1"] = map[string]struct{}{"trip": {}}
	svc := newTestService(repos)

	page, err := svc.GetPersonalizedFeed(context.Background(), "v1", 0, 20)
	if err != nil {
		t.Fatalf("GetPersonalizedFeed() error = %v", err)
	}

	item := page.Items[0]
	if item.CreatorName != "Ana" {
		t.Errorf("CreatorName = %q, want %q", item.CreatorName, "Ana")
	}
	if item.CreatorAvatarURL == nil || *item.CreatorAvatarURL != avatar {
		t.Errorf("CreatorAvatarURL = %v, want %q", item.CreatorAvatarURL, avatar)
	}
	if !item.LikedByViewer {
		t.Error("LikedByViewer = false, want true")
	}
	if item.JourneyTitle != "Coastal loop" {
		t.Errorf("JourneyTitle = %q, want %q", item.JourneyTitle, "Coastal loop")
	}
	if len(item.Segments) != 1 || item.Segments[0].Name != "Cabo da Roca" {
		t.Errorf("Segments = %+v, want the Cabo da Roca segment", item.Segments)
	}
	if item.Score <= 0 {
		t.Errorf("Score = %f, want > 0", item.Score)
	}
}

func TestGetPersonalizedFeedEnrichmentErrorsDegrade(t *testing.T) {
	repos := newFakeRepos()
	repos.posts = corpusOf(1)
	repos.creatorErr = errors.New("profile service down")
	repos.likeErr = errors.New("like service down")
	svc := newTestService(repos)

	page, err := svc.GetPersonalizedFeed(context.Background(), "v1", 0, 20)
	if err != nil {
		t.Fatalf("GetPersonalizedFeed() error = %v, want graceful degradation", err)
	}
	if page.Items[0].CreatorName != "Unknown" {
		t.Errorf("CreatorName = %q, want %q", page.Items[0].CreatorName, "Unknown")
	}
	if page.Items[0].LikedByViewer {
		t.Error("LikedByViewer = true, want false")
	}
}

func TestGetPersonalizedFeedFetchFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fakeRepos)
		wantText string
	}{
		{
			name:     "corpus fetch failure",
			mutate:   func(f *fakeRepos) { f.corpusErr = errors.New("db gone") },
			wantText: "fetch post corpus",
		},
		{
			name:     "profile fetch failure",
			mutate:   func(f *fakeRepos) { f.profileErr = errors.New("db gone") },
			wantText: "fetch viewer profile",
		},
		{
			name:     "follow fetch failure",
			mutate:   func(f *fakeRepos) { f.followErr = errors.New("db gone") },
			wantText: "fetch follow set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := newFakeRepos()
			repos.posts = corpusOf(3)
			tt.mutate(repos)
			svc := newTestService(repos)

			_, err := svc.GetPersonalizedFeed(context.Background(), "v1", 0, 20)
			if err == nil {
				t.Fatal("GetPersonalizedFeed() error = nil, want failure")
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error = %q, want it to identify %q", err, tt.wantText)
			}
		})
	}
}

func TestGetPersonalizedFeedOrdersByScore(t *testing.T) {
	repos := newFakeRepos()
	repos.posts = []domain.Post{
		{ID: "stale", CreatorID: "c1", CreatedAt: rankNow.Add(-60 * 24 * time.Hour)},
		{ID: "followed", CreatorID: "friend", CreatedAt: rankNow.Add(-60 * 24 * time.Hour)},
		{ID: "fresh", CreatorID: "c2", CreatedAt: rankNow},
	}
	repos.follows["v1"] = map[string]struct{}{"friend": {}}
	svc := newTestService(repos)

	page, err := svc.GetPersonalizedFeed(context.Background(), "v1", 0, 20)
	if err != nil {
		t.Fatalf("GetPersonalizedFeed() error = %v", err)
	}

	gotOrder := make([]string, len(page.Items))
	for i, item := range page.Items {
		gotOrder[i] = item.PostID
	}
	want := []string{"followed", "fresh", "stale"}
	for i := range want {
		if gotOrder[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotOrder, want)
		}
	}
}
