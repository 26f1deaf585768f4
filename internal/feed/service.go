package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/waypost/waypost/internal/domain"
	"github.com/waypost/waypost/internal/metrics"
)

const (
	// DefaultPageSize is used when the caller omits pageSize or passes a
	// non-positive value.
	DefaultPageSize = 20

	// MaxPageSize caps pageSize regardless of the requested value, bounding
	// single-request cost.
	MaxPageSize = 100

	// unknownCreatorName is the placeholder display name for posts whose
	// creator profile cannot be resolved.
	unknownCreatorName = "Unknown"
)

// Service assembles personalized feed pages: it loads the viewer context and
// candidate corpus, ranks every candidate, slices the requested page and
// enriches the selected posts. It holds no state between calls.
type Service struct {
	profiles domain.ProfileRepository
	posts    domain.PostRepository
	follows  domain.FollowRepository
	likes    domain.LikeRepository
	ranker   *Ranker
	logger   *slog.Logger

	// now is injected so ranking is deterministic under test.
	now func() time.Time
}

// NewService creates a feed Service with the given collaborators and signal
// weights.
func NewService(
	profiles domain.ProfileRepository,
	posts domain.PostRepository,
	follows domain.FollowRepository,
	likes domain.LikeRepository,
	cfg ScoringConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		profiles: profiles,
		posts:    posts,
		follows:  follows,
		likes:    likes,
		ranker:   NewRanker(cfg),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetPersonalizedFeed returns one page of the viewer's ranked feed.
//
// Negative page is treated as 0. Non-positive pageSize falls back to
// DefaultPageSize; any value above MaxPageSize is clamped. A viewer without
// a profile receives an unpersonalized feed, an empty corpus yields an empty
// page, and a page beyond the corpus yields an empty page with correct
// totals. The only errors are collaborator fetch failures.
func (s *Service) GetPersonalizedFeed(ctx context.Context, viewerID string, page, pageSize int) (*Page, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	profile, following, corpus, err := s.loadViewerAndCorpus(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	metrics.FeedCorpusSize.Set(float64(len(corpus)))

	rankStart := time.Now()
	ranked := s.ranker.Rank(corpus, ViewerContext{Profile: profile, Following: following}, s.now())
	metrics.FeedRankingDuration.Observe(time.Since(rankStart).Seconds())

	total := len(ranked)
	totalPages := (total + pageSize - 1) / pageSize

	start := page * pageSize
	if start >= total {
		// Overrun pages carry the totals so callers can detect the end.
		return &Page{
			Items:       []Item{},
			CurrentPage: page,
			PageSize:    pageSize,
			TotalPosts:  total,
			TotalPages:  totalPages,
		}, nil
	}

	end := min(start+pageSize, total)
	items := make([]Item, 0, end-start)
	creatorCache := make(map[string]*domain.CreatorInfo)
	for _, rp := range ranked[start:end] {
		items = append(items, s.buildItem(ctx, viewerID, rp, creatorCache))
	}

	s.logger.Debug("assembled feed page",
		"viewer_id", viewerID,
		"page", page,
		"page_size", pageSize,
		"total_posts", total,
		"items", len(items),
	)

	return &Page{
		Items:       items,
		CurrentPage: page,
		PageSize:    pageSize,
		TotalPosts:  total,
		TotalPages:  totalPages,
		HasMore:     end < total,
	}, nil
}

// loadViewerAndCorpus performs the three independent collaborator reads
// concurrently. Ranking waits for all of them; any failure fails the whole
// call so we never rank a partially fetched state.
func (s *Service) loadViewerAndCorpus(ctx context.Context, viewerID string) (*domain.ViewerProfile, map[string]struct{}, []domain.Post, error) {
	var (
		wg         sync.WaitGroup
		profile    *domain.ViewerProfile
		profileErr error
		following  map[string]struct{}
		followErr  error
		corpus     []domain.Post
		corpusErr  error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		profile, profileErr = s.profiles.GetViewerProfile(ctx, viewerID)
	}()
	go func() {
		defer wg.Done()
		following, followErr = s.follows.GetAcceptedFollowing(ctx, viewerID)
	}()
	go func() {
		defer wg.Done()
		corpus, corpusErr = s.posts.ListPostsWithContent(ctx)
	}()
	wg.Wait()

	if profileErr != nil {
		return nil, nil, nil, fmt.Errorf("fetch viewer profile: %w", profileErr)
	}
	if followErr != nil {
		return nil, nil, nil, fmt.Errorf("fetch follow set: %w", followErr)
	}
	if corpusErr != nil {
		return nil, nil, nil, fmt.Errorf("fetch post corpus: %w", corpusErr)
	}

	if profile == nil {
		profile = domain.EmptyViewerProfile(viewerID)
	}
	return profile, following, corpus, nil
}

// buildItem enriches a ranked post with creator display metadata and the
// viewer-liked flag. Enrichment never fails the page: unresolvable creators
// degrade to a placeholder and like lookups degrade to not-liked.
func (s *Service) buildItem(ctx context.Context, viewerID string, rp RankedPost, creatorCache map[string]*domain.CreatorInfo) Item {
	post := rp.Post

	item := Item{
		PostID:        post.ID,
		CreatorID:     post.CreatorID,
		CreatorName:   unknownCreatorName,
		CreatedAt:     post.CreatedAt,
		LikeCount:     post.LikeCount,
		CommentCount:  post.CommentCount,
		PlacesVisited: []string{},
		Segments:      []SegmentView{},
		Score:         rp.Score,
	}

	creator, cached := creatorCache[post.CreatorID]
	if !cached {
		var err error
		creator, err = s.profiles.GetCreatorInfo(ctx, post.CreatorID)
		if err != nil {
			s.logger.Warn("creator info lookup failed, using placeholder",
				"creator_id", post.CreatorID, "error", err)
			creator = nil
		}
		creatorCache[post.CreatorID] = creator
	}
	if creator != nil {
		item.CreatorName = creator.DisplayName
		item.CreatorAvatarURL = creator.AvatarURL
	}

	liked, err := s.likes.HasViewerLiked(ctx, viewerID, post.ID)
	if err != nil {
		s.logger.Warn("like lookup failed, treating as not liked",
			"viewer_id", viewerID, "post_id", post.ID, "error", err)
		liked = false
	}
	item.LikedByViewer = liked

	if post.Content != nil {
		item.JourneyTitle = post.Content.JourneyTitle
		if post.Content.PlacesVisited != nil {
			item.PlacesVisited = post.Content.PlacesVisited
		}
		item.Segments = lo.Map(post.Content.Segments, func(seg domain.PlaceSegment, _ int) SegmentView {
			return SegmentView{
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
		})
	}

	return item
}
