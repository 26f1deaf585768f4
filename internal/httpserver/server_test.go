package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/waypost/waypost/internal/config"
	"github.com/waypost/waypost/internal/feed"
)

type fakeFeedService struct {
	page *feed.Page
	err  error

	gotViewerID string
	gotPage     int
	gotPageSize int
}

func (f *fakeFeedService) GetPersonalizedFeed(_ context.Context, viewerID string, page, pageSize int) (*feed.Page, error) {
	f.gotViewerID = viewerID
	f.gotPage = page
	f.gotPageSize = pageSize
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func newTestServer(svc FeedProvider) *Server {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	return NewServer(cfg, svc, slog.New(slog.DiscardHandler))
}

func TestHandleGetFeed(t *testing.T) {
	svc := &fakeFeedService{
		page: &feed.Page{
			Items: []feed.Item{
				{PostID: "p1", CreatorName: "Ana", Score: 586.5, Segments: []feed.SegmentView{}, PlacesVisited: []string{}},
			},
			CurrentPage: 0,
			PageSize:    20,
			TotalPosts:  1,
			TotalPages:  1,
			HasMore:     false,
		},
	}
	server := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/feed?viewerId=v1&page=2&pageSize=10", nil)
	rec := httptest.NewRecorder()
	server.handleGetFeed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if svc.gotViewerID != "v1" || svc.gotPage != 2 || svc.gotPageSize != 10 {
		t.Errorf("service called with (%q, %d, %d), want (v1, 2, 10)",
			svc.gotViewerID, svc.gotPage, svc.gotPageSize)
	}

	var got feed.Page
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].PostID != "p1" {
		t.Errorf("items = %+v, want single p1", got.Items)
	}
	if got.TotalPosts != 1 || got.HasMore {
		t.Errorf("envelope = %+v, want totalPosts 1 hasMore false", got)
	}
}

func TestHandleGetFeedMissingViewerID(t *testing.T) {
	svc := &fakeFeedService{}
	server := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/feed?page=1", nil)
	rec := httptest.NewRecorder()
	server.handleGetFeed(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "InvalidRequest" {
		t.Errorf("error = %q, want InvalidRequest", body["error"])
	}
	if svc.gotViewerID != "" {
		t.Error("service was called despite invalid request")
	}
}

func TestHandleGetFeedServiceError(t *testing.T) {
	svc := &fakeFeedService{err: errors.New("fetch post corpus: connection refused")}
	server := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/feed?viewerId=v1", nil)
	rec := httptest.NewRecorder()
	server.handleGetFeed(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "InternalError" {
		t.Errorf("error = %q, want InternalError", body["error"])
	}
}

func TestParseFeedRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  feedRequest
	}{
		{
			name:  "all parameters",
			query: "viewerId=v1&page=3&pageSize=50",
			want:  feedRequest{ViewerID: "v1", Page: 3, PageSize: 50},
		},
		{
			name:  "defaults when omitted",
			query: "viewerId=v1",
			want:  feedRequest{ViewerID: "v1"},
		},
		{
			name:  "unparseable numbers fall back to zero",
			query: "viewerId=v1&page=abc&pageSize=",
			want:  feedRequest{ViewerID: "v1"},
		},
		{
			name:  "negative values pass through for the assembler to clamp",
			query: "viewerId=v1&page=-2&pageSize=-5",
			want:  feedRequest{ViewerID: "v1", Page: -2, PageSize: -5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/feed?"+tt.query, nil)
			if got := parseFeedRequest(req); got != tt.want {
				t.Errorf("parseFeedRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&fakeFeedService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}
