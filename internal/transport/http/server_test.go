package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"kiosk/internal/domain"
	"kiosk/internal/usecase"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	response domain.LoadFeedResponse
	err      *domain.FeedLoadError
	urls     []string
}

func (f *fakeLoader) Execute(ctx context.Context, request domain.LoadFeedRequest, out usecase.LoadFeedOutput) <-chan struct{} {
	f.urls = append(f.urls, request.URL)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if f.err != nil {
			out.OnFailed(f.err)
			return
		}
		out.OnLoaded(f.response)
	}()
	return done
}

type mockItems struct {
	mock.Mock
}

func (m *mockItems) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ArchivedItem, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]domain.ArchivedItem)
	return items, args.Error(1)
}

func newTestServer(loader feedLoader, items itemsLister, limit RateLimit) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(logger, NewHandler(logger, loader, items, time.UTC, 10), limit)
}

var generousLimit = RateLimit{RPS: 1000, Burst: 1000}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestGetFeed_Success(t *testing.T) {
	loader := &fakeLoader{response: domain.LoadFeedResponse{Channels: []domain.Channel{
		{Title: "Three chapters", Items: []domain.Item{{Title: "Chapter one", PubDate: 1494865570000}}},
	}}}
	srv := newTestServer(loader, &mockItems{}, generousLimit)

	rec := do(t, srv, http.MethodGet, "/api/feed?url=http://3chapters.com/feed")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"http://3chapters.com/feed"}, loader.urls)
	var body struct {
		Type string `json:"type"`
		Data struct {
			Channels []struct {
				Title string `json:"title"`
				Items []struct {
					Title   string `json:"title"`
					PubDate string `json:"pub_date"`
				} `json:"items"`
			} `json:"channels"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "channels", body.Type)
	require.Len(t, body.Data.Channels, 1)
	assert.Equal(t, "Three chapters", body.Data.Channels[0].Title)
	assert.Equal(t, "May 15, 2017 4:26:10 PM", body.Data.Channels[0].Items[0].PubDate)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestGetFeed_Failure(t *testing.T) {
	loader := &fakeLoader{err: &domain.FeedLoadError{URL: "http://3chapters.com/feed", Cause: domain.ErrTransport}}
	srv := newTestServer(loader, &mockItems{}, generousLimit)

	rec := do(t, srv, http.MethodGet, "/api/feed?url=http://3chapters.com/feed")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t,
		`{"type":"message","data":{"message":"The feed could not be loaded","url":"http://3chapters.com/feed"}}`,
		rec.Body.String())
}

func TestGetFeed_InvalidURL(t *testing.T) {
	for _, target := range []string{
		"/api/feed",
		"/api/feed?url=",
		"/api/feed?url=not-a-url",
		"/api/feed?url=ftp://example.com/feed",
		"/api/feed?url=http://",
	} {
		t.Run(target, func(t *testing.T) {
			loader := &fakeLoader{}
			rec := do(t, newTestServer(loader, &mockItems{}, generousLimit), http.MethodGet, target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, loader.urls)
		})
	}
}

func TestGetFeed_RateLimited(t *testing.T) {
	loader := &fakeLoader{response: domain.LoadFeedResponse{Channels: []domain.Channel{}}}
	srv := newTestServer(loader, &mockItems{}, RateLimit{RPS: 0.001, Burst: 1})

	first := do(t, srv, http.MethodGet, "/api/feed?url=http://a.example/rss")
	second := do(t, srv, http.MethodGet, "/api/feed?url=http://a.example/rss")
	health := do(t, srv, http.MethodGet, "/api/health")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Len(t, loader.urls, 1)
}

func TestGetItems(t *testing.T) {
	items := &mockItems{}
	want := []domain.ArchivedItem{{Item: domain.Item{Title: "Chapter one"}, ChannelTitle: "Three chapters"}}
	items.On("ListItems", mock.Anything, domain.ItemFilter{Limit: 5, ChannelLink: "http://3chapters.com"}).Return(want, nil)
	srv := newTestServer(&fakeLoader{}, items, generousLimit)

	rec := do(t, srv, http.MethodGet, "/api/items?limit=5&channel=http://3chapters.com")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.ArchivedItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want, got)
	items.AssertExpectations(t)
}

func TestGetItems_DefaultLimitAndEmpty(t *testing.T) {
	items := &mockItems{}
	items.On("ListItems", mock.Anything, domain.ItemFilter{Limit: 10}).Return(nil, nil)
	srv := newTestServer(&fakeLoader{}, items, generousLimit)

	rec := do(t, srv, http.MethodGet, "/api/items")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetItems_Errors(t *testing.T) {
	items := &mockItems{}
	items.On("ListItems", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	srv := newTestServer(&fakeLoader{}, items, generousLimit)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/items?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/items?limit=-1").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, srv, http.MethodGet, "/api/items").Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(&fakeLoader{}, &mockItems{}, generousLimit), http.MethodPost, "/api/items")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_CORSPreflight(t *testing.T) {
	rec := do(t, newTestServer(&fakeLoader{}, &mockItems{}, generousLimit), http.MethodOptions, "/api/feed")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RequestIDEchoed(t *testing.T) {
	srv := newTestServer(&fakeLoader{}, &mockItems{}, generousLimit)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(&fakeLoader{}, &mockItems{}, generousLimit)
	do(t, srv, http.MethodGet, "/api/health")

	rec := do(t, srv, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kiosk_http_requests_total")
}

func TestMetricPath(t *testing.T) {
	assert.Equal(t, "/api/feed", metricPath("/api/feed"))
	assert.Equal(t, "other", metricPath("/wp-admin"))
}
