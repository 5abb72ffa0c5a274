package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"kiosk/internal/domain"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const feedURL = "http://3chapters.com/feed"

func newTestLoadFeed(g ChannelsGateway) *LoadFeedUseCase {
	return NewLoadFeedUseCase(g, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("load did not complete")
	}
}

func threeChannels() []domain.Channel {
	return []domain.Channel{
		{Title: "Channel 1", Items: []domain.Item{{Title: "Ep01"}}},
		{Title: "Channel 2", Items: []domain.Item{{Title: "Ep201"}}},
		{Title: "Channel 3", Items: []domain.Item{{Title: "Ep301"}}},
	}
}

func TestLoadFeedUseCase_Execute_Success(t *testing.T) {
	g := &fakeGateway{channels: threeChannels()}
	out := &mockOutput{}
	out.On("OnLoaded", domain.LoadFeedResponse{Channels: threeChannels()}).Return().Once()

	wait(t, newTestLoadFeed(g).Execute(context.Background(), domain.LoadFeedRequest{URL: feedURL}, out))

	out.AssertExpectations(t)
	out.AssertNotCalled(t, "OnFailed", mock.Anything)
	assert.Equal(t, 1, g.calls)
}

func TestLoadFeedUseCase_Execute_EmptyFeed(t *testing.T) {
	out := &mockOutput{}
	out.On("OnLoaded", domain.LoadFeedResponse{Channels: []domain.Channel{}}).Return().Once()

	wait(t, newTestLoadFeed(&fakeGateway{}).Execute(context.Background(), domain.LoadFeedRequest{URL: feedURL}, out))

	out.AssertExpectations(t)
	out.AssertNotCalled(t, "OnFailed", mock.Anything)
}

func TestLoadFeedUseCase_Execute_Failures(t *testing.T) {
	tests := []struct {
		name     string
		channels []domain.Channel
		err      error
		want     error
	}{
		{name: "unauthorized", err: fmt.Errorf("%w: unexpected status code: 401", domain.ErrTransport), want: domain.ErrTransport},
		{name: "forbidden", err: fmt.Errorf("%w: unexpected status code: 403", domain.ErrTransport), want: domain.ErrTransport},
		{name: "malformed", err: fmt.Errorf("%w: no root element", domain.ErrMalformedDocument), want: domain.ErrMalformedDocument},
		{name: "bad date after partial channels", channels: threeChannels(), err: domain.ErrDateParse, want: domain.ErrDateParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGateway{channels: tt.channels, err: tt.err}
			out := &mockOutput{}
			var got *domain.FeedLoadError
			out.On("OnFailed", mock.AnythingOfType("*domain.FeedLoadError")).
				Run(func(args mock.Arguments) { got = args.Get(0).(*domain.FeedLoadError) }).
				Return().Once()

			wait(t, newTestLoadFeed(g).Execute(context.Background(), domain.LoadFeedRequest{URL: feedURL}, out))

			out.AssertExpectations(t)
			out.AssertNotCalled(t, "OnLoaded", mock.Anything)
			require.NotNil(t, got)
			assert.Equal(t, feedURL, got.URL)
			assert.NotNil(t, got.Cause)
			assert.True(t, errors.Is(got, tt.want))
		})
	}
}

func TestLoadFeedUseCase_Execute_CancelledContextIsTransportFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &mockOutput{}
	var got *domain.FeedLoadError
	out.On("OnFailed", mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(0).(*domain.FeedLoadError)
	}).Return().Once()

	wait(t, newTestLoadFeed(&fakeGateway{channels: threeChannels()}).Execute(ctx, domain.LoadFeedRequest{URL: feedURL}, out))

	out.AssertExpectations(t)
	out.AssertNotCalled(t, "OnLoaded", mock.Anything)
	require.NotNil(t, got)
	assert.True(t, errors.Is(got, domain.ErrTransport))
	assert.True(t, errors.Is(got, context.Canceled))
}

func TestLoadFeedUseCase_Execute_ReturnsBeforeCompletion(t *testing.T) {
	release := make(chan struct{})
	g := &blockingGateway{release: release}
	out := &mockOutput{}
	out.On("OnLoaded", mock.Anything).Return().Once()

	done := newTestLoadFeed(g).Execute(context.Background(), domain.LoadFeedRequest{URL: feedURL}, out)

	select {
	case <-done:
		t.Fatal("Execute must not block until the load completes")
	default:
	}
	close(release)
	wait(t, done)
	out.AssertExpectations(t)
}

type blockingGateway struct {
	release chan struct{}
}

func (g *blockingGateway) LoadChannel(ctx context.Context, url string) (<-chan domain.Channel, <-chan error) {
	stream := make(chan domain.Channel)
	errs := make(chan error)
	go func() {
		<-g.release
		close(stream)
		close(errs)
	}()
	return stream, errs
}

func TestLoadFeedUseCase_Load(t *testing.T) {
	uc := newTestLoadFeed(&fakeGateway{channels: threeChannels()})

	response, err := uc.Load(context.Background(), domain.LoadFeedRequest{URL: feedURL})

	require.NoError(t, err)
	require.Len(t, response.Channels, 3)
	for _, ch := range response.Channels {
		assert.Len(t, ch.Items, 1)
	}
}

func TestLoadFeedUseCase_Load_ErrorIsFeedLoadError(t *testing.T) {
	uc := newTestLoadFeed(&fakeGateway{err: fmt.Errorf("%w: connection refused", domain.ErrTransport)})

	response, err := uc.Load(context.Background(), domain.LoadFeedRequest{URL: feedURL})

	require.Error(t, err)
	assert.Empty(t, response.Channels)
	var loadErr *domain.FeedLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, feedURL, loadErr.URL)
	assert.Equal(t, "transport", domain.FailureClass(err))
}

func TestLoadFeedUseCase_Load_NoGateway(t *testing.T) {
	_, err := newTestLoadFeed(nil).Load(context.Background(), domain.LoadFeedRequest{URL: feedURL})

	var loadErr *domain.FeedLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "unknown", domain.FailureClass(err))
}
