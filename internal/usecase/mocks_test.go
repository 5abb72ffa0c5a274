package usecase

import (
	"context"
	"kiosk/internal/domain"

	"github.com/stretchr/testify/mock"
)

// fakeGateway отдает заранее заданные каналы и ошибку через потоки, как настоящий шлюз.
type fakeGateway struct {
	channels []domain.Channel
	err      error
	calls    int
}

func (g *fakeGateway) LoadChannel(ctx context.Context, url string) (<-chan domain.Channel, <-chan error) {
	g.calls++
	stream := make(chan domain.Channel)
	errs := make(chan error, 1)
	go func() {
		for _, ch := range g.channels {
			stream <- ch
		}
		close(stream)
		if g.err != nil {
			errs <- g.err
		}
		close(errs)
	}()
	return stream, errs
}

type mockOutput struct {
	mock.Mock
}

func (m *mockOutput) OnLoaded(response domain.LoadFeedResponse) {
	m.Called(response)
}

func (m *mockOutput) OnFailed(err *domain.FeedLoadError) {
	m.Called(err)
}

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, request domain.LoadFeedRequest) (domain.LoadFeedResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(domain.LoadFeedResponse), args.Error(1)
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) SaveChannels(ctx context.Context, feedURL string, channels []domain.Channel) (int, error) {
	args := m.Called(ctx, feedURL, channels)
	return args.Int(0), args.Error(1)
}

type mockItems struct {
	mock.Mock
}

func (m *mockItems) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ArchivedItem, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]domain.ArchivedItem)
	return items, args.Error(1)
}
