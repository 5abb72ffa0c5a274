package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingProcessor struct {
	mu       sync.Mutex
	seen     []string
	failures map[string]bool
	active   atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (p *countingProcessor) ProcessFeed(ctx context.Context, url string) error {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	p.seen = append(p.seen, url)
	p.mu.Unlock()
	if p.failures[url] {
		return errors.New("feed unavailable")
	}
	return nil
}

func (p *countingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_ProcessAll_CountsOutcomes(t *testing.T) {
	p := &countingProcessor{failures: map[string]bool{"http://b": true}}
	w := New(p, []string{"http://a", "http://b", "http://c"}, time.Hour, 2, discardLogger())

	stats := w.ProcessAll(context.Background())

	assert.Equal(t, CycleStats{Successful: 2, Errors: 1}, stats)
	assert.ElementsMatch(t, []string{"http://a", "http://b", "http://c"}, p.seen)
}

func TestWorker_ProcessAll_RespectsConcurrencyLimit(t *testing.T) {
	p := &countingProcessor{delay: 20 * time.Millisecond}
	urls := []string{"http://1", "http://2", "http://3", "http://4", "http://5", "http://6"}
	w := New(p, urls, time.Hour, 2, discardLogger())

	stats := w.ProcessAll(context.Background())

	assert.Equal(t, int64(6), stats.Successful)
	assert.LessOrEqual(t, p.peak.Load(), int32(2))
}

func TestWorker_ProcessAll_CancelledContextSkipsFeeds(t *testing.T) {
	p := &countingProcessor{}
	w := New(p, []string{"http://a", "http://b"}, time.Hour, 1, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := w.ProcessAll(ctx)

	assert.Equal(t, CycleStats{}, stats)
	assert.Zero(t, p.count())
}

func TestWorker_StartStop(t *testing.T) {
	p := &countingProcessor{}
	w := New(p, []string{"http://a"}, time.Hour, 0, discardLogger())

	w.Start()
	w.Start()
	assert.Eventually(t, func() bool { return p.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	w.Stop()
	w.Stop()

	assert.Equal(t, 1, p.count())
}

func TestWorker_Getters(t *testing.T) {
	w := New(nil, []string{"http://a"}, 3*time.Minute, 4, discardLogger())

	assert.Equal(t, []string{"http://a"}, w.GetURLs())
	assert.Equal(t, 3*time.Minute, w.GetInterval())
}
