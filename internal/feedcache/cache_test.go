package feedcache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sharpagents/linesight/internal/domain"
)

type fakeAdapter struct {
	name    string
	delay   time.Duration
	mu      sync.Mutex
	calls   int32
	failNow bool
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) FetchRaw(ctx context.Context) ([]domain.RawPayload, domain.FeedMeta, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, domain.FeedMeta{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	f.mu.Lock()
	fail := f.failNow
	f.mu.Unlock()
	if fail {
		return nil, domain.FeedMeta{}, errors.New("upstream down")
	}
	n := atomic.LoadInt32(&f.calls)
	return []domain.RawPayload{{"call": int(n)}}, domain.FeedMeta{}, nil
}

func (f *fakeAdapter) setFail(fail bool) {
	f.mu.Lock()
	f.failNow = fail
	f.mu.Unlock()
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetServesCachedWithinTTL(t *testing.T) {
	a := &fakeAdapter{name: "theodds"}
	c := New([]domain.VenueAdapter{a}, Options{TTL: time.Minute, MinInterval: time.Nanosecond}, testLog())

	ctx := context.Background()
	first, err := c.Get(ctx, "theodds")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Get(ctx, "theodds")
	if err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&a.calls); got != 1 {
		t.Errorf("adapter called %d times, want 1", got)
	}
	if first[0]["call"] != second[0]["call"] {
		t.Error("second call did not reuse the cached payload")
	}
}

func TestGetRefetchesAfterTTL(t *testing.T) {
	a := &fakeAdapter{name: "theodds"}
	c := New([]domain.VenueAdapter{a}, Options{TTL: 20 * time.Millisecond, MinInterval: time.Nanosecond}, testLog())

	ctx := context.Background()
	if _, err := c.Get(ctx, "theodds"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := c.Get(ctx, "theodds"); err != nil {
		t.Fatal(err)
	}
	if got := atomic.LoadInt32(&a.calls); got != 2 {
		t.Errorf("adapter called %d times, want 2", got)
	}
}

func TestGetSingleFlight(t *testing.T) {
	a := &fakeAdapter{name: "theodds", delay: 50 * time.Millisecond}
	c := New([]domain.VenueAdapter{a}, Options{TTL: time.Minute, MinInterval: time.Nanosecond}, testLog())

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(ctx, "theodds"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&a.calls); got != 1 {
		t.Errorf("adapter called %d times under concurrency, want 1", got)
	}
}

func TestGetWaitersSurviveCallerDeadline(t *testing.T) {
	a := &fakeAdapter{name: "theodds", delay: 50 * time.Millisecond}
	c := New([]domain.VenueAdapter{a}, Options{TTL: time.Minute, MinInterval: time.Nanosecond}, testLog())

	// The first caller starts the fetch with a deadline shorter than the
	// upstream latency; a patient second caller joins the same flight.
	short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		_, err := c.Get(short, "theodds")
		errc <- err
	}()
	time.Sleep(5 * time.Millisecond)

	payloads, err := c.Get(context.Background(), "theodds")
	if err != nil {
		t.Fatalf("patient caller failed: %v", err)
	}
	if len(payloads) == 0 {
		t.Fatal("patient caller got no payloads")
	}
	if err := <-errc; !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("impatient caller err = %v, want DeadlineExceeded", err)
	}
	if got := atomic.LoadInt32(&a.calls); got != 1 {
		t.Errorf("adapter called %d times, want 1 shared fetch", got)
	}
}

func TestGetServesStaleWithinGrace(t *testing.T) {
	a := &fakeAdapter{name: "theodds"}
	c := New([]domain.VenueAdapter{a}, Options{
		TTL:         20 * time.Millisecond,
		Grace:       time.Minute,
		MinInterval: time.Nanosecond,
	}, testLog())

	ctx := context.Background()
	first, err := c.Get(ctx, "theodds")
	if err != nil {
		t.Fatal(err)
	}

	a.setFail(true)
	time.Sleep(30 * time.Millisecond)

	stale, err := c.Get(ctx, "theodds")
	if err != nil {
		t.Fatalf("expected stale payloads, got error: %v", err)
	}
	if stale[0]["call"] != first[0]["call"] {
		t.Error("stale payload does not match original")
	}
}

func TestGetFailsBeyondGrace(t *testing.T) {
	a := &fakeAdapter{name: "theodds"}
	c := New([]domain.VenueAdapter{a}, Options{
		TTL:         10 * time.Millisecond,
		Grace:       20 * time.Millisecond,
		MinInterval: time.Nanosecond,
	}, testLog())

	ctx := context.Background()
	if _, err := c.Get(ctx, "theodds"); err != nil {
		t.Fatal(err)
	}

	a.setFail(true)
	time.Sleep(40 * time.Millisecond)

	if _, err := c.Get(ctx, "theodds"); !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Errorf("err = %v, want ErrFeedUnavailable", err)
	}
}

func TestGetUnknownFeed(t *testing.T) {
	c := New(nil, Options{}, testLog())
	if _, err := c.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrFeedUnavailable) {
		t.Errorf("err = %v, want ErrFeedUnavailable", err)
	}
}

func TestPaceSpacesCalls(t *testing.T) {
	a := &fakeAdapter{name: "a"}
	b := &fakeAdapter{name: "b"}
	c := New([]domain.VenueAdapter{a, b}, Options{TTL: time.Minute, MinInterval: 40 * time.Millisecond}, testLog())

	ctx := context.Background()
	start := time.Now()
	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("second fetch after %v, want at least the 40ms interval", elapsed)
	}
}

func TestPaceHonorsContext(t *testing.T) {
	a := &fakeAdapter{name: "a"}
	b := &fakeAdapter{name: "b"}
	c := New([]domain.VenueAdapter{a, b}, Options{TTL: time.Minute, MinInterval: time.Minute}, testLog())

	ctx := context.Background()
	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := c.Get(short, "b"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}
