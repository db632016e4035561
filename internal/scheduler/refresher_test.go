package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/rs/zerolog"
)

type scriptedSource struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *scriptedSource) RefreshUpcoming(context.Context) ([]domain.UpcomingFixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return []domain.UpcomingFixture{{League: "Turkish Super Lig"}}, nil
}

func immediate(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestRefreshRetriesUntilSuccess(t *testing.T) {
	down := errors.New("directory down")
	src := &scriptedSource{errs: []error{down, down, nil}}
	r := NewRefresher(src, Config{MaxRetries: 3}, zerolog.Nop())
	r.after = immediate

	var got []domain.UpcomingFixture
	r.OnRefresh(func(f []domain.UpcomingFixture) { got = f })

	if !r.refreshWithRetry(context.Background()) {
		t.Fatal("expected refresh to succeed on the third attempt")
	}
	if src.calls != 3 {
		t.Errorf("calls = %d", src.calls)
	}
	if len(got) != 1 {
		t.Errorf("callback got %+v", got)
	}
}

func TestRefreshCountsConsecutiveFailures(t *testing.T) {
	down := errors.New("directory down")
	src := &scriptedSource{errs: []error{down, down, down, down}}
	r := NewRefresher(src, Config{MaxRetries: 2, MaxConsecutiveErrors: 2, Backoff: time.Hour}, zerolog.Nop())

	var waits []time.Duration
	r.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		return immediate(d)
	}

	r.refreshWithRetry(context.Background())
	r.refreshWithRetry(context.Background())

	if r.consecutiveErrors != 2 {
		t.Errorf("consecutive errors = %d", r.consecutiveErrors)
	}
	// one retry delay per round, then the backoff after the second round
	want := []time.Duration{5 * time.Second, 5 * time.Second, time.Hour}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v", waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}

	r.refreshWithRetry(context.Background())
	if r.consecutiveErrors != 0 {
		t.Errorf("success should reset the error count, got %d", r.consecutiveErrors)
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	src := &scriptedSource{}
	r := NewRefresher(src, Config{Interval: time.Hour}, zerolog.Nop())

	refreshed := make(chan struct{}, 1)
	r.OnRefresh(func([]domain.UpcomingFixture) { refreshed <- struct{}{} })

	r.Start(context.Background())
	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh on start")
	}
	r.Stop()
}
