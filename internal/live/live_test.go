package live

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

const table = "receipt_warranty"

func next[T any](t *testing.T, q *Query[T]) Snapshot[T] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	snap, ok, err := Collect(ctx, q)
	if err != nil {
		t.Fatalf("timed out waiting for snapshot: %v", err)
	}
	if !ok {
		t.Fatal("query closed unexpectedly")
	}
	return snap
}

func TestTracker(t *testing.T) {
	t.Run("Subscribe and Unsubscribe", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		a := tr.Subscribe(table)
		b := tr.Subscribe(table)

		if a.ID == b.ID {
			t.Error("observer ids should be unique")
		}
		if got := tr.ObserverCount(table); got != 2 {
			t.Errorf("expected 2 observers, got %d", got)
		}

		tr.Unsubscribe(a)
		tr.Unsubscribe(a)
		if got := tr.ObserverCount(table); got != 1 {
			t.Errorf("expected 1 observer, got %d", got)
		}

		tr.Unsubscribe(b)
		tr.Unsubscribe(nil)
		if got := tr.ObserverCount(table); got != 0 {
			t.Errorf("expected 0 observers, got %d", got)
		}
	})

	t.Run("Invalidate coalesces", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		o := tr.Subscribe(table)

		tr.Invalidate(table)
		tr.Invalidate(table)
		tr.Invalidate(table)

		select {
		case <-o.Signals():
		default:
			t.Fatal("expected a pending signal")
		}

		select {
		case <-o.Signals():
			t.Fatal("signals should coalesce into one")
		default:
		}
	})

	t.Run("Invalidate other table", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		o := tr.Subscribe(table)

		tr.Invalidate("other")

		select {
		case <-o.Signals():
			t.Fatal("observer should not be signalled for another table")
		default:
		}
	})

	t.Run("Invalidate without observers", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		tr.Invalidate(table)
	})
}

func TestWatch(t *testing.T) {
	t.Run("Initial and refreshed snapshots", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		var value atomic.Int64
		value.Store(1)

		q := Watch(context.Background(), tr, table, func(context.Context) (int64, error) {
			return value.Load(), nil
		})
		defer q.Close()

		if snap := next(t, q); snap.Value != 1 || snap.Err != nil {
			t.Errorf("unexpected initial snapshot: %+v", snap)
		}

		value.Store(2)
		tr.Invalidate(table)

		if snap := next(t, q); snap.Value != 2 {
			t.Errorf("expected refreshed value 2, got %d", snap.Value)
		}
	})

	t.Run("Subscribes before first fetch", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		q := Watch(context.Background(), tr, table, func(context.Context) (int, error) { return 0, nil })
		defer q.Close()

		if got := tr.ObserverCount(table); got != 1 {
			t.Errorf("expected observer to be registered immediately, got %d", got)
		}
	})

	t.Run("Fetch error ends query", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		boom := errors.New("boom")

		q := Watch(context.Background(), tr, table, func(context.Context) (int, error) {
			return 0, boom
		})

		snap := next(t, q)
		if !errors.Is(snap.Err, boom) {
			t.Errorf("expected fetch error, got %v", snap.Err)
		}

		select {
		case _, ok := <-q.Updates():
			if ok {
				t.Error("expected updates channel to close after an error")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("query did not end after fetch error")
		}

		<-q.Done()
		if got := tr.ObserverCount(table); got != 0 {
			t.Errorf("expected observer to be released, got %d", got)
		}
	})

	t.Run("Close releases subscription", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		q := Watch(context.Background(), tr, table, func(context.Context) (int, error) { return 1, nil })

		next(t, q)
		q.Close()
		q.Close()

		if _, ok := <-q.Updates(); ok {
			t.Error("expected updates channel to be closed")
		}
		if got := tr.ObserverCount(table); got != 0 {
			t.Errorf("expected 0 observers after close, got %d", got)
		}
	})

	t.Run("Close without reading", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		q := Watch(context.Background(), tr, table, func(context.Context) (int, error) { return 1, nil })
		q.Close()

		if got := tr.ObserverCount(table); got != 0 {
			t.Errorf("expected 0 observers after close, got %d", got)
		}
	})

	t.Run("Context cancel ends query", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{})
		ctx, cancel := context.WithCancel(context.Background())
		q := Watch(ctx, tr, table, func(context.Context) (int, error) { return 1, nil })

		next(t, q)
		cancel()

		select {
		case <-q.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("query did not stop after cancel")
		}
	})

	t.Run("Throttled refresh still delivers", func(t *testing.T) {
		tr := NewTracker(TrackerOpts{MaxRefreshPerSecond: 50})
		var calls atomic.Int32

		q := Watch(context.Background(), tr, table, func(context.Context) (int32, error) {
			return calls.Add(1), nil
		})
		defer q.Close()

		next(t, q)
		tr.Invalidate(table)
		if snap := next(t, q); snap.Value != 2 {
			t.Errorf("expected second fetch, got %d", snap.Value)
		}
	})
}
