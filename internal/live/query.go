package live

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Snapshot is one result of a live query.
type Snapshot[T any] struct {
	Value T
	Err   error
	At    time.Time
}

// Fetcher runs the read behind a live query.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query is a running live query. Receive from [Query.Updates] until it is closed.
type Query[T any] struct {
	updates chan Snapshot[T]
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Watch subscribes to table and starts delivering snapshots of fetch: the current result first,
// then one result per (coalesced) invalidation.
//
// The subscription is made before the first fetch so no commit can fall between them.
// A fetch error is delivered once and ends the query. Cancelling ctx or calling [Query.Close]
// unsubscribes and closes the updates channel.
func Watch[T any](ctx context.Context, tracker *Tracker, table string, fetch Fetcher[T]) *Query[T] {
	ctx, cancel := context.WithCancel(ctx)
	q := &Query[T]{
		updates: make(chan Snapshot[T]),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	obs := tracker.Subscribe(table)
	go q.run(ctx, tracker, obs, tracker.newLimiter(), fetch)
	return q
}

// Updates delivers snapshots in commit order. It is closed when the query ends.
func (q *Query[T]) Updates() <-chan Snapshot[T] {
	return q.updates
}

// Done is closed once the query has stopped and released its subscription.
func (q *Query[T]) Done() <-chan struct{} {
	return q.done
}

// Close stops the query and waits for it to release its subscription. Safe to call more than once.
func (q *Query[T]) Close() {
	q.once.Do(q.cancel)
	<-q.done
}

func (q *Query[T]) run(ctx context.Context, tracker *Tracker, obs *Observer, limiter *rate.Limiter, fetch Fetcher[T]) {
	defer close(q.done)
	defer close(q.updates)
	defer tracker.Unsubscribe(obs)

	if !q.emit(ctx, fetch) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-obs.Signals():
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			if !q.emit(ctx, fetch) {
				return
			}
		}
	}
}

// emit fetches and delivers one snapshot. It reports whether the query should keep running.
func (q *Query[T]) emit(ctx context.Context, fetch Fetcher[T]) bool {
	value, err := fetch(ctx)
	if ctx.Err() != nil {
		return false
	}

	snap := Snapshot[T]{Value: value, Err: err, At: time.Now()}
	select {
	case q.updates <- snap:
	case <-ctx.Done():
		return false
	}
	return err == nil
}

// Collect reads the next snapshot, or returns ctx's error if it ends first.
// A closed query yields ok=false.
func Collect[T any](ctx context.Context, q *Query[T]) (snap Snapshot[T], ok bool, err error) {
	select {
	case snap, ok = <-q.Updates():
		return snap, ok, nil
	case <-ctx.Done():
		return snap, false, ctx.Err()
	}
}
