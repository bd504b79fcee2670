package live

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/receipts/internal/shared"
	"golang.org/x/time/rate"
)

// Observer is one registration on a [Tracker]. Its signal channel holds at most one pending
// invalidation, so bursts of writes collapse into a single wake-up.
type Observer struct {
	ID     string
	Table  string
	signal chan struct{}
}

// Signals fires after each committed change to the observed table.
func (o *Observer) Signals() <-chan struct{} {
	return o.signal
}

// TrackerOpts configures a [Tracker].
type TrackerOpts struct {
	Logger              *log.Logger
	MaxRefreshPerSecond float64 // per-query re-execution cap; 0 disables throttling
}

// Tracker maps table names to the observers watching them.
type Tracker struct {
	mu        sync.RWMutex
	observers map[string]map[string]*Observer
	limit     rate.Limit
	logger    *log.Logger
}

// NewTracker creates an empty [Tracker].
func NewTracker(opts TrackerOpts) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Tracker{
		observers: make(map[string]map[string]*Observer),
		limit:     rate.Limit(opts.MaxRefreshPerSecond),
		logger:    shared.WithLogger(logger, "component", "tracker"),
	}
}

// Subscribe registers a new observer of table.
func (t *Tracker) Subscribe(table string) *Observer {
	o := &Observer{
		ID:     shared.GenerateID(),
		Table:  table,
		signal: make(chan struct{}, 1),
	}

	t.mu.Lock()
	if t.observers[table] == nil {
		t.observers[table] = make(map[string]*Observer)
	}
	t.observers[table][o.ID] = o
	count := len(t.observers[table])
	t.mu.Unlock()

	t.logger.Debug("observer subscribed", "table", table, "id", o.ID, "total", count)
	return o
}

// Unsubscribe removes o. Unknown or already removed observers are ignored.
func (t *Tracker) Unsubscribe(o *Observer) {
	if o == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	observers, ok := t.observers[o.Table]
	if !ok {
		return
	}
	if _, ok := observers[o.ID]; !ok {
		return
	}

	delete(observers, o.ID)
	if len(observers) == 0 {
		delete(t.observers, o.Table)
	}
	t.logger.Debug("observer unsubscribed", "table", o.Table, "id", o.ID)
}

// Invalidate signals every observer of the given tables. It never blocks: an observer with a
// pending signal keeps just that one.
func (t *Tracker) Invalidate(tables ...string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, table := range tables {
		for _, o := range t.observers[table] {
			select {
			case o.signal <- struct{}{}:
			default:
			}
		}
		t.logger.Debug("table invalidated", "table", table, "observers", len(t.observers[table]))
	}
}

// ObserverCount reports how many observers watch table.
func (t *Tracker) ObserverCount(table string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.observers[table])
}

// newLimiter returns the per-query throttle, or nil when throttling is off.
func (t *Tracker) newLimiter() *rate.Limiter {
	if t.limit <= 0 {
		return nil
	}
	return rate.NewLimiter(t.limit, 1)
}
