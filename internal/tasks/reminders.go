package tasks

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/receipts/internal/models"
)

// DefaultReminder applies to warranties that have an expiry date but no reminder choice.
const DefaultReminder = models.ReminderOneWeek

// Reminder is one pending warranty notification.
type Reminder struct {
	ItemID     int64
	Title      string
	Expiry     int64 // epoch millis
	DaysBefore int
	At         int64 // epoch millis when the reminder is due
}

// Message is the notification text.
func (r Reminder) Message() string {
	var when string
	switch r.DaysBefore {
	case 1:
		when = "tomorrow"
	default:
		when = fmt.Sprintf("in %d days", r.DaysBefore)
	}
	return fmt.Sprintf("Warranty for %q expires %s. Check now?", r.Title, when)
}

// ReminderFor computes the reminder for item. ok is false without an expiry date or when the reminder time is not after now.
func ReminderFor(item models.ReceiptWarranty, now int64) (Reminder, bool) {
	if item.WarrantyExpiryDate == nil {
		return Reminder{}, false
	}

	days := DefaultReminder
	if item.ReminderDays != nil && item.ReminderDays.Valid() {
		days = *item.ReminderDays
	}
	item.ReminderDays = &days

	at, ok := item.ReminderAt()
	if !ok || at <= now {
		return Reminder{}, false
	}

	return Reminder{
		ItemID:     item.ID,
		Title:      item.Title,
		Expiry:     *item.WarrantyExpiryDate,
		DaysBefore: days.Days(),
		At:         at,
	}, true
}

// PlanReminders returns the future reminders for items, soonest first.
func PlanReminders(items []models.ReceiptWarranty, now int64) []Reminder {
	reminders := make([]Reminder, 0, len(items))
	for _, item := range items {
		if r, ok := ReminderFor(item, now); ok {
			reminders = append(reminders, r)
		}
	}

	sort.Slice(reminders, func(i, j int) bool {
		if reminders[i].At != reminders[j].At {
			return reminders[i].At < reminders[j].At
		}
		return reminders[i].ItemID < reminders[j].ItemID
	})
	return reminders
}

// Reminders plans reminders for every record that has one set.
func (e *Engine) Reminders(ctx context.Context, prog chan<- ProgressUpdate, now int64) ([]Reminder, error) {
	if err := e.requireReader(); err != nil {
		return nil, err
	}

	items, err := e.reader.ItemsWithReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read reminders: %w", err)
	}

	reminders := PlanReminders(items, now)
	e.sendProgress(prog, remindersUpdate(len(reminders)))
	return reminders, nil
}

// maxScheduleAhead is the longest timer a [ReminderScheduler] arms; a millisecond delay beyond it overflows [time.Duration].
const maxScheduleAhead = time.Duration(math.MaxInt64)

// ReminderScheduler fires a callback when each scheduled reminder comes due.
//
// Scheduling an item again replaces its earlier timer.
type ReminderScheduler struct {
	mu     sync.Mutex
	timers map[int64]*time.Timer
	notify func(Reminder)
	now    func() int64
	logger *log.Logger
}

// NewReminderScheduler creates a scheduler that calls notify from its own goroutine for each due reminder.
func NewReminderScheduler(notify func(Reminder), logger *log.Logger) *ReminderScheduler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ReminderScheduler{
		timers: make(map[int64]*time.Timer),
		notify: notify,
		now:    models.NowMillis,
		logger: logger,
	}
}

// Schedule arms a timer for item and reports whether one was armed.
// Any earlier timer for the same item is cancelled first.
func (s *ReminderScheduler) Schedule(item models.ReceiptWarranty) bool {
	s.Cancel(item.ID)

	r, ok := ReminderFor(item, s.now())
	if !ok {
		return false
	}

	ahead := r.At - s.now()
	if ahead > maxScheduleAhead.Milliseconds() {
		s.logger.Warn("reminder too far ahead to schedule", "id", r.ItemID, "at", r.At)
		return false
	}
	delay := time.Duration(ahead) * time.Millisecond

	s.mu.Lock()
	defer s.mu.Unlock()

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[r.ItemID] == timer {
			delete(s.timers, r.ItemID)
		}
		s.mu.Unlock()
		s.notify(r)
	})
	s.timers[r.ItemID] = timer

	s.logger.Debug("reminder scheduled", "id", r.ItemID, "at", models.FromMillis(r.At))
	return true
}

// Cancel stops the pending timer for id, if any.
func (s *ReminderScheduler) Cancel(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}

// Sync makes the armed timers match items: each item is rescheduled and ids no longer present are cancelled.
func (s *ReminderScheduler) Sync(items []models.ReceiptWarranty) {
	present := make(map[int64]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
		s.Schedule(item)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		if !present[id] {
			timer.Stop()
			delete(s.timers, id)
		}
	}
}

// Pending is the number of armed timers.
func (s *ReminderScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending timer.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
