package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/receipts/internal/shared"
)

// Kind distinguishes a plain purchase receipt from a warranty.
type Kind string

const (
	KindReceipt  Kind = "RECEIPT"
	KindWarranty Kind = "WARRANTY"
)

// Kinds lists every [Kind] in declaration order.
var Kinds = []Kind{KindReceipt, KindWarranty}

// ParseKind converts a stored symbol into a [Kind].
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: kind %q", shared.ErrUnknownEnumValue, s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	return k == KindReceipt || k == KindWarranty
}

func (k Kind) String() string {
	return string(k)
}

// ReminderDays is how long before warranty expiry a reminder fires.
type ReminderDays string

const (
	ReminderOneDay    ReminderDays = "ONE_DAY"
	ReminderThreeDays ReminderDays = "THREE_DAYS"
	ReminderFiveDays  ReminderDays = "FIVE_DAYS"
	ReminderOneWeek   ReminderDays = "ONE_WEEK"
)

// Reminders lists every [ReminderDays] from shortest to longest lead time.
var Reminders = []ReminderDays{ReminderOneDay, ReminderThreeDays, ReminderFiveDays, ReminderOneWeek}

// ParseReminderDays converts a stored symbol into a [ReminderDays].
func ParseReminderDays(s string) (ReminderDays, error) {
	r := ReminderDays(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: reminderDays %q", shared.ErrUnknownEnumValue, s)
	}
	return r, nil
}

func (r ReminderDays) Valid() bool {
	return r.Days() > 0
}

// Days is the lead time in whole days; 0 for an unknown value.
func (r ReminderDays) Days() int {
	switch r {
	case ReminderOneDay:
		return 1
	case ReminderThreeDays:
		return 3
	case ReminderFiveDays:
		return 5
	case ReminderOneWeek:
		return 7
	default:
		return 0
	}
}

// Duration is the lead time as a [time.Duration].
func (r ReminderDays) Duration() time.Duration {
	return time.Duration(r.Days()) * 24 * time.Hour
}

// DisplayName is the label shown to people, e.g. "3 days before".
func (r ReminderDays) DisplayName() string {
	switch r {
	case ReminderOneDay:
		return "1 day before"
	case ReminderOneWeek:
		return "1 week before"
	case ReminderThreeDays, ReminderFiveDays:
		return fmt.Sprintf("%d days before", r.Days())
	default:
		return ""
	}
}

func (r ReminderDays) String() string {
	return string(r)
}

// ReceiptWarranty is one row of the receipt_warranty table.
//
// Instants are epoch milliseconds. Nil pointers are SQL NULLs.
type ReceiptWarranty struct {
	ID                 int64         `json:"id"`
	Kind               Kind          `json:"type"`
	Title              string        `json:"title"`
	Company            string        `json:"company"`
	Category           *string       `json:"category,omitempty"`
	ImageURI           *string       `json:"imageUri,omitempty"`
	PurchaseDate       *int64        `json:"purchaseDate,omitempty"`
	WarrantyExpiryDate *int64        `json:"warrantyExpiryDate,omitempty"`
	ReminderDays       *ReminderDays `json:"reminderDays,omitempty"`
	Notes              *string       `json:"notes,omitempty"`
	CreatedAt          int64         `json:"createdAt"`
}

// NewReceiptWarranty builds a record with CreatedAt set to now. The ID stays 0 until inserted.
func NewReceiptWarranty(kind Kind, title, company string) *ReceiptWarranty {
	return &ReceiptWarranty{
		Kind:      kind,
		Title:     title,
		Company:   company,
		CreatedAt: NowMillis(),
	}
}

// Validate checks the fields that must hold before the record is written.
func (r *ReceiptWarranty) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", shared.ErrInvalidInput)
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: kind %q", shared.ErrUnknownEnumValue, r.Kind)
	}
	if r.ReminderDays != nil && !r.ReminderDays.Valid() {
		return fmt.Errorf("%w: reminderDays %q", shared.ErrUnknownEnumValue, *r.ReminderDays)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(r.Company) == "" {
		return fmt.Errorf("%w: company is required", shared.ErrInvalidInput)
	}
	if r.ID < 0 {
		return fmt.Errorf("%w: negative id %d", shared.ErrInvalidInput, r.ID)
	}
	return nil
}

// Status derives the warranty state at now (epoch millis).
func (r *ReceiptWarranty) Status(now int64) WarrantyStatus {
	if r.WarrantyExpiryDate == nil {
		return StatusNoWarranty
	}
	expiry := *r.WarrantyExpiryDate
	switch {
	case expiry < now:
		return StatusExpired
	case expiry-now <= ExpiringSoonWindow.Milliseconds():
		return StatusExpiringSoon
	default:
		return StatusValid
	}
}

// ReminderAt is when the reminder for this record is due, in epoch millis.
// ok is false unless both an expiry date and a reminder are set.
func (r *ReceiptWarranty) ReminderAt() (at int64, ok bool) {
	if r.WarrantyExpiryDate == nil || r.ReminderDays == nil || !r.ReminderDays.Valid() {
		return 0, false
	}
	return *r.WarrantyExpiryDate - r.ReminderDays.Duration().Milliseconds(), true
}

func (r *ReceiptWarranty) String() string {
	return fmt.Sprintf("#%d %s %q (%s)", r.ID, r.Kind, r.Title, r.Company)
}

// CategoryCount is one row of the per-category aggregate.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Ptr returns a pointer to v, for filling nullable fields.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// NowMillis is the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a UTC [time.Time].
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
