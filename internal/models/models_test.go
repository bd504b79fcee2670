package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/receipts/internal/shared"
)

const day = int64(24 * time.Hour / time.Millisecond)

func TestEnums(t *testing.T) {
	t.Run("ParseKind", func(t *testing.T) {
		for _, k := range Kinds {
			got, err := ParseKind(string(k))
			if err != nil || got != k {
				t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
			}
		}

		if _, err := ParseKind("receipt"); !errors.Is(err, shared.ErrUnknownEnumValue) {
			t.Errorf("expected ErrUnknownEnumValue for lowercase kind, got %v", err)
		}
		if _, err := ParseKind(""); !errors.Is(err, shared.ErrUnknownEnumValue) {
			t.Errorf("expected ErrUnknownEnumValue for empty kind, got %v", err)
		}
	})

	t.Run("ParseReminderDays", func(t *testing.T) {
		for _, r := range Reminders {
			got, err := ParseReminderDays(string(r))
			if err != nil || got != r {
				t.Errorf("ParseReminderDays(%q) = %q, %v", r, got, err)
			}
		}

		if _, err := ParseReminderDays("TWO_DAYS"); !errors.Is(err, shared.ErrUnknownEnumValue) {
			t.Errorf("expected ErrUnknownEnumValue, got %v", err)
		}
	})

	t.Run("ReminderDays values", func(t *testing.T) {
		tests := []struct {
			r       ReminderDays
			days    int
			display string
		}{
			{ReminderOneDay, 1, "1 day before"},
			{ReminderThreeDays, 3, "3 days before"},
			{ReminderFiveDays, 5, "5 days before"},
			{ReminderOneWeek, 7, "1 week before"},
		}

		for _, tt := range tests {
			if tt.r.Days() != tt.days {
				t.Errorf("%s: expected %d days, got %d", tt.r, tt.days, tt.r.Days())
			}
			if tt.r.DisplayName() != tt.display {
				t.Errorf("%s: expected %q, got %q", tt.r, tt.display, tt.r.DisplayName())
			}
			if tt.r.Duration() != time.Duration(tt.days)*24*time.Hour {
				t.Errorf("%s: unexpected duration %v", tt.r, tt.r.Duration())
			}
		}
	})

	t.Run("ParseWarrantyFilter", func(t *testing.T) {
		got, err := ParseWarrantyFilter("expiring_soon")
		if err != nil || got != FilterExpiringSoon {
			t.Errorf("expected EXPIRING_SOON, got %q, %v", got, err)
		}

		got, err = ParseWarrantyFilter("")
		if err != nil || got != FilterAll {
			t.Errorf("expected ALL for empty filter, got %q, %v", got, err)
		}

		if _, err := ParseWarrantyFilter("soon"); !errors.Is(err, shared.ErrUnknownEnumValue) {
			t.Errorf("expected ErrUnknownEnumValue, got %v", err)
		}
	})
}

func TestReceiptWarranty(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		valid := NewReceiptWarranty(KindWarranty, "Laptop", "Acme")
		if err := valid.Validate(); err != nil {
			t.Fatalf("expected valid record, got %v", err)
		}
		if valid.CreatedAt == 0 {
			t.Error("expected CreatedAt to be set")
		}

		tests := []struct {
			name   string
			mutate func(r *ReceiptWarranty)
			want   error
		}{
			{"bad kind", func(r *ReceiptWarranty) { r.Kind = "INVOICE" }, shared.ErrUnknownEnumValue},
			{"bad reminder", func(r *ReceiptWarranty) { r.ReminderDays = Ptr(ReminderDays("SOMEDAY")) }, shared.ErrUnknownEnumValue},
			{"blank title", func(r *ReceiptWarranty) { r.Title = "  " }, shared.ErrInvalidInput},
			{"blank company", func(r *ReceiptWarranty) { r.Company = "" }, shared.ErrInvalidInput},
			{"negative id", func(r *ReceiptWarranty) { r.ID = -1 }, shared.ErrInvalidInput},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := NewReceiptWarranty(KindReceipt, "Laptop", "Acme")
				tt.mutate(r)
				if err := r.Validate(); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}

		var nilRecord *ReceiptWarranty
		if err := nilRecord.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for nil record, got %v", err)
		}
	})

	t.Run("Status", func(t *testing.T) {
		now := int64(1_000_000_000_000)
		tests := []struct {
			name   string
			expiry *int64
			want   WarrantyStatus
		}{
			{"no expiry", nil, StatusNoWarranty},
			{"past", Ptr(now - 1), StatusExpired},
			{"now", Ptr(now), StatusExpiringSoon},
			{"within week", Ptr(now + 3*day), StatusExpiringSoon},
			{"exactly a week", Ptr(now + 7*day), StatusExpiringSoon},
			{"beyond week", Ptr(now + 7*day + 1), StatusValid},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := &ReceiptWarranty{WarrantyExpiryDate: tt.expiry}
				if got := r.Status(now); got != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got)
				}
			})
		}
	})

	t.Run("ReminderAt", func(t *testing.T) {
		r := &ReceiptWarranty{WarrantyExpiryDate: Ptr(10 * day), ReminderDays: Ptr(ReminderThreeDays)}
		at, ok := r.ReminderAt()
		if !ok || at != 7*day {
			t.Errorf("expected reminder at %d, got %d (%t)", 7*day, at, ok)
		}

		r.ReminderDays = nil
		if _, ok := r.ReminderAt(); ok {
			t.Error("expected no reminder without reminderDays")
		}
	})

	t.Run("Deref", func(t *testing.T) {
		if Deref[string](nil) != "" {
			t.Error("expected zero value for nil pointer")
		}
		if Deref(Ptr("x")) != "x" {
			t.Error("expected dereferenced value")
		}
	})
}

func TestFilters(t *testing.T) {
	now := int64(1_000_000_000_000)
	items := []ReceiptWarranty{
		{ID: 1, Kind: KindReceipt, Title: "Groceries", Category: Ptr("Food")},
		{ID: 2, Kind: KindWarranty, Title: "TV", Category: Ptr("Electronics"), WarrantyExpiryDate: Ptr(now + 2*day)},
		{ID: 3, Kind: KindWarranty, Title: "Fridge", Category: Ptr("Appliances"), WarrantyExpiryDate: Ptr(now - day)},
		{ID: 4, Kind: KindWarranty, Title: "Phone", Category: Ptr("Electronics"), WarrantyExpiryDate: Ptr(now + 90*day)},
		{ID: 5, Kind: KindReceipt, Title: "Coffee", WarrantyExpiryDate: Ptr(now + day)},
	}

	ids := func(items []ReceiptWarranty) []int64 {
		out := make([]int64, 0, len(items))
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	equal := func(a, b []int64) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	t.Run("FilterByStatus", func(t *testing.T) {
		tests := []struct {
			filter WarrantyFilter
			want   []int64
		}{
			{FilterAll, []int64{1, 2, 3, 4, 5}},
			{FilterReceipts, []int64{1, 5}},
			{FilterWarranties, []int64{2, 3, 4}},
			{FilterExpiringSoon, []int64{2}},
			{FilterExpired, []int64{3}},
		}

		for _, tt := range tests {
			if got := ids(FilterByStatus(items, tt.filter, now)); !equal(got, tt.want) {
				t.Errorf("%s: expected %v, got %v", tt.filter, tt.want, got)
			}
		}
	})
}
