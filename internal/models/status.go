package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/receipts/internal/shared"
)

// ExpiringSoonWindow is how close to expiry a warranty counts as expiring soon.
const ExpiringSoonWindow = 7 * 24 * time.Hour

// WarrantyStatus is derived from a record's expiry date; it is never stored.
type WarrantyStatus string

const (
	StatusValid        WarrantyStatus = "VALID"
	StatusExpiringSoon WarrantyStatus = "EXPIRING_SOON"
	StatusExpired      WarrantyStatus = "EXPIRED"
	StatusNoWarranty   WarrantyStatus = "NO_WARRANTY"
)

// Label is the short form used in listings.
func (s WarrantyStatus) Label() string {
	switch s {
	case StatusValid:
		return "Valid"
	case StatusExpiringSoon:
		return "Expiring"
	case StatusExpired:
		return "Expired"
	default:
		return "No Warranty"
	}
}

// WarrantyFilter selects a subset of records for listing.
type WarrantyFilter string

const (
	FilterAll          WarrantyFilter = "ALL"
	FilterReceipts     WarrantyFilter = "ALL_RECEIPTS"
	FilterWarranties   WarrantyFilter = "ALL_WARRANTIES"
	FilterExpiringSoon WarrantyFilter = "EXPIRING_SOON"
	FilterExpired      WarrantyFilter = "EXPIRED"
)

// Filters lists every [WarrantyFilter].
var Filters = []WarrantyFilter{FilterAll, FilterReceipts, FilterWarranties, FilterExpiringSoon, FilterExpired}

// ParseWarrantyFilter accepts the symbolic name in any case; empty means [FilterAll].
func ParseWarrantyFilter(s string) (WarrantyFilter, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: filter %q", shared.ErrUnknownEnumValue, s)
}

// FilterByStatus keeps the records matching filter at now (epoch millis). Order is preserved.
func FilterByStatus(items []ReceiptWarranty, filter WarrantyFilter, now int64) []ReceiptWarranty {
	if filter == FilterAll || filter == "" {
		return items
	}

	out := make([]ReceiptWarranty, 0, len(items))
	for _, item := range items {
		var keep bool
		switch filter {
		case FilterReceipts:
			keep = item.Kind == KindReceipt
		case FilterWarranties:
			keep = item.Kind == KindWarranty
		case FilterExpiringSoon:
			keep = item.Kind == KindWarranty && item.Status(now) == StatusExpiringSoon
		case FilterExpired:
			keep = item.Kind == KindWarranty && item.Status(now) == StatusExpired
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}
