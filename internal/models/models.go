// package models defines the receipt and warranty records and the interfaces used to reach them
package models

import (
	"context"
	"time"
)

// Model defines the base interface for persistent records.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Criteria narrows a listing. Zero values match everything.
type Criteria struct {
	Kind     Kind    // RECEIPT or WARRANTY
	Category *string // exact category match
	Query    string  // case-insensitive substring of title, company, notes or category
	Limit    uint64  // 0 for no limit
}

// Reader is the read side of the record store, as consumed by export and reporting.
type Reader interface {
	List(ctx context.Context) ([]ReceiptWarranty, error)
	Get(ctx context.Context, id int64) (*ReceiptWarranty, error)
	Find(ctx context.Context, c Criteria) ([]ReceiptWarranty, error)
	ExportAll(ctx context.Context) ([]ReceiptWarranty, error)
	ItemsWithReminders(ctx context.Context) ([]ReceiptWarranty, error)
	ExpiringSoonItems(ctx context.Context, now int64, threshold time.Duration) ([]ReceiptWarranty, error)
	CategoryStats(ctx context.Context) ([]CategoryCount, error)
}

// Writer is the write side of the record store.
type Writer interface {
	Insert(ctx context.Context, r *ReceiptWarranty) (int64, error)
	Update(ctx context.Context, r *ReceiptWarranty) error
	Delete(ctx context.Context, r *ReceiptWarranty) error
	DeleteByID(ctx context.Context, id int64) error
}

// Store combines [Reader] and [Writer].
type Store interface {
	Reader
	Writer
}

// Summary is the dashboard view of the store at one instant.
type Summary struct {
	Total        int64           `json:"total"`
	Receipts     int64           `json:"receipts"`
	Warranties   int64           `json:"warranties"`
	Active       int64           `json:"active"`
	ExpiringSoon int64           `json:"expiring_soon"`
	Expired      int64           `json:"expired"`
	Categories   []CategoryCount `json:"categories"`
}
