package repositories

import (
	"context"
	"time"

	"github.com/desertthunder/receipts/internal/live"
	"github.com/desertthunder/receipts/internal/models"
)

// Live variants of the read queries. Each delivers the current result, then a fresh one after every
// committed write to receipt_warranty, until the query is closed or ctx ends.
//
// Time-relative queries bind now once, when the query starts, exactly like the one-shot call would.

func watch[T any](ctx context.Context, r *ReceiptWarrantyRepository, fetch live.Fetcher[T]) *live.Query[T] {
	return live.Watch(ctx, r.tracker, tableName, fetch)
}

func (r *ReceiptWarrantyRepository) WatchAll(ctx context.Context) *live.Query[[]models.ReceiptWarranty] {
	return watch(ctx, r, r.List)
}

func (r *ReceiptWarrantyRepository) WatchByID(ctx context.Context, id int64) *live.Query[*models.ReceiptWarranty] {
	return watch(ctx, r, func(ctx context.Context) (*models.ReceiptWarranty, error) {
		return r.Get(ctx, id)
	})
}

func (r *ReceiptWarrantyRepository) WatchCompanies(ctx context.Context) *live.Query[[]string] {
	return watch(ctx, r, r.Companies)
}

func (r *ReceiptWarrantyRepository) WatchCategories(ctx context.Context) *live.Query[[]string] {
	return watch(ctx, r, r.Categories)
}

func (r *ReceiptWarrantyRepository) WatchByCategory(ctx context.Context, category string) *live.Query[[]models.ReceiptWarranty] {
	return watch(ctx, r, func(ctx context.Context) ([]models.ReceiptWarranty, error) {
		return r.ByCategory(ctx, category)
	})
}

func (r *ReceiptWarrantyRepository) WatchCategoryStats(ctx context.Context) *live.Query[[]models.CategoryCount] {
	return watch(ctx, r, r.CategoryStats)
}

func (r *ReceiptWarrantyRepository) WatchReceiptCount(ctx context.Context) *live.Query[int64] {
	return watch(ctx, r, r.ReceiptCount)
}

func (r *ReceiptWarrantyRepository) WatchWarrantyCount(ctx context.Context) *live.Query[int64] {
	return watch(ctx, r, r.WarrantyCount)
}

func (r *ReceiptWarrantyRepository) WatchActiveWarrantyCount(ctx context.Context, now int64) *live.Query[int64] {
	return watch(ctx, r, func(ctx context.Context) (int64, error) {
		return r.ActiveWarrantyCount(ctx, now)
	})
}

func (r *ReceiptWarrantyRepository) WatchExpiringSoonCount(ctx context.Context, now int64, threshold time.Duration) *live.Query[int64] {
	return watch(ctx, r, func(ctx context.Context) (int64, error) {
		return r.ExpiringSoonCount(ctx, now, threshold)
	})
}

func (r *ReceiptWarrantyRepository) WatchExpiredWarrantyCount(ctx context.Context, now int64) *live.Query[int64] {
	return watch(ctx, r, func(ctx context.Context) (int64, error) {
		return r.ExpiredWarrantyCount(ctx, now)
	})
}

func (r *ReceiptWarrantyRepository) WatchExpiringSoonItems(ctx context.Context, now int64, threshold time.Duration) *live.Query[[]models.ReceiptWarranty] {
	return watch(ctx, r, func(ctx context.Context) ([]models.ReceiptWarranty, error) {
		return r.ExpiringSoonItems(ctx, now, threshold)
	})
}

func (r *ReceiptWarrantyRepository) WatchItemsWithReminders(ctx context.Context) *live.Query[[]models.ReceiptWarranty] {
	return watch(ctx, r, r.ItemsWithReminders)
}

func (r *ReceiptWarrantyRepository) WatchSearch(ctx context.Context, query string) *live.Query[[]models.ReceiptWarranty] {
	return watch(ctx, r, func(ctx context.Context) ([]models.ReceiptWarranty, error) {
		return r.Search(ctx, query)
	})
}

// WatchSummary re-gathers the dashboard counts on every change, re-reading the clock each time.
func (r *ReceiptWarrantyRepository) WatchSummary(ctx context.Context, threshold time.Duration) *live.Query[models.Summary] {
	return watch(ctx, r, func(ctx context.Context) (models.Summary, error) {
		return r.Summary(ctx, models.NowMillis(), threshold)
	})
}
