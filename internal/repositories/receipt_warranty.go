package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/receipts/internal/live"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
)

const (
	// DefaultExpiringSoonThreshold is the window used by [ReceiptWarrantyRepository.ExpiringSoonCount] callers by default.
	DefaultExpiringSoonThreshold = 7 * 24 * time.Hour

	// DefaultExpiringItemsThreshold is the window used by [ReceiptWarrantyRepository.ExpiringSoonItems] callers by default.
	DefaultExpiringItemsThreshold = 30 * 24 * time.Hour
)

// ReceiptWarrantyRepository reads and writes the receipt_warranty table.
//
// Every write runs in its own transaction and, once committed, invalidates live queries on the table.
type ReceiptWarrantyRepository struct {
	db      *sql.DB
	tracker *live.Tracker
	logger  *log.Logger
}

// NewReceiptWarrantyRepository creates a repository over db. A nil tracker gets a private one; a nil logger discards.
func NewReceiptWarrantyRepository(db *sql.DB, tracker *live.Tracker, logger *log.Logger) *ReceiptWarrantyRepository {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ReceiptWarrantyRepository{
		db:      db,
		tracker: ensureTracker(tracker),
		logger:  shared.WithLogger(logger, "component", "repository", "table", tableName),
	}
}

// Tracker returns the tracker this repository invalidates.
func (r *ReceiptWarrantyRepository) Tracker() *live.Tracker {
	return r.tracker
}

// Insert writes rec, replacing any row with the same id, and sets rec.ID to the stored id.
//
// An ID of 0 asks the database to assign one. A zero CreatedAt is set to now.
func (r *ReceiptWarrantyRepository) Insert(ctx context.Context, rec *models.ReceiptWarranty) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = models.NowMillis()
	}

	query := `
		INSERT OR REPLACE INTO receipt_warranty (id, type, title, company, category, imageUri, purchaseDate, warrantyExpiryDate, reminderDays, notes, createdAt)
		VALUES (nullif(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var id int64
	err := withTx(ctx, r.db, r.tracker, tableName, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx, query,
			rec.ID,
			string(rec.Kind),
			rec.Title,
			rec.Company,
			rec.Category,
			rec.ImageURI,
			rec.PurchaseDate,
			rec.WarrantyExpiryDate,
			reminderArg(rec.ReminderDays),
			rec.Notes,
			rec.CreatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert record: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("failed to get inserted id: %w", err)
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	rec.ID = id
	r.logger.Debug("inserted record", "id", id, "type", rec.Kind)
	return id, nil
}

// Update rewrites every column of the row with rec.ID. It fails with [shared.ErrRecordNotFound]
// unless exactly one row was updated, leaving the table untouched.
func (r *ReceiptWarrantyRepository) Update(ctx context.Context, rec *models.ReceiptWarranty) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE OR ABORT receipt_warranty
		SET id = ?, type = ?, title = ?, company = ?, category = ?, imageUri = ?,
			purchaseDate = ?, warrantyExpiryDate = ?, reminderDays = ?, notes = ?, createdAt = ?
		WHERE id = ?
	`

	err := withTx(ctx, r.db, r.tracker, tableName, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx, query,
			rec.ID,
			string(rec.Kind),
			rec.Title,
			rec.Company,
			rec.Category,
			rec.ImageURI,
			rec.PurchaseDate,
			rec.WarrantyExpiryDate,
			reminderArg(rec.ReminderDays),
			rec.Notes,
			rec.CreatedAt,
			rec.ID,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update record: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows != 1 {
			return false, fmt.Errorf("%w: id %d", shared.ErrRecordNotFound, rec.ID)
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("updated record", "id", rec.ID)
	return nil
}

// Delete removes the row with rec.ID. A missing row is not an error.
func (r *ReceiptWarrantyRepository) Delete(ctx context.Context, rec *models.ReceiptWarranty) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", shared.ErrInvalidInput)
	}
	return r.DeleteByID(ctx, rec.ID)
}

// DeleteByID removes the row with id. A missing row is not an error.
func (r *ReceiptWarrantyRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete", "DELETE FROM receipt_warranty WHERE id = ?", id)
}

// Clear deletes every row.
func (r *ReceiptWarrantyRepository) Clear(ctx context.Context) error {
	return r.exec(ctx, "clear", "DELETE FROM receipt_warranty")
}

func (r *ReceiptWarrantyRepository) exec(ctx context.Context, op, query string, args ...any) error {
	var affected int64
	err := withTx(ctx, r.db, r.tracker, tableName, func(tx *sql.Tx) (bool, error) {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return false, fmt.Errorf("failed to %s records: %w", op, err)
		}

		affected, err = result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}
		return affected > 0, nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("deleted records", "op", op, "rows", affected)
	return nil
}

// List returns every record, newest first.
func (r *ReceiptWarrantyRepository) List(ctx context.Context) ([]models.ReceiptWarranty, error) {
	query := "SELECT " + selectColumns + " FROM receipt_warranty ORDER BY createdAt DESC, id DESC"
	return r.queryRecords(ctx, query)
}

// ExportAll returns a one-shot snapshot of every record, newest first. It stops early when ctx is cancelled.
func (r *ReceiptWarrantyRepository) ExportAll(ctx context.Context) ([]models.ReceiptWarranty, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}
	r.logger.Debug("exported records", "count", len(records))
	return records, nil
}

// Get returns the record with id, or nil when there is none.
func (r *ReceiptWarrantyRepository) Get(ctx context.Context, id int64) (*models.ReceiptWarranty, error) {
	query := "SELECT " + selectColumns + " FROM receipt_warranty WHERE id = ?"

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}
	return rec, nil
}

// FindByUniqueFields returns the first record matching title, company and purchaseDate, where a nil
// purchaseDate matches only a NULL one. Used to skip duplicates when importing.
func (r *ReceiptWarrantyRepository) FindByUniqueFields(ctx context.Context, title, company string, purchaseDate *int64) (*models.ReceiptWarranty, error) {
	query := "SELECT " + selectColumns + ` FROM receipt_warranty
		WHERE title = ?
		AND company = ?
		AND (purchaseDate = ? OR (purchaseDate IS NULL AND ? IS NULL))
		LIMIT 1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, title, company, purchaseDate, purchaseDate))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return rec, nil
}

// Companies returns the distinct company names, ascending.
func (r *ReceiptWarrantyRepository) Companies(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, "SELECT DISTINCT company FROM receipt_warranty ORDER BY company ASC")
}

// Categories returns the distinct non-null categories, ascending.
func (r *ReceiptWarrantyRepository) Categories(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, "SELECT DISTINCT category FROM receipt_warranty WHERE category IS NOT NULL ORDER BY category ASC")
}

// ByCategory returns the records in category, newest first.
func (r *ReceiptWarrantyRepository) ByCategory(ctx context.Context, category string) ([]models.ReceiptWarranty, error) {
	query := "SELECT " + selectColumns + " FROM receipt_warranty WHERE category = ? ORDER BY createdAt DESC, id DESC"
	return r.queryRecords(ctx, query, category)
}

// CategoryStats counts records per non-null category, largest first.
func (r *ReceiptWarrantyRepository) CategoryStats(ctx context.Context) ([]models.CategoryCount, error) {
	query := `
		SELECT category, COUNT(*) AS count
		FROM receipt_warranty
		WHERE category IS NOT NULL
		GROUP BY category
		ORDER BY count DESC, category ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	stats := []models.CategoryCount{}
	for rows.Next() {
		var c models.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats = append(stats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

// Count returns the number of records.
func (r *ReceiptWarrantyRepository) Count(ctx context.Context) (int64, error) {
	return r.queryCount(ctx, "SELECT COUNT(*) FROM receipt_warranty")
}

// ReceiptCount returns the number of RECEIPT records.
func (r *ReceiptWarrantyRepository) ReceiptCount(ctx context.Context) (int64, error) {
	return r.queryCount(ctx, "SELECT COUNT(*) FROM receipt_warranty WHERE type = ?", string(models.KindReceipt))
}

// WarrantyCount returns the number of WARRANTY records.
func (r *ReceiptWarrantyRepository) WarrantyCount(ctx context.Context) (int64, error) {
	return r.queryCount(ctx, "SELECT COUNT(*) FROM receipt_warranty WHERE type = ?", string(models.KindWarranty))
}

// ActiveWarrantyCount counts warranties expiring after now (epoch millis).
func (r *ReceiptWarrantyRepository) ActiveWarrantyCount(ctx context.Context, now int64) (int64, error) {
	query := "SELECT COUNT(*) FROM receipt_warranty WHERE type = ? AND warrantyExpiryDate > ?"
	return r.queryCount(ctx, query, string(models.KindWarranty), now)
}

// ExpiringSoonCount counts warranties whose expiry is at most threshold after now.
//
// Already expired warranties satisfy the condition too and are counted; see [ReceiptWarrantyRepository.ExpiringSoonItems]
// for the future-only listing.
func (r *ReceiptWarrantyRepository) ExpiringSoonCount(ctx context.Context, now int64, threshold time.Duration) (int64, error) {
	query := "SELECT COUNT(*) FROM receipt_warranty WHERE type = ? AND warrantyExpiryDate - ? <= ?"
	return r.queryCount(ctx, query, string(models.KindWarranty), now, threshold.Milliseconds())
}

// ExpiredWarrantyCount counts warranties that expired before now.
func (r *ReceiptWarrantyRepository) ExpiredWarrantyCount(ctx context.Context, now int64) (int64, error) {
	query := "SELECT COUNT(*) FROM receipt_warranty WHERE type = ? AND warrantyExpiryDate < ?"
	return r.queryCount(ctx, query, string(models.KindWarranty), now)
}

// ExpiringSoonItems returns warranties expiring after now and at most threshold later, soonest first.
func (r *ReceiptWarrantyRepository) ExpiringSoonItems(ctx context.Context, now int64, threshold time.Duration) ([]models.ReceiptWarranty, error) {
	query := "SELECT " + selectColumns + ` FROM receipt_warranty
		WHERE type = ?
		AND warrantyExpiryDate IS NOT NULL
		AND warrantyExpiryDate > ?
		AND warrantyExpiryDate - ? <= ?
		ORDER BY warrantyExpiryDate ASC`
	return r.queryRecords(ctx, query, string(models.KindWarranty), now, now, threshold.Milliseconds())
}

// ItemsWithReminders returns warranties that have both a reminder and an expiry date.
func (r *ReceiptWarrantyRepository) ItemsWithReminders(ctx context.Context) ([]models.ReceiptWarranty, error) {
	query := "SELECT " + selectColumns + ` FROM receipt_warranty
		WHERE type = ?
		AND reminderDays IS NOT NULL
		AND warrantyExpiryDate IS NOT NULL`
	return r.queryRecords(ctx, query, string(models.KindWarranty))
}

// Summary gathers the dashboard counts at now.
func (r *ReceiptWarrantyRepository) Summary(ctx context.Context, now int64, threshold time.Duration) (models.Summary, error) {
	var (
		s   models.Summary
		err error
	)

	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&s.Total, func() (int64, error) { return r.Count(ctx) }},
		{&s.Receipts, func() (int64, error) { return r.ReceiptCount(ctx) }},
		{&s.Warranties, func() (int64, error) { return r.WarrantyCount(ctx) }},
		{&s.Active, func() (int64, error) { return r.ActiveWarrantyCount(ctx, now) }},
		{&s.ExpiringSoon, func() (int64, error) { return r.ExpiringSoonCount(ctx, now, threshold) }},
		{&s.Expired, func() (int64, error) { return r.ExpiredWarrantyCount(ctx, now) }},
	}

	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return models.Summary{}, err
		}
	}

	if s.Categories, err = r.CategoryStats(ctx); err != nil {
		return models.Summary{}, err
	}
	return s, nil
}

func (r *ReceiptWarrantyRepository) queryRecords(ctx context.Context, query string, args ...any) ([]models.ReceiptWarranty, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return scanRecords(ctx, rows)
}

func (r *ReceiptWarrantyRepository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query values: %w", err)
	}
	return scanStrings(rows)
}

func (r *ReceiptWarrantyRepository) queryCount(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
