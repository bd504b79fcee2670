// package repositories provides the persistence layer for receipt and warranty records.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/receipts/internal/live"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
)

// receiptWarrantyColumns is the column list every record query selects, in scan order.
var receiptWarrantyColumns = []string{
	"id", "type", "title", "company", "category", "imageUri",
	"purchaseDate", "warrantyExpiryDate", "reminderDays", "notes", "createdAt",
}

var selectColumns = strings.Join(receiptWarrantyColumns, ", ")

// rowScanner is satisfied by [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

// txFunc runs inside a transaction and reports whether it changed any rows.
type txFunc func(tx *sql.Tx) (changed bool, err error)

// withTx runs fn in one transaction: begin, act, commit, with rollback deferred so a failure leaves no partial write.
// Observers of table are invalidated only after a successful commit that changed rows.
func withTx(ctx context.Context, db *sql.DB, tracker *live.Tracker, table string, fn txFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	changed, err := fn(tx)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if changed {
		tracker.Invalidate(table)
	}
	return nil
}

// scanRecord scans one row selected with [selectColumns] into a [models.ReceiptWarranty].
//
// Unknown enum symbols are treated as corruption and fail with [shared.ErrUnknownEnumValue].
func scanRecord(row rowScanner) (*models.ReceiptWarranty, error) {
	var (
		id                 int64
		kind               string
		title              string
		company            string
		category           sql.NullString
		imageURI           sql.NullString
		purchaseDate       sql.NullInt64
		warrantyExpiryDate sql.NullInt64
		reminderDays       sql.NullString
		notes              sql.NullString
		createdAt          int64
	)

	err := row.Scan(
		&id,
		&kind,
		&title,
		&company,
		&category,
		&imageURI,
		&purchaseDate,
		&warrantyExpiryDate,
		&reminderDays,
		&notes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	k, err := models.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", id, err)
	}

	rec := &models.ReceiptWarranty{
		ID:                 id,
		Kind:               k,
		Title:              title,
		Company:            company,
		Category:           nullableString(category),
		ImageURI:           nullableString(imageURI),
		PurchaseDate:       nullableInt(purchaseDate),
		WarrantyExpiryDate: nullableInt(warrantyExpiryDate),
		Notes:              nullableString(notes),
		CreatedAt:          createdAt,
	}

	if reminderDays.Valid {
		r, err := models.ParseReminderDays(reminderDays.String)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", id, err)
		}
		rec.ReminderDays = &r
	}

	return rec, nil
}

// scanRecords drains rows into a non-nil slice, checking ctx between rows.
func scanRecords(ctx context.Context, rows *sql.Rows) ([]models.ReceiptWarranty, error) {
	defer rows.Close()

	records := []models.ReceiptWarranty{}
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// scanStrings drains a single text column into a non-nil slice.
func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return values, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullableInt(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	return &ni.Int64
}

// reminderArg converts a nullable reminder into a bindable value.
func reminderArg(r *models.ReminderDays) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

// likePattern wraps q for a substring LIKE with '\' as the escape character.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// ensureTracker substitutes a private tracker so writes never need a nil check.
func ensureTracker(t *live.Tracker) *live.Tracker {
	if t == nil {
		return live.NewTracker(live.TrackerOpts{})
	}
	return t
}

var _ models.Store = (*ReceiptWarrantyRepository)(nil)

// tableName is the table every query in this package reads and invalidates.
const tableName = shared.ReceiptWarrantyTable
