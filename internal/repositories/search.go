package repositories

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/desertthunder/receipts/internal/models"
)

// searchColumns are matched by free-text queries.
var searchColumns = []string{"title", "company", "notes", "category"}

// Search returns records whose title, company, notes or category contain query, ignoring ASCII case,
// newest first. A blank query returns every record.
func (r *ReceiptWarrantyRepository) Search(ctx context.Context, query string) ([]models.ReceiptWarranty, error) {
	return r.Find(ctx, models.Criteria{Query: query})
}

// Find returns the records matching every set field of c, newest first.
func (r *ReceiptWarrantyRepository) Find(ctx context.Context, c models.Criteria) ([]models.ReceiptWarranty, error) {
	builder := sq.Select(receiptWarrantyColumns...).
		From(tableName).
		OrderBy("createdAt DESC", "id DESC")

	if c.Kind != "" {
		if _, err := models.ParseKind(string(c.Kind)); err != nil {
			return nil, fmt.Errorf("invalid criteria: %w", err)
		}
		builder = builder.Where(sq.Eq{"type": string(c.Kind)})
	}

	if c.Category != nil {
		builder = builder.Where(sq.Eq{"category": *c.Category})
	}

	if q := strings.TrimSpace(c.Query); q != "" {
		builder = builder.Where(matchAny(q))
	}

	if c.Limit > 0 {
		builder = builder.Limit(c.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryRecords(ctx, query, args...)
}

// matchAny builds "col LIKE ? OR ..." across [searchColumns]. SQLite LIKE ignores ASCII case.
func matchAny(q string) sq.Or {
	pattern := likePattern(q)
	clause := make(sq.Or, 0, len(searchColumns))
	for _, col := range searchColumns {
		clause = append(clause, sq.Expr(col+` LIKE ? ESCAPE '\'`, pattern))
	}
	return clause
}
