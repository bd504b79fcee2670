package shared

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Column describes one column the way SQLite reports it through PRAGMA table_info.
type Column struct {
	Name       string
	Type       string // declared type reduced to its SQLite affinity
	NotNull    bool
	PrimaryKey int // 1-based position within the primary key, 0 when not part of it
}

func (c Column) String() string {
	return fmt.Sprintf("%s %s notNull=%t pk=%d", c.Name, c.Type, c.NotNull, c.PrimaryKey)
}

// TableInfo is the shape of a table: its name and columns keyed by name.
type TableInfo struct {
	Name    string
	Columns map[string]Column
}

// Equal reports whether both tables have the same name and column set.
func (t TableInfo) Equal(other TableInfo) bool {
	if t.Name != other.Name || len(t.Columns) != len(other.Columns) {
		return false
	}
	for name, col := range t.Columns {
		if oc, ok := other.Columns[name]; !ok || oc != col {
			return false
		}
	}
	return true
}

// String renders the table with its columns sorted by name so two shapes can be compared by eye.
func (t TableInfo) String() string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]string, 0, len(names))
	for _, name := range names {
		cols = append(cols, t.Columns[name].String())
	}
	return fmt.Sprintf("%s{%s}", t.Name, strings.Join(cols, ", "))
}

// SchemaMismatchError reports a live table whose shape differs from the expected one.
type SchemaMismatchError struct {
	Expected TableInfo
	Found    TableInfo
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%v: %s\n Expected:\n%s\n Found:\n%s", ErrSchemaMismatch, e.Expected.Name, e.Expected, e.Found)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// Affinity reduces a declared column type to its SQLite type affinity.
//
// See https://www.sqlite.org/datatype3.html#determination_of_column_affinity
func Affinity(declared string) string {
	t := strings.ToUpper(declared)
	switch {
	case strings.Contains(t, "INT"):
		return "INTEGER"
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return "TEXT"
	case t == "", strings.Contains(t, "BLOB"):
		return "BLOB"
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return "REAL"
	default:
		return "NUMERIC"
	}
}

// ExpectedReceiptWarrantyTable is the shape the record accessor is written against.
func ExpectedReceiptWarrantyTable() TableInfo {
	cols := []Column{
		{Name: "id", Type: "INTEGER", NotNull: true, PrimaryKey: 1},
		{Name: "type", Type: "TEXT", NotNull: true},
		{Name: "title", Type: "TEXT", NotNull: true},
		{Name: "company", Type: "TEXT", NotNull: true},
		{Name: "category", Type: "TEXT"},
		{Name: "imageUri", Type: "TEXT"},
		{Name: "purchaseDate", Type: "INTEGER"},
		{Name: "warrantyExpiryDate", Type: "INTEGER"},
		{Name: "reminderDays", Type: "TEXT"},
		{Name: "notes", Type: "TEXT"},
		{Name: "createdAt", Type: "INTEGER", NotNull: true},
	}

	info := TableInfo{Name: ReceiptWarrantyTable, Columns: make(map[string]Column, len(cols))}
	for _, c := range cols {
		info.Columns[c.Name] = c
	}
	return info
}

// Querier is satisfied by [sql.DB], [sql.Conn] and [sql.Tx].
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ReadTableInfo reads the live shape of table. A missing table yields an empty column set.
func ReadTableInfo(ctx context.Context, q Querier, table string) (TableInfo, error) {
	query := fmt.Sprintf("PRAGMA table_info(%q)", table)
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return TableInfo{}, fmt.Errorf("failed to read table info for %s: %w", table, err)
	}
	defer rows.Close()

	info := TableInfo{Name: table, Columns: map[string]Column{}}
	for rows.Next() {
		var (
			cid      int
			name     string
			declared string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &dflt, &pk); err != nil {
			return TableInfo{}, fmt.Errorf("failed to scan table info: %w", err)
		}
		info.Columns[name] = Column{
			Name:       name,
			Type:       Affinity(declared),
			NotNull:    notNull != 0,
			PrimaryKey: pk,
		}
	}

	if err := rows.Err(); err != nil {
		return TableInfo{}, fmt.Errorf("row iteration error: %w", err)
	}

	return info, nil
}
