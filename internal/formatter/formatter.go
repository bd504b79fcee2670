// package formatter renders receipt and warranty records to export formats (CSV, JSON, YAML, Markdown, plain text)
// and reads JSON and YAML exports back.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
)

// DateLayout is the day-precision layout used in CSV, Markdown and text exports.
const DateLayout = "2006-01-02"

// csvHeader is the column layout of CSV exports.
var csvHeader = []string{"id", "type", "title", "company", "category", "purchase_date", "expiry_date", "reminder", "notes", "created_at"}

// FormatDate renders an optional epoch-millis instant as a UTC date, or "" when unset.
func FormatDate(ms *int64) string {
	if ms == nil {
		return ""
	}
	return models.FromMillis(*ms).Format(DateLayout)
}

// ReminderLabel is the display name of an optional reminder, or "" when unset.
func ReminderLabel(r *models.ReminderDays) string {
	if r == nil {
		return ""
	}
	return r.DisplayName()
}

// ExportToCSV converts records to CSV with columns: id, type, title, company, category, purchase_date, expiry_date, reminder, notes, created_at
//
// Dates are yyyy-MM-dd in UTC and created_at stays in epoch millis.
func ExportToCSV(items []models.ReceiptWarranty) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			strconv.FormatInt(item.ID, 10),
			string(item.Kind),
			item.Title,
			item.Company,
			models.Deref(item.Category),
			FormatDate(item.PurchaseDate),
			FormatDate(item.WarrantyExpiryDate),
			ReminderLabel(item.ReminderDays),
			models.Deref(item.Notes),
			strconv.FormatInt(item.CreatedAt, 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts records to an indented JSON array.
func ExportToJSON(items []models.ReceiptWarranty) ([]byte, error) {
	if items == nil {
		items = []models.ReceiptWarranty{}
	}
	return MarshalJSON(items, true)
}

// ExportToMarkdown converts records to a Markdown document grouped by kind, with warranty status at now.
func ExportToMarkdown(items []models.ReceiptWarranty, now int64) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Receipts & Warranties\n\n")
	buf.WriteString(fmt.Sprintf("**Exported**: %s\n", models.FromMillis(now).Format(DateLayout)))
	buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(items)))

	for _, kind := range models.Kinds {
		var section []models.ReceiptWarranty
		for _, item := range items {
			if item.Kind == kind {
				section = append(section, item)
			}
		}
		if len(section) == 0 {
			continue
		}

		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", sectionTitle(kind), len(section)))
		buf.WriteString("| Title | Company | Category | Purchased | Expires | Status |\n")
		buf.WriteString("|---|---|---|---|---|---|\n")
		for _, item := range section {
			buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				escapeCell(item.Title),
				escapeCell(item.Company),
				escapeCell(models.Deref(item.Category)),
				FormatDate(item.PurchaseDate),
				FormatDate(item.WarrantyExpiryDate),
				item.Status(now).Label(),
			))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts records to a plain numbered list.
func ExportToText(items []models.ReceiptWarranty) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Items: %d\n\n", len(items)))
	for i, item := range items {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s", i+1, item.Kind, item.Title, item.Company))
		if expiry := FormatDate(item.WarrantyExpiryDate); expiry != "" {
			buf.WriteString(fmt.Sprintf(" (expires %s)", expiry))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// MarshalJSON encodes v as JSON, indented with two spaces when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Render produces the bytes of one export format.
func Render(format string, items []models.ReceiptWarranty, now int64) ([]byte, error) {
	switch format {
	case "csv":
		return ExportToCSV(items)
	case "json":
		return ExportToJSON(items)
	case "yaml":
		return ExportToYAML(items)
	case "markdown":
		return ExportToMarkdown(items, now)
	case "txt":
		return ExportToText(items)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// Extension is the file extension used for format.
func Extension(format string) string {
	switch format {
	case "markdown":
		return "md"
	default:
		return format
	}
}

// WriteExport renders items in format and writes them to path.
func WriteExport(format string, items []models.ReceiptWarranty, now int64, path string) (string, error) {
	data, err := Render(format, items, now)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

func sectionTitle(k models.Kind) string {
	if k == models.KindWarranty {
		return "Warranties"
	}
	return "Receipts"
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
