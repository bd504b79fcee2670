package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/desertthunder/receipts/internal/models"
)

var _ list.Item = recordItem{}

// recordItem wraps [models.ReceiptWarranty] to implement [list.Item].
type recordItem struct {
	record models.ReceiptWarranty
	now    int64
}

func (i recordItem) FilterValue() string {
	return strings.Join([]string{i.record.Title, i.record.Company, models.Deref(i.record.Category)}, " ")
}

func (i recordItem) Title() string {
	return fmt.Sprintf("[%s] %s", i.record.Kind, i.record.Title)
}

func (i recordItem) Description() string {
	parts := []string{i.record.Company}
	if i.record.Category != nil {
		parts = append(parts, *i.record.Category)
	}
	if expiry := formatter.FormatDate(i.record.WarrantyExpiryDate); expiry != "" {
		parts = append(parts, fmt.Sprintf("expires %s", expiry))
	}
	parts = append(parts, styles.Status(i.record.Status(i.now)))
	return strings.Join(parts, " • ")
}

func toItems(records []models.ReceiptWarranty, now int64) []list.Item {
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = recordItem{record: r, now: now}
	}
	return items
}
