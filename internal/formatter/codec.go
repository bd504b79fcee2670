package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
	"gopkg.in/yaml.v3"
)

// yamlRecord is the YAML shape of a record; keys match the JSON export.
type yamlRecord struct {
	ID                 int64   `yaml:"id"`
	Type               string  `yaml:"type"`
	Title              string  `yaml:"title"`
	Company            string  `yaml:"company"`
	Category           *string `yaml:"category,omitempty"`
	ImageURI           *string `yaml:"imageUri,omitempty"`
	PurchaseDate       *int64  `yaml:"purchaseDate,omitempty"`
	WarrantyExpiryDate *int64  `yaml:"warrantyExpiryDate,omitempty"`
	ReminderDays       *string `yaml:"reminderDays,omitempty"`
	Notes              *string `yaml:"notes,omitempty"`
	CreatedAt          int64   `yaml:"createdAt"`
}

type yamlDocument struct {
	Items []yamlRecord `yaml:"items"`
}

// ExportToYAML converts records to a YAML document with a top-level items list.
func ExportToYAML(items []models.ReceiptWarranty) ([]byte, error) {
	doc := yamlDocument{Items: make([]yamlRecord, 0, len(items))}
	for _, item := range items {
		yr := yamlRecord{
			ID:                 item.ID,
			Type:               string(item.Kind),
			Title:              item.Title,
			Company:            item.Company,
			Category:           item.Category,
			ImageURI:           item.ImageURI,
			PurchaseDate:       item.PurchaseDate,
			WarrantyExpiryDate: item.WarrantyExpiryDate,
			Notes:              item.Notes,
			CreatedAt:          item.CreatedAt,
		}
		if item.ReminderDays != nil {
			yr.ReminderDays = models.Ptr(string(*item.ReminderDays))
		}
		doc.Items = append(doc.Items, yr)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// ParseYAML reads a document written by [ExportToYAML]. Enum values are checked.
func ParseYAML(r io.Reader) ([]models.ReceiptWarranty, error) {
	var doc yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	items := make([]models.ReceiptWarranty, 0, len(doc.Items))
	for i, yr := range doc.Items {
		kind, err := models.ParseKind(yr.Type)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		item := models.ReceiptWarranty{
			ID:                 yr.ID,
			Kind:               kind,
			Title:              yr.Title,
			Company:            yr.Company,
			Category:           yr.Category,
			ImageURI:           yr.ImageURI,
			PurchaseDate:       yr.PurchaseDate,
			WarrantyExpiryDate: yr.WarrantyExpiryDate,
			Notes:              yr.Notes,
			CreatedAt:          yr.CreatedAt,
		}

		if yr.ReminderDays != nil {
			reminder, err := models.ParseReminderDays(*yr.ReminderDays)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			item.ReminderDays = &reminder
		}
		items = append(items, item)
	}

	return items, nil
}

// ParseJSON reads an array written by [ExportToJSON]. Enum values are checked.
func ParseJSON(r io.Reader) ([]models.ReceiptWarranty, error) {
	var items []models.ReceiptWarranty
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	for i, item := range items {
		if _, err := models.ParseKind(string(item.Kind)); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if item.ReminderDays != nil {
			if _, err := models.ParseReminderDays(string(*item.ReminderDays)); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
	}

	if items == nil {
		items = []models.ReceiptWarranty{}
	}
	return items, nil
}

// ParseFile picks the decoder from the file extension (.json, .yaml, .yml).
func ParseFile(path string, r io.Reader) ([]models.ReceiptWarranty, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(r)
	case ".yaml", ".yml":
		return ParseYAML(r)
	default:
		return nil, fmt.Errorf("%w: cannot import %q, expected .json, .yaml or .yml", shared.ErrInvalidArgument, path)
	}
}
