// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/receipts/internal/models"
)

// Now is a fixed instant (2024-06-01T12:00:00Z) in epoch millis for deterministic date tests.
var Now = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

// Day is one day in epoch millis.
const Day = int64(24 * time.Hour / time.Millisecond)

// Receipt builds a RECEIPT fixture. createdAt orders listings newest first.
func Receipt(title, company string, createdAt int64) *models.ReceiptWarranty {
	r := models.NewReceiptWarranty(models.KindReceipt, title, company)
	r.CreatedAt = createdAt
	return r
}

// Warranty builds a WARRANTY fixture expiring at expiry.
func Warranty(title, company string, createdAt, expiry int64) *models.ReceiptWarranty {
	w := models.NewReceiptWarranty(models.KindWarranty, title, company)
	w.CreatedAt = createdAt
	w.WarrantyExpiryDate = &expiry
	return w
}

// WithCategory sets the category and returns r.
func WithCategory(r *models.ReceiptWarranty, category string) *models.ReceiptWarranty {
	r.Category = &category
	return r
}

// WithReminder sets the reminder and returns r.
func WithReminder(r *models.ReceiptWarranty, days models.ReminderDays) *models.ReceiptWarranty {
	r.ReminderDays = &days
	return r
}

// MockReader is a test double for [models.Reader] serving a fixed slice.
type MockReader struct {
	Items []models.ReceiptWarranty
	Err   error
	Delay time.Duration // ExportAll waits this long or until ctx ends
}

func (m *MockReader) List(ctx context.Context) ([]models.ReceiptWarranty, error) {
	return m.Items, m.Err
}

func (m *MockReader) Get(ctx context.Context, id int64) (*models.ReceiptWarranty, error) {
	for i := range m.Items {
		if m.Items[i].ID == id {
			return &m.Items[i], m.Err
		}
	}
	return nil, m.Err
}

func (m *MockReader) Find(ctx context.Context, c models.Criteria) ([]models.ReceiptWarranty, error) {
	return m.Items, m.Err
}

func (m *MockReader) ExportAll(ctx context.Context) ([]models.ReceiptWarranty, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Items, m.Err
}

func (m *MockReader) ItemsWithReminders(ctx context.Context) ([]models.ReceiptWarranty, error) {
	return m.Items, m.Err
}

func (m *MockReader) ExpiringSoonItems(ctx context.Context, now int64, threshold time.Duration) ([]models.ReceiptWarranty, error) {
	return m.Items, m.Err
}

func (m *MockReader) CategoryStats(ctx context.Context) ([]models.CategoryCount, error) {
	return []models.CategoryCount{}, m.Err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
