package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/receipts/internal/live"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/shared"
	"github.com/desertthunder/receipts/internal/tasks"
	th "github.com/desertthunder/receipts/internal/testing"
)

type fakeSource struct {
	deleted   []int64
	deleteErr error
}

func (f *fakeSource) WatchAll(ctx context.Context) *live.Query[[]models.ReceiptWarranty] {
	return nil
}

func (f *fakeSource) WatchSummary(ctx context.Context, threshold time.Duration) *live.Query[models.Summary] {
	return nil
}

func (f *fakeSource) DeleteByID(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fixtures() []models.ReceiptWarranty {
	laptop := th.Warranty("Laptop", "Acme", th.Now, th.Now+90*th.Day)
	laptop.ID = 1
	kettle := th.Warranty("Kettle", "Hot Co", th.Now-th.Day, th.Now-2*th.Day)
	kettle.ID = 2
	coffee := th.Receipt("Coffee", "Cafe", th.Now-2*th.Day)
	coffee.ID = 3
	return []models.ReceiptWarranty{*laptop, *kettle, *coffee}
}

func newTestModel(src Source, engine *tasks.Engine) *Model {
	m := NewModel(context.Background(), src, engine, Opts{Threshold: 7 * 24 * time.Hour})
	m.now = func() int64 { return th.Now }
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m.Update(recordsUpdatedMsg(fixtures(), nil, false))
	return m
}

func TestModel(t *testing.T) {
	t.Run("records update fills the list", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)

		if got := len(m.list.Items()); got != 3 {
			t.Fatalf("expected 3 list items, got %d", got)
		}
		if !strings.Contains(m.View(), "Receipts & Warranties (all)") {
			t.Errorf("expected list title in view, got:\n%s", m.View())
		}
	})

	t.Run("filter cycles through statuses", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)

		want := []struct {
			filter models.WarrantyFilter
			count  int
		}{
			{models.FilterReceipts, 1},
			{models.FilterWarranties, 2},
			{models.FilterExpiringSoon, 0},
			{models.FilterExpired, 1},
			{models.FilterAll, 3},
		}
		for _, w := range want {
			m.Update(runes("f"))
			if m.filter != w.filter {
				t.Fatalf("expected filter %s, got %s", w.filter, m.filter)
			}
			if got := len(m.list.Items()); got != w.count {
				t.Errorf("%s: expected %d items, got %d", w.filter, w.count, got)
			}
		}
	})

	t.Run("summary update", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		m.Update(summaryUpdatedMsg(models.Summary{Total: 3, Active: 1, ExpiringSoon: 0, Expired: 1}, nil, false))

		if m.summary.Total != 3 || m.summary.Expired != 1 {
			t.Errorf("unexpected summary %+v", m.summary)
		}
		if !strings.Contains(m.View(), "Expired 1") {
			t.Errorf("expected summary in view, got:\n%s", m.View())
		}
	})

	t.Run("enter opens details", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		if m.view != DetailView || m.selected == nil || m.selected.ID != 1 {
			t.Fatalf("expected detail view of #1, got view %d selected %+v", m.view, m.selected)
		}
		if !strings.Contains(m.View(), "Laptop #1") {
			t.Errorf("expected record title in detail view, got:\n%s", m.View())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ListView || m.selected != nil {
			t.Errorf("expected esc to return to the list")
		}
	})

	t.Run("delete flow", func(t *testing.T) {
		src := &fakeSource{}
		m := newTestModel(src, nil)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("d"))
		if m.view != ConfirmDeleteView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}

		_, cmd := m.Update(runes("y"))
		if cmd == nil {
			t.Fatal("expected a delete command")
		}
		m.Update(cmd())

		if len(src.deleted) != 1 || src.deleted[0] != 1 {
			t.Errorf("expected #1 deleted, got %v", src.deleted)
		}
		if m.view != ListView || !strings.Contains(m.status, "Deleted #1") {
			t.Errorf("expected list view with status, got view %d status %q", m.view, m.status)
		}
	})

	t.Run("declining delete returns to details", func(t *testing.T) {
		src := &fakeSource{}
		m := newTestModel(src, nil)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("d"))
		m.Update(runes("n"))

		if m.view != DetailView || len(src.deleted) != 0 {
			t.Errorf("expected detail view and no deletes, got view %d deletes %v", m.view, src.deleted)
		}
	})

	t.Run("delete failure is reported", func(t *testing.T) {
		src := &fakeSource{deleteErr: shared.ErrRecordNotFound}
		m := newTestModel(src, nil)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(runes("d"))
		_, cmd := m.Update(runes("y"))
		m.Update(cmd())

		if !strings.Contains(m.status, "Delete failed") {
			t.Errorf("expected failure status, got %q", m.status)
		}
	})

	t.Run("selected record disappears", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(recordsUpdatedMsg(fixtures()[1:], nil, false))

		if m.view != ListView || m.selected != nil {
			t.Errorf("expected to fall back to the list, got view %d", m.view)
		}
	})

	t.Run("selected record is refreshed", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		updated := fixtures()
		updated[0].Title = "Laptop Pro"
		m.Update(recordsUpdatedMsg(updated, nil, false))

		if m.view != DetailView || m.selected.Title != "Laptop Pro" {
			t.Errorf("expected refreshed detail, got %+v", m.selected)
		}
	})

	t.Run("query error is shown", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		m.Update(recordsUpdatedMsg(nil, errors.New("database is locked"), false))

		if !strings.Contains(m.View(), "database is locked") {
			t.Errorf("expected error in view, got:\n%s", m.View())
		}
	})

	t.Run("closed query stops waiting", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		if _, cmd := m.Update(recordsUpdatedMsg(nil, nil, true)); cmd != nil {
			t.Error("expected no follow-up command for a closed query")
		}
		if len(m.list.Items()) != 3 {
			t.Error("expected closed query to keep the last snapshot")
		}
	})

	t.Run("export without engine", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		m.Update(runes("e"))

		if m.view != ListView || !strings.Contains(m.status, "not available") {
			t.Errorf("expected status message, got view %d status %q", m.view, m.status)
		}
	})

	t.Run("export runs to the result view", func(t *testing.T) {
		engine := tasks.NewEngine(&th.MockReader{Items: fixtures()}, nil, shared.NewLogger(io.Discard))
		m := newTestModel(&fakeSource{}, engine)
		m.opts.Export = tasks.ExportOpts{OutputDir: t.TempDir(), Formats: []string{"csv", "json"}}

		_, cmd := m.Update(runes("e"))
		if m.view != ExportView {
			t.Fatalf("expected export view, got %d", m.view)
		}

		for i := 0; i < 50 && m.view == ExportView; i++ {
			if cmd == nil {
				t.Fatal("export stalled without a command")
			}
			_, cmd = m.Update(cmd())
		}

		if m.view != ResultView {
			t.Fatalf("expected result view, got %d", m.view)
		}
		if m.result == nil || m.result.SuccessfulExports != 2 || m.result.ItemCount != 3 {
			t.Errorf("unexpected export result %+v", m.result)
		}
		if !strings.Contains(m.View(), "Export Complete") {
			t.Errorf("expected completion in view, got:\n%s", m.View())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ListView {
			t.Errorf("expected esc to return to the list")
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := newTestModel(&fakeSource{}, nil)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestNextFilter(t *testing.T) {
	f := models.FilterAll
	for range models.Filters {
		f = nextFilter(f)
	}
	if f != models.FilterAll {
		t.Errorf("expected cycling every filter to wrap to ALL, got %s", f)
	}
	if nextFilter("bogus") != models.FilterAll {
		t.Error("expected unknown filter to reset to ALL")
	}
}

func TestPalette_Status(t *testing.T) {
	for _, s := range []models.WarrantyStatus{models.StatusValid, models.StatusExpiringSoon, models.StatusExpired, models.StatusNoWarranty} {
		if got := styles.Status(s); !strings.Contains(got, s.Label()) {
			t.Errorf("expected %q to contain %q", got, s.Label())
		}
	}
}
