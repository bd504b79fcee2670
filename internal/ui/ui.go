package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/receipts/internal/formatter"
	"github.com/desertthunder/receipts/internal/live"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	ConfirmDeleteView
	ExportView
	ResultView
)

// Source is the store as seen by the TUI.
type Source interface {
	WatchAll(ctx context.Context) *live.Query[[]models.ReceiptWarranty]
	WatchSummary(ctx context.Context, threshold time.Duration) *live.Query[models.Summary]
	DeleteByID(ctx context.Context, id int64) error
}

// Opts configures a [Model].
type Opts struct {
	Threshold time.Duration    // Expiring-soon window for the summary header
	Export    tasks.ExportOpts // Options used by the export key
}

type exportOutcome struct {
	result *tasks.ExportResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       Source
	engine       *tasks.Engine
	opts         Opts
	now          func() int64
	records      *live.Query[[]models.ReceiptWarranty]
	summaryQuery *live.Query[models.Summary]
	items        []models.ReceiptWarranty
	summary      models.Summary
	filter       models.WarrantyFilter
	list         list.Model
	selected     *models.ReceiptWarranty
	progressChan chan tasks.ProgressUpdate
	exportDone   chan exportOutcome
	progress     tasks.ProgressUpdate
	result       *tasks.ExportResult
	status       string
	err          error
	width        int
	height       int
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, source Source, engine *tasks.Engine, opts Opts) *Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowHelp(false)

	m := &Model{
		ctx:    ctx,
		view:   ListView,
		source: source,
		engine: engine,
		opts:   opts,
		now:    models.NowMillis,
		filter: models.FilterAll,
		list:   l,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.list.Title = m.listTitle()
	return m
}

// Init starts the live queries behind the list and the summary header.
func (m *Model) Init() tea.Cmd {
	m.records = m.source.WatchAll(m.ctx)
	m.summaryQuery = m.source.WatchSummary(m.ctx, m.opts.Threshold)
	return tea.Batch(m.waitForRecords(), m.waitForSummary())
}

// Close stops the live queries. Call it after the program exits.
func (m *Model) Close() {
	if m.records != nil {
		m.records.Close()
	}
	if m.summaryQuery != nil {
		m.summaryQuery.Close()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case ExportView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == ListView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRecordsUpdated:
		p := msg.data.(recordsPayload)
		if p.closed {
			return m, nil
		}
		if p.err != nil {
			m.err = p.err
			return m, nil
		}
		m.items = p.records
		m.refreshSelected()
		return m, tea.Batch(m.applyFilter(), m.waitForRecords())

	case MsgSummaryUpdated:
		p := msg.data.(summaryPayload)
		if p.closed {
			return m, nil
		}
		if p.err != nil {
			m.err = p.err
			return m, nil
		}
		m.summary = p.summary
		return m, m.waitForSummary()

	case MsgRecordDeleted:
		p := msg.data.(deletedPayload)
		if p.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Delete failed: %v", p.err))
		} else {
			m.status = styles.ok.Render(fmt.Sprintf("Deleted #%d", p.id))
		}
		m.selected = nil
		m.view = ListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		p := msg.data.(exportPayload)
		m.result = p.result
		m.err = p.err
		m.progressChan = nil
		m.exportDone = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case ConfirmDeleteView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.filter):
		m.filter = nextFilter(m.filter)
		return m, m.applyFilter()
	case key.Matches(msg, m.keys.export):
		if m.engine == nil {
			m.status = styles.warn.Render("Export is not available")
			return m, nil
		}
		m.view = ExportView
		return m, m.startExport()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(recordItem); ok {
			record := item.record
			m.selected = &record
			m.status = ""
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.selected = nil
		m.view = ListView
	case key.Matches(msg, m.keys.delete):
		m.view = ConfirmDeleteView
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		if m.selected == nil {
			m.view = ListView
			return m, nil
		}
		return m, m.deleteRecord(m.selected.ID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = DetailView
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.view = ListView
		m.result = nil
		m.err = nil
	}
	return m, nil
}

// applyFilter rebuilds the list items from the latest snapshot and the active filter.
func (m *Model) applyFilter() tea.Cmd {
	now := m.now()
	m.list.Title = m.listTitle()
	return m.list.SetItems(toItems(models.FilterByStatus(m.items, m.filter, now), now))
}

// refreshSelected keeps the detail view on the latest version of the selected record.
func (m *Model) refreshSelected() {
	if m.selected == nil {
		return
	}
	for _, item := range m.items {
		if item.ID == m.selected.ID {
			record := item
			m.selected = &record
			return
		}
	}
	if m.view == DetailView {
		m.selected = nil
		m.view = ListView
	}
}

func (m *Model) listTitle() string {
	return fmt.Sprintf("Receipts & Warranties (%s)", filterLabel(m.filter))
}

func (m *Model) waitForRecords() tea.Cmd {
	q := m.records
	return func() tea.Msg {
		if q == nil {
			return recordsUpdatedMsg(nil, nil, true)
		}
		snap, ok := <-q.Updates()
		if !ok {
			return recordsUpdatedMsg(nil, nil, true)
		}
		return recordsUpdatedMsg(snap.Value, snap.Err, false)
	}
}

func (m *Model) waitForSummary() tea.Cmd {
	q := m.summaryQuery
	return func() tea.Msg {
		if q == nil {
			return summaryUpdatedMsg(models.Summary{}, nil, true)
		}
		snap, ok := <-q.Updates()
		if !ok {
			return summaryUpdatedMsg(models.Summary{}, nil, true)
		}
		return summaryUpdatedMsg(snap.Value, snap.Err, false)
	}
}

func (m *Model) deleteRecord(id int64) tea.Cmd {
	source, ctx := m.source, m.ctx
	return func() tea.Msg {
		return recordDeletedMsg(id, source.DeleteByID(ctx, id))
	}
}

func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.exportDone = make(chan exportOutcome, 1)
	m.progress = tasks.ProgressUpdate{}

	progress, done := m.progressChan, m.exportDone
	opts := m.opts.Export
	opts.Now = m.now()

	go func() {
		result, err := m.engine.Export(m.ctx, progress, opts)
		done <- exportOutcome{result: result, err: err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.exportDone
	return func() tea.Msg {
		if progress == nil {
			return exportCompleteMsg(nil, nil)
		}

		update, ok := <-progress
		if !ok {
			outcome := <-done
			return exportCompleteMsg(outcome.result, outcome.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderSummary() string {
	s := m.summary
	return strings.Join([]string{
		fmt.Sprintf("%s %d", styles.label.Render("Total"), s.Total),
		fmt.Sprintf("%s %d", styles.label.Render("Receipts"), s.Receipts),
		fmt.Sprintf("%s %d", styles.label.Render("Warranties"), s.Warranties),
		styles.ok.Render(fmt.Sprintf("Active %d", s.Active)),
		styles.warn.Render(fmt.Sprintf("Expiring %d", s.ExpiringSoon)),
		styles.err.Render(fmt.Sprintf("Expired %d", s.Expired)),
	}, "  ")
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.filter, m.keys.export, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var status string
	if m.status != "" {
		status = "\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s%s\n\n%s", m.renderSummary(), m.list.View(), status, helpView)
}

func (m *Model) renderDetail() string {
	r := m.selected
	if r == nil {
		return ""
	}

	now := m.now()
	title := styles.title.Render(fmt.Sprintf("%s #%d", r.Title, r.ID))
	rows := []string{
		detailRow("Type", string(r.Kind)),
		detailRow("Company", r.Company),
		detailRow("Category", models.Deref(r.Category)),
		detailRow("Purchased", formatter.FormatDate(r.PurchaseDate)),
		detailRow("Expires", formatter.FormatDate(r.WarrantyExpiryDate)),
		detailRow("Reminder", formatter.ReminderLabel(r.ReminderDays)),
		detailRow("Status", styles.Status(r.Status(now))),
		detailRow("Notes", models.Deref(r.Notes)),
		detailRow("Added", formatter.FormatDate(&r.CreatedAt)),
	}

	helpKeys := []key.Binding{m.keys.delete, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", title, strings.Join(rows, "\n"), helpView)
}

func (m *Model) renderConfirm() string {
	if m.selected == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", m.selected.Title))
	info := styles.warn.Render("This cannot be undone.")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchRecords:
		phase = "Reading records..."
	case tasks.WriteFormat:
		phase = fmt.Sprintf("Writing formats (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.WriteManifest:
		phase = "Writing manifest..."
	default:
		phase = "Processing..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	title := styles.ok.Render("✓ Export Complete!")
	info := fmt.Sprintf("\nItems: %d\nDirectory: %s\nFormats: %d succeeded, %d failed",
		m.result.ItemCount,
		m.result.OutputDirectory,
		m.result.SuccessfulExports,
		m.result.FailedExports,
	)

	var lines []string
	for _, res := range m.result.Results {
		if res.Success {
			lines = append(lines, fmt.Sprintf("  • %s → %s", res.Format, res.Path))
		} else {
			lines = append(lines, styles.warn.Render(fmt.Sprintf("  • %s: %v", res.Format, res.Error)))
		}
	}

	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, info, strings.Join(lines, "\n"), helpView)
}

func detailRow(label, value string) string {
	if value == "" {
		value = styles.help.Render("-")
	}
	return fmt.Sprintf("%s %s", styles.label.Render(fmt.Sprintf("%-10s", label)), value)
}

func nextFilter(f models.WarrantyFilter) models.WarrantyFilter {
	for i, candidate := range models.Filters {
		if candidate == f {
			return models.Filters[(i+1)%len(models.Filters)]
		}
	}
	return models.FilterAll
}

func filterLabel(f models.WarrantyFilter) string {
	switch f {
	case models.FilterReceipts:
		return "receipts"
	case models.FilterWarranties:
		return "warranties"
	case models.FilterExpiringSoon:
		return "expiring soon"
	case models.FilterExpired:
		return "expired"
	default:
		return "all"
	}
}
