package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/receipts/internal/models"
	"github.com/desertthunder/receipts/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRecordsUpdated MsgKind = iota
	MsgSummaryUpdated
	MsgRecordDeleted
	MsgProgressUpdate
	MsgExportComplete
)

type recordsPayload struct {
	records []models.ReceiptWarranty
	err     error
	closed  bool
}

type summaryPayload struct {
	summary models.Summary
	err     error
	closed  bool
}

type deletedPayload struct {
	id  int64
	err error
}

type exportPayload struct {
	result *tasks.ExportResult
	err    error
}

// recordsUpdatedMsg is the constructor for [MsgRecordsUpdated]
func recordsUpdatedMsg(records []models.ReceiptWarranty, err error, closed bool) Msg {
	return Msg{kind: MsgRecordsUpdated, data: recordsPayload{records, err, closed}}
}

// summaryUpdatedMsg is the constructor for [MsgSummaryUpdated]
func summaryUpdatedMsg(summary models.Summary, err error, closed bool) Msg {
	return Msg{kind: MsgSummaryUpdated, data: summaryPayload{summary, err, closed}}
}

// recordDeletedMsg is the constructor for [MsgRecordDeleted]
func recordDeletedMsg(id int64, err error) Msg {
	return Msg{kind: MsgRecordDeleted, data: deletedPayload{id, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *tasks.ExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportPayload{result, err}}
}
