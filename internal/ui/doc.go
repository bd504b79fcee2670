// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a live view of the receipt and warranty store:
//  1. [ListView] : Browse records, newest first, with a summary header; f cycles the status filter
//  2. [DetailView] : Inspect one record and its warranty status
//  3. [ConfirmDeleteView] : Confirm deleting the selected record
//  4. [ExportView] : Monitor real-time progress of an export
//  5. [ResultView] : Display the per-format export outcome
//
// The list and header are fed by live queries, so edits made elsewhere (another terminal, an import)
// appear without a refresh. The (view) [Model] implements the standard Init/Update/View pattern,
// receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
