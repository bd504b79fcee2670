// Package tasks runs the long-running operations over the receipt and warranty store with real-time progress reporting.
//
// # Core Operations
//
// [Engine] exposes three operations:
//
//  1. [Engine.Export] : Snapshot export
//     - Reads every record once through [models.Reader.ExportAll]
//     - Writes each requested format (csv, json, yaml, markdown, txt) on a worker pool
//     - Records per-format outcomes in export_manifest.json
//
//  2. [Engine.Import] : Restore from a JSON or YAML export
//     - Skips records whose title, company and purchase date are already stored
//     - Inserts the rest with fresh ids
//
//  3. [Engine.Reminders] : Plan warranty reminders
//     - Warranties without a reminder choice default to one week before expiry
//     - Reminders whose time has passed are dropped
//
// [ReminderScheduler] arms one timer per warranty and calls back when each comes due.
// Feed it from a live query to keep timers in step with the store.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
