package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchRecords Phase = iota
	WriteFormat
	WriteManifest
	ParseInput
	ImportRecords
	PlanRemindersPhase
)

func (p Phase) String() string {
	switch p {
	case FetchRecords:
		return "fetch_records"
	case WriteFormat:
		return "write_format"
	case WriteManifest:
		return "write_manifest"
	case ParseInput:
		return "parse_input"
	case ImportRecords:
		return "import_records"
	case PlanRemindersPhase:
		return "plan_reminders"
	default:
		return ""
	}
}

func fetchingRecordsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecords,
		Step:    1,
		Total:   1,
		Message: "Reading records...",
	}
}

func foundRecordsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecords,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d records", count),
		Data:    count,
	}
}

func formatCompletedUpdate(step, total int, res FormatResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFormat,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d bytes)", step, total, res.Format, res.Size),
		Data:    res,
	}
}

func formatFailedUpdate(step, total int, res FormatResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFormat,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Format, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Manifest written: %s", path),
	}
}

func parseInputUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseInput,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsing %s...", path),
	}
}

func importItemUpdate(step, total int, title, outcome string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, outcome, title),
	}
}

func remindersUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlanRemindersPhase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d upcoming reminders", count),
		Data:    count,
	}
}
