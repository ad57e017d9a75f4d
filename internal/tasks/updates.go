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
	FetchReviews Phase = iota
	ExportReview
	FetchInterested
	SyncPerformance
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchReviews:
		return "fetch_reviews"
	case ExportReview:
		return "export_review"
	case FetchInterested:
		return "fetch_interested"
	case SyncPerformance:
		return "sync_performance"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingReviewsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchReviews, Step: 1, Total: 1, Message: "Fetching your reviews..."}
}

func foundReviewsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReviews,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d reviews", total),
	}
}

func reviewExportedUpdate(step, total int, res ReviewExportResult) ProgressUpdate {
	if res.Error != nil {
		return ProgressUpdate{
			Phase:   ExportReview,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   ExportReview,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, res.Title, len(res.Files)),
		Data:    res,
	}
}

func fetchingInterestedUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchInterested, Step: 1, Total: 1, Message: "Fetching interested performances..."}
}

func performanceSyncedUpdate(step, total int, res PerformanceSyncResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Title)
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error)
	}
	return ProgressUpdate{Phase: SyncPerformance, Step: step, Total: total, Message: msg, Data: res}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: fmt.Sprintf("Wrote manifest %s", path)}
}
