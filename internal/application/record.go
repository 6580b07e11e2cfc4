package application

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/vulnfix/vulnfix/internal/domain"
)

// RecordRun appends a summary of report to h. A failed save is logged
// and does not fail the run.
func RecordRun(h domain.FixHistory, report *domain.FixReport, commitHash string, log logr.Logger) {
	entry := report.HistoryEntry(time.Now().UTC().Format(time.RFC3339), commitHash)
	if err := h.Save(entry); err != nil {
		log.Error(err, "saving fix history", "timestamp", entry.Timestamp)
	}
}
