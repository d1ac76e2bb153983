package logger

import (
	"fmt"
	"sync"
	"time"
)

// BatchTracker counts the documents of a multi-file run. It is safe for
// concurrent use by the workers of the run.
type BatchTracker struct {
	logger    Logger
	operation string
	total     int
	succeeded int
	failed    int
	startTime time.Time
	mutex     sync.Mutex
}

// NewBatchTracker creates a tracker expecting total documents
func NewBatchTracker(operation string, total int, logger Logger) *BatchTracker {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	tracker := &BatchTracker{
		logger:    logger.WithComponent("progress"),
		operation: operation,
		total:     total,
		startTime: time.Now(),
	}

	tracker.logger.WithFields(Fields{
		"operation": operation,
		"total":     total,
	}).Debug("Starting batch")

	return tracker
}

// Done records one finished document; a nil err counts as a success
func (t *BatchTracker) Done(name string, err error) {
	t.mutex.Lock()
	if err != nil {
		t.failed++
	} else {
		t.succeeded++
	}
	processed := t.succeeded + t.failed
	t.mutex.Unlock()

	fields := Fields{
		"operation": t.operation,
		"document":  name,
		"processed": processed,
		"total":     t.total,
	}
	if err != nil {
		t.logger.WithError(err).WithFields(fields).Warn("Document failed")
		return
	}
	t.logger.WithFields(fields).Debug("Document done")
}

// Complete logs the final statistics and returns them
func (t *BatchTracker) Complete() BatchStats {
	stats := t.Stats()
	t.logger.WithFields(Fields{
		"operation": t.operation,
		"total":     stats.Total,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"duration":  stats.Duration.String(),
	}).Info("Batch completed")
	return stats
}

// Stats returns the current counters
func (t *BatchTracker) Stats() BatchStats {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return BatchStats{
		Operation: t.operation,
		Total:     t.total,
		Succeeded: t.succeeded,
		Failed:    t.failed,
		Duration:  time.Since(t.startTime),
	}
}

// BatchStats contains batch statistics
type BatchStats struct {
	Operation string        `json:"operation"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Pending returns how many documents have not finished yet
func (bs BatchStats) Pending() int {
	return bs.Total - bs.Succeeded - bs.Failed
}

// String returns a human-readable representation of the batch
func (bs BatchStats) String() string {
	return fmt.Sprintf("%s: %d/%d documents analyzed, %d failed, elapsed: %v",
		bs.Operation, bs.Succeeded, bs.Total, bs.Failed, bs.Duration.Round(time.Millisecond))
}

// TimedOperation executes a function and logs timing information
func TimedOperation(operation string, logger Logger, fn func() error) error {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	start := time.Now()
	err := fn()

	fields := Fields{
		"operation": operation,
		"duration":  time.Since(start).String(),
	}
	if err != nil {
		fields["status"] = "error"
		logger.WithError(err).WithFields(fields).Error("Operation failed")
	} else {
		fields["status"] = "success"
		logger.WithFields(fields).Debug("Operation completed successfully")
	}

	return err
}
