package logger

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestBatchTracker(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel, JSONFormat)

	tracker := NewBatchTracker("analyze", 5, log)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i == 0 {
				err = fmt.Errorf("password required")
			}
			tracker.Done(fmt.Sprintf("doc-%d.pdf", i), err)
		}(i)
	}
	wg.Wait()

	stats := tracker.Complete()
	if stats.Succeeded != 3 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 3 succeeded and 1 failed", stats)
	}
	if stats.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", stats.Pending())
	}
	if !strings.Contains(stats.String(), "3/5 documents analyzed, 1 failed") {
		t.Errorf("String() = %q", stats.String())
	}

	output := buf.String()
	for _, want := range []string{"Document failed", "Batch completed", `"component":"progress"`} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %q", want)
		}
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, DebugLevel, JSONFormat)

	if err := TimedOperation("render", log, func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failure := fmt.Errorf("boom")
	if err := TimedOperation("render", log, func() error { return failure }); err != failure {
		t.Fatalf("TimedOperation() = %v, want the function's error", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"status":"success"`) || !strings.Contains(output, `"status":"error"`) {
		t.Errorf("expected both statuses in output, got %s", output)
	}
}
