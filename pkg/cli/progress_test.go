package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestProgressRendersCounts(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Update(50)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "50/100") {
		t.Errorf("expected midpoint counts in output, got %q", output)
	}
	if !strings.Contains(output, "100/100") {
		t.Errorf("expected final counts from Finish, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Finish should end the progress line with a newline")
	}
}

func TestProgressCountOnlyMode(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(0)
	progress.Update(7)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "7 scanned") {
		t.Errorf("expected count-only rendering with unknown total, got %q", output)
	}
	if strings.Contains(output, "%") {
		t.Errorf("count-only mode should not render a percentage, got %q", output)
	}
}

func TestProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Error(errors.New("storage closed"))

	output := buf.String()
	if !strings.Contains(output, "aborted") {
		t.Errorf("expected abort marker in output, got %q", output)
	}
	if !strings.Contains(output, "storage closed") {
		t.Errorf("expected the cause in output, got %q", output)
	}
}

func TestProgressConcurrentUpdates(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				progress.Update(int64(base*100 + j))
			}
		}(i)
	}
	wg.Wait()

	progress.Finish()

	if buf.Len() == 0 {
		t.Error("expected progress output after concurrent updates")
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil)
	if progress == nil {
		t.Fatal("NewProgressReporter(nil) returned nil")
	}
}
