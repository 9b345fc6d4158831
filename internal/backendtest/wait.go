package backendtest

import (
	"testing"
	"time"
)

// WaitFor polls condition every 10ms until it returns true or the
// timeout passes, then fails the test. Probe transitions and async
// journal writes need this.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}
		<-ticker.C
	}
}
