package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
)

// capture redirects logger output to a buffer for the duration of the test.
func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)

	if IsVerbose() {
		t.Error("verbose must start disabled")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Error("SetVerbose(true) must enable verbose")
	}
	SetVerbose(false)
	if IsVerbose() {
		t.Error("SetVerbose(false) must disable verbose")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{
			name: "debug",
			log:  func() { Debug("embedded chunk %s in %dms", "a1b2c3d4:0", 12) },
			want: "[DEBUG] embedded chunk a1b2c3d4:0 in 12ms\n",
		},
		{
			name: "info",
			log:  func() { Info("ingesting %d documents", 3) },
			want: "[INFO] ingesting 3 documents\n",
		},
		{
			name: "warn",
			log:  func() { Warn("batch embedding failed, retrying per chunk") },
			want: "[WARN] batch embedding failed, retrying per chunk\n",
		},
		{
			name: "section",
			log:  func() { Section("Retrieval") },
			want: "\n=== Retrieval ===\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("upserted %d records", 7)
	Info("should stay quiet")
	Section("Ingestion")

	if buf.Len() > 0 {
		t.Errorf("expected silence when verbose is off, got %q", buf.String())
	}
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	// No assertion; the race detector catches unsynchronized access.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("worker %d finished", n)
			IsVerbose()
			SetVerbose(false)
		}(i)
	}
	wg.Wait()
}
