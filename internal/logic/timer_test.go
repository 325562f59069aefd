package logic

import (
	"testing"
	"time"
)

func TestStopwatch(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sw := NewStopwatch(func() time.Time { return now })

	if sw.Elapsed() != 0 {
		t.Errorf("new stopwatch: got %v, want 0", sw.Elapsed())
	}

	now = now.Add(120 * time.Millisecond)
	if sw.Elapsed() != 120*time.Millisecond {
		t.Errorf("after 120ms: got %v", sw.Elapsed())
	}

	sw.Reset()
	if sw.Elapsed() != 0 {
		t.Errorf("after reset: got %v, want 0", sw.Elapsed())
	}

	now = now.Add(30 * time.Millisecond)
	if sw.Elapsed() != 30*time.Millisecond {
		t.Errorf("after 30ms: got %v", sw.Elapsed())
	}
}

func TestStopwatchClockStepsBack(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sw := NewStopwatch(func() time.Time { return now })

	now = now.Add(-time.Second)
	if sw.Elapsed() != 0 {
		t.Errorf("backwards clock: got %v, want 0", sw.Elapsed())
	}
}
