package logic

import "time"

// Timer measures time elapsed since it was last reset.
type Timer interface {
	Reset()
	Elapsed() time.Duration
}

// Stopwatch is a Timer driven by a clock function.
type Stopwatch struct {
	now   func() time.Time
	start time.Time
}

// NewStopwatch creates a Stopwatch started at now().
func NewStopwatch(now func() time.Time) *Stopwatch {
	return &Stopwatch{now: now, start: now()}
}

// Reset sets the elapsed time back to zero.
func (s *Stopwatch) Reset() {
	s.start = s.now()
}

// Elapsed returns the time since the last reset. A clock that steps
// backwards reports zero.
func (s *Stopwatch) Elapsed() time.Duration {
	d := s.now().Sub(s.start)
	if d < 0 {
		return 0
	}
	return d
}
