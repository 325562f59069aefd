// Package status provides a thread-safe status tracker for the button-events daemon.
// It is written by the poll loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-events/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Name              string
	Backend           string
	Chip              string
	Pin               int
	Pull              string
	ActiveLow         bool
	PollMs            int64
	DebounceMs        int64
	LongPressMs       int64
	LongPressRepeatMs int64
	MultiClickMs      int64
	HeartbeatMs       int64
	Broker            string
	HTTPAddr          string
}

// RecentEvents is how many past button events the tracker keeps.
const RecentEvents = 10

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Pressed       bool
	Clicks        int
	LastPress     time.Duration
	LastEvent     *logic.Event
	Recent        []logic.Event // newest first, at most RecentEvents
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Counts:    logic.EventCounts{},
		},
		now: time.Now,
	}
}

// Update copies the button's observable state and the event counts.
// Called from the poll loop after every poll.
func (t *Tracker) Update(b *logic.Button, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = b.State()
	t.snap.Pressed = b.IsDebounced()
	t.snap.Clicks = b.ClickCount()
	t.snap.LastPress = b.LastPressDuration()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEvent stores a button event as the latest and in the recent list.
func (t *Tracker) RecordEvent(ev logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = &ev
	n := len(t.snap.Recent)
	if n >= RecentEvents {
		n = RecentEvents - 1
	}
	// Always a fresh slice: snapshots share the old one.
	recent := make([]logic.Event, 0, n+1)
	recent = append(recent, ev)
	t.snap.Recent = append(recent, t.snap.Recent[:n]...)
	t.mu.Unlock()
}

// SetDebounce updates the displayed debounce window after a live reload.
func (t *Tracker) SetDebounce(d time.Duration) {
	t.mu.Lock()
	t.snap.Config.DebounceMs = d.Milliseconds()
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	counts := make(logic.EventCounts, len(t.snap.Counts))
	for k, v := range t.snap.Counts {
		counts[k] = v
	}
	t.mu.RUnlock()
	s.Counts = counts
	s.Now = t.now()
	return s
}
