package logic

import "time"

// Stats counts emitted events and schedules heartbeats.
type Stats struct {
	startTime     time.Time
	counts        EventCounts
	lastHeartbeat time.Time
}

// NewStats creates Stats. The startTime is used for calculating uptime in
// heartbeat events.
func NewStats(startTime time.Time) *Stats {
	return &Stats{
		startTime:     startTime,
		counts:        make(EventCounts, len(EventTypes)),
		lastHeartbeat: startTime,
	}
}

// Record counts one occurrence of ev.
func (s *Stats) Record(ev EventType) {
	s.counts[ev]++
}

// Counts returns a copy of the event counts.
func (s *Stats) Counts() EventCounts {
	out := make(EventCounts, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (s *Stats) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(s.lastHeartbeat) < interval {
		return nil
	}

	s.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(s.startTime),
		Counts:    s.Counts(),
	}
}
