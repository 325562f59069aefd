package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/button-events/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Name          string         `json:"name"`
	State         string         `json:"state"`
	Pressed       bool           `json:"pressed"`
	Clicks        int            `json:"clicks"`
	LastPressMs   int64          `json:"last_press_ms"`
	LastEvent     *LastEventJSON `json:"last_event,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"event_counts"`
	Config        ConfigJSON     `json:"config"`
}

// LastEventJSON describes the most recent button event.
type LastEventJSON struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Clicks    int    `json:"clicks"`
	PressedMs int64  `json:"pressed_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Pressed         int `json:"pressed"`
	Released        int `json:"released"`
	ClickFinish     int `json:"click_finish"`
	LongPressFirst  int `json:"longpress_first"`
	LongPressRepeat int `json:"longpress_repeat"`
	LongPressFinish int `json:"longpress_finish"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend           string `json:"backend"`
	Chip              string `json:"chip,omitempty"`
	Pin               int    `json:"pin"`
	Pull              string `json:"pull"`
	ActiveLow         bool   `json:"active_low"`
	PollMs            int64  `json:"poll_ms"`
	DebounceMs        int64  `json:"debounce_ms"`
	LongPressMs       int64  `json:"longpress_ms"`
	LongPressRepeatMs int64  `json:"longpress_repeat_ms"`
	MultiClickMs      int64  `json:"multiclick_ms"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	Broker            string `json:"broker"`
	HTTPAddr          string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	c := snap.Config
	inner := StatusInner{
		Name:          c.Name,
		State:         snap.State.String(),
		Pressed:       snap.Pressed,
		Clicks:        snap.Clicks,
		LastPressMs:   snap.LastPress.Milliseconds(),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: c.Broker},
		Counts: CountsJSON{
			Pressed:         snap.Counts[logic.EventPressed],
			Released:        snap.Counts[logic.EventReleased],
			ClickFinish:     snap.Counts[logic.EventClickFinish],
			LongPressFirst:  snap.Counts[logic.EventLongPressFirst],
			LongPressRepeat: snap.Counts[logic.EventLongPressRepeat],
			LongPressFinish: snap.Counts[logic.EventLongPressFinish],
		},
		Config: ConfigJSON{
			Backend:           c.Backend,
			Chip:              c.Chip,
			Pin:               c.Pin,
			Pull:              c.Pull,
			ActiveLow:         c.ActiveLow,
			PollMs:            c.PollMs,
			DebounceMs:        c.DebounceMs,
			LongPressMs:       c.LongPressMs,
			LongPressRepeatMs: c.LongPressRepeatMs,
			MultiClickMs:      c.MultiClickMs,
			HeartbeatMs:       c.HeartbeatMs,
			Broker:            c.Broker,
			HTTPAddr:          c.HTTPAddr,
		},
	}
	if ev := snap.LastEvent; ev != nil {
		j := eventJSON(*ev)
		inner.LastEvent = &j
	}
	return inner
}

func eventJSON(ev logic.Event) LastEventJSON {
	return LastEventJSON{
		Event:     string(ev.Type),
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
		Clicks:    ev.Clicks,
		PressedMs: ev.PressedFor.Milliseconds(),
	}
}

// EventsJSON lists recent button events, newest first.
type EventsJSON struct {
	Name   string          `json:"name"`
	Events []LastEventJSON `json:"events"`
}

// FormatEvents returns the recent events document for the web endpoint.
func FormatEvents(snap Snapshot) []byte {
	doc := EventsJSON{Name: snap.Config.Name, Events: make([]LastEventJSON, 0, len(snap.Recent))}
	for _, ev := range snap.Recent {
		doc.Events = append(doc.Events, eventJSON(ev))
	}
	data, _ := json.MarshalIndent(doc, "", "  ")
	return data
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
