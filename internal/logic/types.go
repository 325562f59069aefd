// Package logic contains the pure button event state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via Timer or a func() time.Time clock.
package logic

import "time"

// Level is a raw electrical sample of the input line.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// EventType is a semantic button event delivered to the Handler.
type EventType string

const (
	EventPressed         EventType = "PRESSED"
	EventReleased        EventType = "RELEASED"
	EventClickFinish     EventType = "CLICK_FINISH"
	EventLongPressFirst  EventType = "LONGPRESS_FIRST"
	EventLongPressRepeat EventType = "LONGPRESS_REPEAT"
	EventLongPressFinish EventType = "LONGPRESS_FINISH"
)

// EventTypes lists every event in declaration order.
var EventTypes = []EventType{
	EventPressed,
	EventReleased,
	EventClickFinish,
	EventLongPressFirst,
	EventLongPressRepeat,
	EventLongPressFinish,
}

// State is the state of the click session.
type State uint8

const (
	// StateIdle: not pressed, no pending session.
	StateIdle State = iota
	// StateDebouncing: input just went active, debounce window not elapsed.
	StateDebouncing
	// StatePressed: debounce elapsed and PRESSED fired.
	StatePressed
	// StateLongPress: first click held past the long-press threshold.
	StateLongPress
	// StateReleased: released after a click, waiting for the multiclick window.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDebouncing:
		return "DEBOUNCING"
	case StatePressed:
		return "PRESSED"
	case StateLongPress:
		return "LONGPRESS"
	case StateReleased:
		return "RELEASED"
	}
	return "UNKNOWN"
}

// Default timings.
const (
	DefaultDebounce        = 50 * time.Millisecond
	DefaultLongPress       = 250 * time.Millisecond
	DefaultLongPressRepeat = 250 * time.Millisecond
	DefaultMultiClick      = 300 * time.Millisecond
)

// Config holds the button timings and polarity.
type Config struct {
	// Debounce is how long the input must stay active before PRESSED fires.
	Debounce time.Duration
	// LongPress is how long the first click must be held for LONGPRESS_FIRST.
	LongPress time.Duration
	// LongPressRepeat is the interval between LONGPRESS_REPEAT events.
	LongPressRepeat time.Duration
	// MultiClick is the window, measured from the last press edge, in which
	// another press continues the session.
	MultiClick time.Duration
	// ActiveLow means a Low sample is a pressed button (pull-up wiring).
	ActiveLow bool
}

// DefaultConfig returns the default timings for an active-low button.
func DefaultConfig() Config {
	return Config{
		Debounce:        DefaultDebounce,
		LongPress:       DefaultLongPress,
		LongPressRepeat: DefaultLongPressRepeat,
		MultiClick:      DefaultMultiClick,
		ActiveLow:       true,
	}
}

// ActiveLevel returns the raw level that means pressed.
func (c Config) ActiveLevel() Level {
	if c.ActiveLow {
		return Low
	}
	return High
}

// Sampler returns the instantaneous raw level of the input.
type Sampler interface {
	Sample() Level
}

// SamplerFunc adapts a function to a Sampler.
type SamplerFunc func() Level

// Sample calls f.
func (f SamplerFunc) Sample() Level {
	return f()
}

// Handler receives button events synchronously from Poll.
type Handler func(b *Button, ev EventType)

// Event is an emitted button event captured for publishing.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Clicks     int
	PressedFor time.Duration
}

// EventCounts tracks the number of each event type since startup.
type EventCounts map[EventType]int

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
