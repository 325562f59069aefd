package logic

import "time"

// Button turns polled raw samples into debounced click and long-press events.
// It is not safe for concurrent use; Poll and every other method must be
// called from the same goroutine.
type Button struct {
	input  Sampler
	cfg    Config
	active Level

	previous Level
	current  Level

	state      State
	clicks     int
	pressedFor time.Duration

	sincePressed Timer
	sinceRepeat  Timer

	handler Handler
}

// NewButton creates a Button reading from input, with timers driven by now.
func NewButton(input Sampler, cfg Config, now func() time.Time) *Button {
	return NewButtonWithTimers(input, cfg, NewStopwatch(now), NewStopwatch(now))
}

// NewButtonWithTimers creates a Button using the given timers for the
// time since the last press edge and the time since the last long-press repeat.
func NewButtonWithTimers(input Sampler, cfg Config, sincePressed, sinceRepeat Timer) *Button {
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	active := cfg.ActiveLevel()
	idle := High
	if active == High {
		idle = Low
	}
	return &Button{
		input:        input,
		cfg:          cfg,
		active:       active,
		previous:     idle,
		current:      idle,
		sincePressed: sincePressed,
		sinceRepeat:  sinceRepeat,
	}
}

// SetDebounce changes the debounce window. It applies from the next Poll.
func (b *Button) SetDebounce(d time.Duration) {
	if d < 0 {
		d = 0
	}
	b.cfg.Debounce = d
}

// SetHandler replaces the event handler. A nil handler disables events.
func (b *Button) SetHandler(h Handler) {
	b.handler = h
}

// Config returns the current configuration.
func (b *Button) Config() Config {
	return b.cfg
}

// State returns the current session state.
func (b *Button) State() State {
	return b.state
}

// IsDebounced reports whether the last polled sample is the active level.
func (b *Button) IsDebounced() bool {
	return b.current == b.active
}

// IsRaw samples the input now and reports whether it is the active level.
// History is not updated.
func (b *Button) IsRaw() bool {
	return b.input.Sample() == b.active
}

// ClickCount returns the clicks in the current or just finished session.
func (b *Button) ClickCount() int {
	return b.clicks
}

// LastPressDuration returns how long the most recently resolved press was held.
func (b *Button) LastPressDuration() time.Duration {
	return b.pressedFor
}

// Poll samples the input once and fires at most one event.
func (b *Button) Poll() {
	b.previous = b.current
	b.current = b.input.Sample()

	pressed := b.current == b.active
	wasPressed := b.previous == b.active

	if pressed && !wasPressed {
		// Every fresh contact restarts debounce, including later clicks.
		b.sincePressed.Reset()
		b.sinceRepeat.Reset()
		b.state = StateDebouncing
		return
	}

	if pressed {
		b.pollPressed()
		return
	}
	b.pollReleased()
}

func (b *Button) pollPressed() {
	switch b.state {
	case StateDebouncing:
		if b.sincePressed.Elapsed() >= b.cfg.Debounce {
			b.clicks++
			b.state = StatePressed
			b.emit(EventPressed)
		}

	case StatePressed:
		// Only an isolated first click escalates to a long press.
		if b.clicks == 1 && b.sincePressed.Elapsed() >= b.cfg.LongPress {
			b.pressedFor = b.sincePressed.Elapsed()
			b.sinceRepeat.Reset()
			b.state = StateLongPress
			b.emit(EventLongPressFirst)
		}

	case StateLongPress:
		if b.sinceRepeat.Elapsed() >= b.cfg.LongPressRepeat {
			b.pressedFor = b.sincePressed.Elapsed()
			b.sinceRepeat.Reset()
			b.emit(EventLongPressRepeat)
		}
	}
	// StateIdle and StateReleased while held are only reachable after Reset;
	// they wait for the next edge.
}

func (b *Button) pollReleased() {
	switch b.state {
	case StateDebouncing:
		// Contact dropped before debounce elapsed.
		if b.clicks > 0 {
			b.state = StateReleased
		} else {
			b.state = StateIdle
		}

	case StatePressed:
		b.pressedFor = b.sincePressed.Elapsed()
		b.state = StateReleased
		b.emit(EventReleased)

	case StateLongPress:
		b.pressedFor = b.sincePressed.Elapsed()
		b.emit(EventLongPressFinish)
		b.endSession()

	case StateReleased:
		if b.sincePressed.Elapsed() >= b.cfg.MultiClick {
			b.emit(EventClickFinish)
			b.endSession()
		}
	}
}

func (b *Button) endSession() {
	b.clicks = 0
	b.state = StateIdle
}

func (b *Button) emit(ev EventType) {
	if b.handler != nil {
		b.handler(b, ev)
	}
}

// Reset abandons the current session and detaches the handler. Configuration
// and sample history are kept, so a held button is not seen as a new press.
func (b *Button) Reset() {
	b.sincePressed.Reset()
	b.sinceRepeat.Reset()
	b.endSession()
	b.handler = nil
}
