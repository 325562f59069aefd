package mqtt

// message is a serialized MQTT message queued for publishing.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of messages waiting to be published.
// When full, the oldest message is overwritten.
// Not safe for concurrent use; caller must synchronize.
type ringBuffer struct {
	buf     []message
	head    int // next write position
	count   int
	dropped int // messages overwritten since last takeDropped
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]message, capacity)}
}

// push stores msg and reports whether an older message was dropped.
func (r *ringBuffer) push(msg message) bool {
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
	if r.count == len(r.buf) {
		r.dropped++
		return true
	}
	r.count++
	return false
}

// pop removes and returns the oldest message.
func (r *ringBuffer) pop() (message, bool) {
	if r.count == 0 {
		return message{}, false
	}
	i := (r.head - r.count + len(r.buf)) % len(r.buf)
	msg := r.buf[i]
	r.buf[i] = message{}
	r.count--
	return msg, true
}

// takeDropped returns the number of messages overwritten since the last call.
func (r *ringBuffer) takeDropped() int {
	n := r.dropped
	r.dropped = 0
	return n
}

func (r *ringBuffer) len() int {
	return r.count
}
