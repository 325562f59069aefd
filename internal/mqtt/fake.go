package mqtt

import (
	"github.com/sweeney/button-events/internal/logic"
)

// Sent is one message captured by FakePublisher, as it would go on the wire.
type Sent struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records what would have been published, in order, for
// test assertions. It is not safe for concurrent use.
type FakePublisher struct {
	Name string

	Events       []logic.Event
	SystemEvents []SystemEvent

	// Sent holds every message on both topics in publish order.
	Sent []Sent

	// Set to make the next calls fail without recording.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for the named button.
func NewFakePublisher(name string) *FakePublisher {
	return &FakePublisher{Name: name}
}

func (f *FakePublisher) Publish(event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(f.Name, event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Sent = append(f.Sent, Sent{Topic: Topic(f.Name), Payload: payload})
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.Sent = append(f.Sent, Sent{Topic: TopicSystem(f.Name), Payload: payload, Retained: event.Retained})
	return nil
}

// EventTypes returns the type of every button event published.
func (f *FakePublisher) EventTypes() []logic.EventType {
	out := make([]logic.EventType, len(f.Events))
	for i, ev := range f.Events {
		out[i] = ev.Type
	}
	return out
}

// Payloads returns the button event payloads.
func (f *FakePublisher) Payloads() [][]byte {
	return f.payloadsOn(Topic(f.Name))
}

// SystemPayloads returns the system event payloads.
func (f *FakePublisher) SystemPayloads() [][]byte {
	return f.payloadsOn(TopicSystem(f.Name))
}

func (f *FakePublisher) payloadsOn(topic string) [][]byte {
	var out [][]byte
	for _, s := range f.Sent {
		if s.Topic == topic {
			out = append(out, s.Payload)
		}
	}
	return out
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset forgets everything recorded and clears injected errors. Name is kept.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{Name: f.Name}
}
