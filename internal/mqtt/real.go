package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/button-events/internal/logic"
)

// bufferCapacity is the number of messages queued while the broker is slow
// or unreachable.
const bufferCapacity = 100

// publishTimeout bounds how long the sender waits for a broker acknowledgement.
const publishTimeout = 5 * time.Second

// pahoClient is the subset of paho.Client used by RealPublisher.
type pahoClient interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Publish and PublishSystem
// only queue the message; a single sender goroutine delivers the queue in
// order whenever the connection is open, so events published while the
// broker is down are replayed on reconnect ahead of anything newer.
type RealPublisher struct {
	client pahoClient
	name   string

	mu  sync.Mutex
	buf *ringBuffer

	wake      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newPublisher(name string) *RealPublisher {
	return &RealPublisher{
		name: name,
		buf:  newRingBuffer(bufferCapacity),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// NewRealPublisher creates a publisher for the named button and starts
// connecting to broker in the background. A retained OFFLINE message is
// registered as the will.
func NewRealPublisher(broker, name string) *RealPublisher {
	p := newPublisher(name)

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE"})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("button-events-" + name).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(30 * time.Second).
		SetWill(TopicSystem(name), string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Printf("mqtt: connected to %s", broker)
			p.kick()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	client := paho.NewClient(opts)
	p.client = client
	p.start()
	client.Connect()
	return p
}

// Publish queues a button event for the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(p.name, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1 (at-least-once), not retained
	p.enqueue(message{topic: Topic(p.name), payload: payload, qos: 1})
	return nil
}

// PublishSystem queues a system lifecycle event for the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	p.enqueue(message{topic: TopicSystem(p.name), payload: payload, qos: 1, retained: event.Retained})
	return nil
}

func (p *RealPublisher) enqueue(msg message) {
	p.mu.Lock()
	if p.buf.push(msg) && p.buf.dropped == 1 {
		log.Printf("mqtt: buffer full (%d messages), dropping oldest", bufferCapacity)
	}
	p.mu.Unlock()
	p.kick()
}

// kick wakes the sender. Wakeups coalesce.
func (p *RealPublisher) kick() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *RealPublisher) start() {
	p.wg.Add(1)
	go p.run()
}

func (p *RealPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.done:
			return
		}
	}
}

// drain publishes queued messages oldest first until the queue is empty or
// the connection is down. It must only run on one goroutine at a time.
func (p *RealPublisher) drain() {
	for p.client.IsConnectionOpen() {
		p.mu.Lock()
		msg, ok := p.buf.pop()
		dropped := p.buf.takeDropped()
		p.mu.Unlock()

		if dropped > 0 {
			log.Printf("mqtt: %d messages dropped while the broker was unreachable", dropped)
		}
		if !ok {
			return
		}
		if err := p.publish(msg); err != nil {
			log.Printf("mqtt: %v", err)
		}
	}
}

func (p *RealPublisher) publish(msg message) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// Buffered returns the number of messages waiting to be sent.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close stops the sender, delivers what is still queued if connected, and
// disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.drain()
		if n := p.Buffered(); n > 0 {
			log.Printf("mqtt: discarding %d unsent messages", n)
		}
		p.client.Disconnect(1000) // 1 second timeout
	})
	return nil
}
