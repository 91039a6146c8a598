package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/kit-booth/internal/logger"
)

// publishTimeout bounds the wait for a broker acknowledgement.
const publishTimeout = time.Second

// Options configures the broker connection.
type Options struct {
	Broker      string
	ClientID    string
	EventTopic  string
	SystemTopic string
	BufferSize  int
}

// RealClient publishes to and subscribes on an actual MQTT broker.
// Messages published while disconnected are buffered and replayed on reconnect.
type RealClient struct {
	client      paho.Client
	eventTopic  string
	systemTopic string

	mu     sync.Mutex
	buffer *ringBuffer
	subs   map[string]func([]byte)
}

// Connect creates a client for the given broker and starts connecting.
// A broker that is not reachable yet is not an error: the client keeps
// retrying in the background and buffers publishes meanwhile.
func Connect(ctx context.Context, opts Options) (*RealClient, error) {
	if opts.EventTopic == "" {
		opts.EventTopic = TopicEvents
	}
	if opts.SystemTopic == "" {
		opts.SystemTopic = TopicSystem
	}
	if opts.ClientID == "" {
		opts.ClientID = "kit-booth"
	}

	c := &RealClient{
		eventTopic:  opts.EventTopic,
		systemTopic: opts.SystemTopic,
		buffer:      newRingBuffer(opts.BufferSize),
		subs:        make(map[string]func([]byte)),
	}

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(opts.SystemTopic, string(WillPayload()), 1, true).
		SetOnConnectHandler(func(paho.Client) { c.onConnect(ctx) }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WarnKV(ctx, "mqtt connection lost", "error", err)
		})

	c.client = paho.NewClient(po)
	token := c.client.Connect()
	if token.WaitTimeout(10 * time.Second) {
		if err := token.Error(); err != nil {
			return nil, fmt.Errorf("connect to broker: %w", err)
		}
	} else {
		logger.WarnKV(ctx, "mqtt broker not reachable yet, retrying in background", "broker", opts.Broker)
	}
	return c, nil
}

// onConnect restores subscriptions and replays the offline buffer.
func (c *RealClient) onConnect(ctx context.Context) {
	logger.InfoKV(ctx, "mqtt connected")

	c.mu.Lock()
	subs := make(map[string]func([]byte), len(c.subs))
	for topic, h := range c.subs {
		subs[topic] = h
	}
	pending := c.buffer.drainAll()
	c.mu.Unlock()

	for topic, h := range subs {
		if err := c.subscribe(topic, h); err != nil {
			logger.ErrorKV(ctx, "mqtt resubscribe failed", "topic", topic, "error", err)
		}
	}

	for _, msg := range pending {
		token := c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			logger.WarnKV(ctx, "mqtt replay timeout", "topic", msg.topic)
			continue
		}
		if err := token.Error(); err != nil {
			logger.WarnKV(ctx, "mqtt replay failed", "topic", msg.topic, "error", err)
		}
	}
	if len(pending) > 0 {
		logger.InfoKV(ctx, "mqtt replayed buffered messages", "count", len(pending))
	}
}

// Subscribe registers handler for topic. The subscription is restored after
// every reconnect.
func (c *RealClient) Subscribe(topic string, handler func(payload []byte)) error {
	c.mu.Lock()
	c.subs[topic] = handler
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		return nil
	}
	return c.subscribe(topic, handler)
}

func (c *RealClient) subscribe(topic string, handler func([]byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ paho.Client, m paho.Message) {
		handler(m.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// Publish sends a booking event to the broker.
func (c *RealClient) Publish(event BookingEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return c.send(bufferedMsg{topic: c.eventTopic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the broker.
func (c *RealClient) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) - lifecycle events should arrive
	return c.send(bufferedMsg{topic: c.systemTopic, payload: payload, qos: 1, retained: event.Retained})
}

func (c *RealClient) send(msg bufferedMsg) error {
	if !c.client.IsConnectionOpen() {
		c.mu.Lock()
		c.buffer.push(msg)
		c.mu.Unlock()
		return nil
	}

	token := c.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (c *RealClient) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer.len()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
