// Package mqtt connects the booth to the broker: it subscribes to the tag
// and card reader gateways and publishes booking and lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/kit-booth/internal/logic"
)

// Default topics.
const (
	TopicEvents = "kitbooth/booking/events"
	TopicSystem = "kitbooth/booking/system"
	TopicTags   = "kitbooth/rfid/tags"
	TopicCard   = "kitbooth/card/reading"
)

// Publisher publishes booth events to MQTT.
type Publisher interface {
	// Publish sends a booking event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event BookingEvent) error
	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error
	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Backlog is implemented by publishers that hold messages while the
// broker is unreachable.
type Backlog interface {
	Buffered() int
}

// BookingEvent is a coordinator notice, optionally enriched with the
// identity of the member who owns the card.
type BookingEvent struct {
	Notice logic.Notice
	Member string
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the booking event message structure.
type Payload struct {
	Booking BookingPayload `json:"booking"`
}

// BookingPayload contains the booking event details.
type BookingPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Tag       string `json:"tag"`
	Card      string `json:"card,omitempty"`
	Member    string `json:"member,omitempty"`
	Stage     *int   `json:"stage,omitempty"`
}

// FormatPayload creates the JSON payload for a booking event.
// Stage is only included for escalation notices.
func FormatPayload(event BookingEvent) ([]byte, error) {
	n := event.Notice
	p := BookingPayload{
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(n.Kind),
		Tag:       n.Tag,
		Card:      n.Card,
		Member:    event.Member,
	}
	switch n.Kind {
	case logic.NoticeUnauthorized, logic.NoticeEscalated, logic.NoticeRecovered:
		stage := n.Stage
		p.Stage = &stage
	}
	return json.Marshal(Payload{Booking: p})
}

// SystemPayload represents the message payload for simple system events
// (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// WillPayload is the retained last-will message the broker publishes if the
// booth disappears without a clean shutdown.
func WillPayload() []byte {
	data, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: "OFFLINE", Reason: "CONNECTION_LOST"}})
	return data
}
