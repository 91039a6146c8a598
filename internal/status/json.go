package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string            `json:"event,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Light         string            `json:"light"`
	Sound         string            `json:"sound,omitempty"`
	Ready         bool              `json:"ready"`
	Booked        map[string]string `json:"booked"`
	InBooking     []string          `json:"in_booking"`
	InReturning   []string          `json:"in_returning"`
	Present       []string          `json:"present"`
	Escalation    *EscalationJSON   `json:"escalation,omitempty"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	StartTime     string            `json:"start_time"`
	Timestamp     string            `json:"timestamp"`
	MQTT          MQTTStatus        `json:"mqtt"`
	Counts        CountsJSON        `json:"event_counts"`
	Network       *NetworkJSON      `json:"network,omitempty"`
	Config        ConfigJSON        `json:"config"`
}

// EscalationJSON describes a latched unauthorized removal.
type EscalationJSON struct {
	Stage int    `json:"stage"`
	Tag   string `json:"tag"`
	Since string `json:"since"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Enters       int `json:"enters"`
	Exits        int `json:"exits"`
	Cards        int `json:"cards"`
	CheckedOut   int `json:"checked_out"`
	Returned     int `json:"returned"`
	Unauthorized int `json:"unauthorized"`
	Anomalies    int `json:"anomalies"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of booth config.
type ConfigJSON struct {
	TickMs           int64  `json:"tick_ms"`
	PresenceWindowMs int64  `json:"presence_window_ms"`
	CardWindowMs     int64  `json:"card_window_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	b := snap.Booking
	booked := b.Booked
	if booked == nil {
		booked = map[string]string{}
	}

	inner := StatusInner{
		Light:         snap.Light.String(),
		Sound:         string(snap.Sound),
		Ready:         snap.Ready,
		Booked:        booked,
		InBooking:     nonNil(b.InBooking),
		InReturning:   nonNil(b.InReturning),
		Present:       nonNil(snap.Present),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Enters:       b.Counts.Enters,
			Exits:        b.Counts.Exits,
			Cards:        b.Counts.Cards,
			CheckedOut:   b.Counts.CheckedOut,
			Returned:     b.Counts.Returned,
			Unauthorized: b.Counts.Unauthorized,
			Anomalies:    b.Counts.Anomalies,
		},
		Config: ConfigJSON{
			TickMs:           snap.Config.TickMs,
			PresenceWindowMs: snap.Config.PresenceWindowMs,
			CardWindowMs:     snap.Config.CardWindowMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}
	if e := b.Escalation; e != nil {
		inner.Escalation = &EscalationJSON{
			Stage: e.Stage,
			Tag:   e.Tag,
			Since: e.Since.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
