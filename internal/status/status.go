// Package status provides a thread-safe status tracker for the kit booth.
// It is written by the booth loops and read by the web server and the
// heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/kit-booth/internal/logic"
)

// NetworkInfo contains network state as reported by the host helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains booth configuration for display.
type Config struct {
	TickMs           int64
	PresenceWindowMs int64
	CardWindowMs     int64
	HeartbeatMs      int64
	Broker           string
	HTTPAddr         string
}

// Snapshot is a point-in-time view of booth state.
// Booking fields come from a coordinator snapshot and are never mutated
// after being stored, so a Snapshot is safe to use after the lock is released.
type Snapshot struct {
	Booking       logic.Snapshot
	Present       []string
	Light         logic.Light
	Sound         logic.Sound
	Ready         bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the booth started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable booth state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Light:     logic.LightInitial,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update stores the coordinator state. Called by the coordinator loop on
// every tick with a fresh copy.
func (t *Tracker) Update(booking logic.Snapshot) {
	t.mu.Lock()
	t.snap.Booking = booking
	t.mu.Unlock()
}

// SetPresent stores the tags the presence tracker currently sees.
func (t *Tracker) SetPresent(tags []string) {
	t.mu.Lock()
	t.snap.Present = tags
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetReady marks the booth as settled. Presence polling is running, or
// observations come from the console.
func (t *Tracker) SetReady() {
	t.mu.Lock()
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetLight records the light state being shown.
func (t *Tracker) SetLight(l logic.Light) {
	t.mu.Lock()
	t.snap.Light = l
	t.mu.Unlock()
}

// SetSound records the last clip started.
func (t *Tracker) SetSound(s logic.Sound) {
	t.mu.Lock()
	t.snap.Sound = s
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the booth state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
