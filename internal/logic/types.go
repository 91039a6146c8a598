// Package logic contains the pure booking logic of the kit booth.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// EventType identifies what a tracker observed.
type EventType string

const (
	EventEnter EventType = "ENTER"
	EventExit  EventType = "EXIT"
	EventCard  EventType = "CARD"
)

// Event is a debounced observation produced by a tracker.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Tag       string // set for ENTER and EXIT
	Card      string // set for CARD
}

// Light is the commanded state of the booth indicator.
type Light int

const (
	LightIdle Light = iota
	LightWarning
	LightMistake
	LightError
	LightNotification
	LightInitial
)

var lightNames = [...]string{"idle", "warning", "mistake", "error", "notification", "initial"}

func (l Light) String() string {
	if l < 0 || int(l) >= len(lightNames) {
		return "unknown"
	}
	return lightNames[l]
}

// Sound is the name of an audio clip.
type Sound string

const (
	SoundPleasePlace Sound = "please_place"
	SoundDoNotLeave  Sound = "do_not_leave"
	SoundReturned    Sound = "returned"
	SoundChecked     Sound = "checked"
	SoundAlarmSoon   Sound = "alarm_soon"
	SoundAlarm       Sound = "alarm"
)

// NoticeKind classifies a booking outcome worth reporting downstream.
type NoticeKind string

const (
	NoticeCheckedOut      NoticeKind = "CHECKED_OUT"
	NoticeReturned        NoticeKind = "RETURNED"
	NoticeReturnConfirmed NoticeKind = "RETURN_CONFIRMED"
	NoticeUnauthorized    NoticeKind = "UNAUTHORIZED_REMOVAL"
	NoticeEscalated       NoticeKind = "ESCALATED"
	NoticeRecovered       NoticeKind = "RECOVERED"
	NoticeAnomaly         NoticeKind = "ANOMALY"
)

// Notice is a booking outcome. Card is set for checkouts and returns,
// Stage for escalation notices.
type Notice struct {
	Timestamp time.Time
	Kind      NoticeKind
	Tag       string
	Card      string
	Stage     int
}

// Batch is everything drained from the tracker buffers for one tick.
type Batch struct {
	Exits  []string
	Enters []string
	Card   *string
}

// Empty reports whether the batch carries no events.
func (b Batch) Empty() bool {
	return len(b.Exits) == 0 && len(b.Enters) == 0 && b.Card == nil
}

// Commands is the output of one coordinator tick.
// Light and Sound are nil when the tick issued no command.
type Commands struct {
	Light   *Light
	Sound   *Sound
	Notices []Notice
}

// Escalation records an unresolved unauthorized removal.
type Escalation struct {
	Stage    int
	Tag      string
	Since    time.Time
	deadline Deadline
}

// EventCounts tracks coordinator activity since startup.
type EventCounts struct {
	Enters       int
	Exits        int
	Cards        int
	CheckedOut   int
	Returned     int
	Unauthorized int
	Anomalies    int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// Snapshot is a read-only copy of the coordinator state.
type Snapshot struct {
	Booked      map[string]string
	InBooking   []string
	InReturning []string
	Escalation  *Escalation
	Counts      EventCounts
}
