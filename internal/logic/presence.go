package logic

import (
	"sort"
	"time"
)

// PresenceTracker turns raw tag polls into ENTER and EXIT events.
type PresenceTracker struct {
	window  time.Duration
	records map[string]Deadline
}

// NewPresenceTracker creates a tracker that forgets a tag once it has not
// been reported for longer than window.
func NewPresenceTracker(window time.Duration) *PresenceTracker {
	return &PresenceTracker{
		window:  window,
		records: make(map[string]Deadline),
	}
}

// Process takes the tags reported by one poll and returns the resulting events.
// ENTER events come first, in report order, followed by EXIT events sorted by tag.
func (p *PresenceTracker) Process(ids []string, now time.Time) []Event {
	var events []Event

	for _, id := range ids {
		if _, known := p.records[id]; !known {
			events = append(events, Event{Timestamp: now, Type: EventEnter, Tag: id})
		}
		p.records[id] = After(now, p.window)
	}

	var expired []string
	for id, d := range p.records {
		if d.Overdue(now) {
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)

	for _, id := range expired {
		delete(p.records, id)
		// One record per tag, so nothing else can still report it.
		events = append(events, Event{Timestamp: now, Type: EventExit, Tag: id})
	}

	return events
}

// Present returns the tags currently considered present, sorted.
func (p *PresenceTracker) Present() []string {
	ids := make([]string, 0, len(p.records))
	for id := range p.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
