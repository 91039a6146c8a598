package logic

import "time"

// CardDebouncer emits one CARD event per physical card presentation.
type CardDebouncer struct {
	forget  time.Duration
	current string
	tracked bool
	expires Deadline
}

// NewCardDebouncer creates a debouncer that discards a reading once no card
// has been seen for longer than forget.
func NewCardDebouncer(forget time.Duration) *CardDebouncer {
	return &CardDebouncer{forget: forget}
}

// Process takes one card poll. ok is false when no card was read.
// Returns the CARD event to emit, or nil.
func (c *CardDebouncer) Process(card string, ok bool, now time.Time) *Event {
	if !ok {
		if c.tracked && c.expires.Overdue(now) {
			c.tracked = false
			c.current = ""
		}
		return nil
	}

	var event *Event
	if !c.tracked || c.current != card {
		event = &Event{Timestamp: now, Type: EventCard, Card: card}
	}
	c.current = card
	c.tracked = true
	c.expires = After(now, c.forget)
	return event
}

// Current returns the tracked card, if any.
func (c *CardDebouncer) Current() (string, bool) {
	return c.current, c.tracked
}
