package logic

import (
	"sort"
	"time"
)

// DefaultStageTimeouts is how long an escalation stays in stages 0, 1 and 2.
// Stage 3 never advances.
var DefaultStageTimeouts = []time.Duration{0, 3 * time.Second, 6 * time.Second}

// MaxStage is the final escalation stage.
const MaxStage = 3

// Coordinator is the booking state machine. It is not safe for concurrent
// use; the coordinator loop owns it.
type Coordinator struct {
	stageTimeouts []time.Duration

	booked      map[string]string
	inBooking   map[string]struct{}
	inReturning map[string]struct{}
	escalation  *Escalation

	startTime     time.Time
	lastHeartbeat time.Time
	counts        EventCounts
}

// NewCoordinator creates a coordinator with the given per-stage timeouts.
// Stages without a timeout never advance. The startTime is used for
// calculating uptime in heartbeat events.
func NewCoordinator(stageTimeouts []time.Duration, startTime time.Time) *Coordinator {
	if stageTimeouts == nil {
		stageTimeouts = DefaultStageTimeouts
	}
	return &Coordinator{
		stageTimeouts: stageTimeouts,
		booked:        make(map[string]string),
		inBooking:     make(map[string]struct{}),
		inReturning:   make(map[string]struct{}),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// tick accumulates the commands of a single Tick call.
type tick struct {
	now time.Time
	out Commands
}

func (t *tick) light(l Light) { t.out.Light = &l }
func (t *tick) sound(s Sound) { t.out.Sound = &s }

func (t *tick) notice(kind NoticeKind, tag, card string, stage int) {
	t.out.Notices = append(t.out.Notices, Notice{
		Timestamp: t.now,
		Kind:      kind,
		Tag:       tag,
		Card:      card,
		Stage:     stage,
	})
}

// Tick applies one drained batch of events and advances the escalation timer.
// Exits are applied before enters, then the card, then the timer.
// At most one light and one sound command result; later writes win.
func (c *Coordinator) Tick(batch Batch, now time.Time) Commands {
	t := &tick{now: now}

	for _, tag := range batch.Exits {
		c.counts.Exits++
		c.exit(t, tag)
	}
	for _, tag := range batch.Enters {
		c.counts.Enters++
		c.enter(t, tag)
	}
	if batch.Card != nil {
		c.counts.Cards++
		c.card(t, *batch.Card)
	}
	c.advance(t)

	return t.out
}

func (c *Coordinator) exit(t *tick, tag string) {
	if c.escalation != nil {
		return
	}

	if _, ok := c.inBooking[tag]; ok {
		delete(c.inBooking, tag)
		if _, claimed := c.booked[tag]; claimed {
			return
		}
		clear(c.inBooking)
		clear(c.inReturning)
		t.light(LightMistake)
		t.sound(SoundDoNotLeave)
		c.escalation = &Escalation{
			Stage:    0,
			Tag:      tag,
			Since:    t.now,
			deadline: c.stageDeadline(0, t.now),
		}
		c.counts.Unauthorized++
		t.notice(NoticeUnauthorized, tag, "", 0)
		return
	}

	if _, ok := c.inReturning[tag]; ok {
		delete(c.inReturning, tag)
		t.notice(NoticeReturnConfirmed, tag, "", 0)
		return
	}

	t.light(LightError)
	c.counts.Anomalies++
	t.notice(NoticeAnomaly, tag, c.booked[tag], 0)
}

func (c *Coordinator) enter(t *tick, tag string) {
	if c.escalation != nil {
		if tag != c.escalation.Tag {
			return
		}
		stage := c.escalation.Stage
		c.escalation = nil
		t.notice(NoticeRecovered, tag, "", stage)
	}

	if _, ok := c.inBooking[tag]; ok {
		return
	}
	if _, ok := c.inReturning[tag]; ok {
		return
	}

	card, booked := c.booked[tag]
	if !booked {
		c.inBooking[tag] = struct{}{}
		t.light(LightWarning)
		t.sound(SoundPleasePlace)
		return
	}

	delete(c.booked, tag)
	c.inReturning[tag] = struct{}{}
	t.light(LightNotification)
	t.sound(SoundReturned)
	c.counts.Returned++
	t.notice(NoticeReturned, tag, card, 0)
}

func (c *Coordinator) card(t *tick, card string) {
	if c.escalation != nil || len(c.inBooking) == 0 {
		return
	}

	for _, tag := range sortedKeys(c.inBooking) {
		c.booked[tag] = card
		c.counts.CheckedOut++
		t.notice(NoticeCheckedOut, tag, card, 0)
	}
	clear(c.inBooking)
	t.light(LightNotification)
	t.sound(SoundChecked)
}

// advance moves the escalation at most one stage forward.
func (c *Coordinator) advance(t *tick) {
	e := c.escalation
	if e == nil || !e.deadline.Expired(t.now) {
		return
	}

	e.Stage++
	e.Since = t.now
	e.deadline = c.stageDeadline(e.Stage, t.now)

	switch e.Stage {
	case 2:
		t.sound(SoundAlarmSoon)
	case MaxStage:
		t.light(LightError)
		t.sound(SoundAlarm)
	}
	t.notice(NoticeEscalated, e.Tag, "", e.Stage)
}

func (c *Coordinator) stageDeadline(stage int, now time.Time) Deadline {
	if stage >= MaxStage || stage >= len(c.stageTimeouts) {
		return Never
	}
	return After(now, c.stageTimeouts[stage])
}

// Snapshot returns a copy of the current booking state.
func (c *Coordinator) Snapshot() Snapshot {
	s := Snapshot{
		Booked:      make(map[string]string, len(c.booked)),
		InBooking:   sortedKeys(c.inBooking),
		InReturning: sortedKeys(c.inReturning),
		Counts:      c.counts,
	}
	for tag, card := range c.booked {
		s.Booked[tag] = card
	}
	if c.escalation != nil {
		e := *c.escalation
		s.Escalation = &e
	}
	return s
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Coordinator) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}
	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
