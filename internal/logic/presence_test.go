package logic

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestPresenceEnterOnFirstSighting(t *testing.T) {
	p := NewPresenceTracker(10 * time.Second)

	events := p.Process([]string{"T1"}, t0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventEnter || events[0].Tag != "T1" {
		t.Errorf("expected ENTER T1, got %s %s", events[0].Type, events[0].Tag)
	}
	if !events[0].Timestamp.Equal(t0) {
		t.Errorf("unexpected timestamp: %v", events[0].Timestamp)
	}
}

func TestPresenceNoRepeatedEnter(t *testing.T) {
	p := NewPresenceTracker(10 * time.Second)
	p.Process([]string{"T1"}, t0)

	for i := 1; i <= 20; i++ {
		events := p.Process([]string{"T1"}, t0.Add(time.Duration(i)*100*time.Millisecond))
		if len(events) != 0 {
			t.Fatalf("poll %d: expected no events, got %d", i, len(events))
		}
	}
}

func TestPresenceDuplicateIDsInOnePoll(t *testing.T) {
	p := NewPresenceTracker(10 * time.Second)

	events := p.Process([]string{"T1", "T1", "T2"}, t0)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Tag != "T1" || events[1].Tag != "T2" {
		t.Errorf("unexpected tags: %s, %s", events[0].Tag, events[1].Tag)
	}
}

func TestPresenceExitAfterWindow(t *testing.T) {
	p := NewPresenceTracker(10 * time.Second)
	p.Process([]string{"T1"}, t0)

	// Exactly at the window the tag is still present.
	events := p.Process(nil, t0.Add(10*time.Second))
	if len(events) != 0 {
		t.Fatalf("expected no events at window boundary, got %d", len(events))
	}

	events = p.Process(nil, t0.Add(10*time.Second+100*time.Millisecond))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EventExit || events[0].Tag != "T1" {
		t.Errorf("expected EXIT T1, got %s %s", events[0].Type, events[0].Tag)
	}

	// Exit is emitted once.
	events = p.Process(nil, t0.Add(20*time.Second))
	if len(events) != 0 {
		t.Errorf("expected no further events, got %d", len(events))
	}
}

func TestPresenceSightingRefreshesWindow(t *testing.T) {
	p := NewPresenceTracker(10 * time.Second)
	p.Process([]string{"T1"}, t0)
	p.Process([]string{"T1"}, t0.Add(8*time.Second))

	events := p.Process(nil, t0.Add(15*time.Second))
	if len(events) != 0 {
		t.Fatalf("expected refreshed tag to stay present, got %d events", len(events))
	}

	events = p.Process(nil, t0.Add(18*time.Second+time.Millisecond))
	if len(events) != 1 || events[0].Type != EventExit {
		t.Fatalf("expected EXIT after refreshed window, got %v", events)
	}
}

func TestPresenceReenterAfterExit(t *testing.T) {
	p := NewPresenceTracker(time.Second)
	p.Process([]string{"T1"}, t0)
	p.Process(nil, t0.Add(2*time.Second))

	events := p.Process([]string{"T1"}, t0.Add(3*time.Second))
	if len(events) != 1 || events[0].Type != EventEnter {
		t.Fatalf("expected ENTER on return, got %v", events)
	}
}

func TestPresenceEntersBeforeExits(t *testing.T) {
	p := NewPresenceTracker(time.Second)
	p.Process([]string{"B", "A"}, t0)

	events := p.Process([]string{"C"}, t0.Add(2*time.Second))
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []Event{
		{Type: EventEnter, Tag: "C"},
		{Type: EventExit, Tag: "A"},
		{Type: EventExit, Tag: "B"},
	}
	for i, w := range want {
		if events[i].Type != w.Type || events[i].Tag != w.Tag {
			t.Errorf("event %d: expected %s %s, got %s %s", i, w.Type, w.Tag, events[i].Type, events[i].Tag)
		}
	}
}

func TestPresencePresent(t *testing.T) {
	p := NewPresenceTracker(time.Second)
	p.Process([]string{"b", "a"}, t0)

	got := p.Present()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
}
