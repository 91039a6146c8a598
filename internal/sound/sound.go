// Package sound plays booth audio clips. The Player decides what should be
// playing each tick; a Sink does the actual playback.
package sound

import (
	"fmt"
	"time"

	"github.com/sweeney/kit-booth/internal/logic"
)

// DefaultLoopAfter is the length of the alarm clip.
const DefaultLoopAfter = 3050 * time.Millisecond

// Sink plays clips.
type Sink interface {
	// Play starts clip, replacing whatever was playing.
	Play(clip logic.Sound) error
	// Stop silences playback.
	Stop() error
}

// Player applies sound commands and restarts looping clips.
// It is owned by the sound loop and not safe for concurrent use.
type Player struct {
	sink      Sink
	loopAfter time.Duration
	looping   map[logic.Sound]bool

	current logic.Sound
	since   time.Time
}

// NewPlayer creates a player that loops the alarm every loopAfter.
func NewPlayer(sink Sink, loopAfter time.Duration) *Player {
	if loopAfter <= 0 {
		loopAfter = DefaultLoopAfter
	}
	return &Player{
		sink:      sink,
		loopAfter: loopAfter,
		looping:   map[logic.Sound]bool{logic.SoundAlarm: true},
	}
}

// Step applies an optional new command at time now.
// A command always restarts playback, even for the clip already playing.
func (p *Player) Step(cmd *logic.Sound, now time.Time) error {
	if cmd != nil {
		return p.start(*cmd, now)
	}
	if p.looping[p.current] && now.Sub(p.since) >= p.loopAfter {
		return p.start(p.current, now)
	}
	return nil
}

func (p *Player) start(clip logic.Sound, now time.Time) error {
	if err := p.sink.Stop(); err != nil {
		return fmt.Errorf("stop %s: %w", p.current, err)
	}
	p.current = clip
	p.since = now
	if err := p.sink.Play(clip); err != nil {
		return fmt.Errorf("play %s: %w", clip, err)
	}
	return nil
}

// Current returns the last clip started and when.
func (p *Player) Current() (logic.Sound, time.Time) {
	return p.current, p.since
}

// Stop silences playback and forgets the current clip.
func (p *Player) Stop() error {
	p.current = ""
	return p.sink.Stop()
}
