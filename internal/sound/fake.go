package sound

import (
	"sync"

	"github.com/sweeney/kit-booth/internal/logic"
)

// FakeSink records playback calls for test assertions.
type FakeSink struct {
	mu sync.Mutex
	// Played contains every clip started, in order.
	Played []logic.Sound
	// Stops counts Stop calls.
	Stops int
	// PlayError, if set, will be returned by Play.
	PlayError error
}

// Play records the clip.
func (f *FakeSink) Play(clip logic.Sound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayError != nil {
		return f.PlayError
	}
	f.Played = append(f.Played, clip)
	return nil
}

// Stop counts the call.
func (f *FakeSink) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Stops++
	return nil
}

// Snapshot returns a copy of the played clips and the stop count.
func (f *FakeSink) Snapshot() ([]logic.Sound, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Sound(nil), f.Played...), f.Stops
}
