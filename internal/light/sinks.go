package light

import (
	"fmt"
	"io"
	"sync"
)

// TerminalSink prints the lamp on a single, constantly rewritten line.
type TerminalSink struct {
	w    io.Writer
	last string
}

// NewTerminalSink writes lamp frames to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

// Set redraws the lamp when it changed.
func (s *TerminalSink) Set(c Color) error {
	lamp := c.String()
	if lamp == s.last {
		return nil
	}
	s.last = lamp
	_, err := fmt.Fprintf(s.w, "   %s      \r", lamp)
	return err
}

// Close leaves the lamp dark.
func (s *TerminalSink) Close() error {
	return s.Set(Off)
}

// FakeSink records frames for test assertions.
type FakeSink struct {
	mu sync.Mutex
	// Frames contains every color that was set.
	Frames []Color
	// SetError, if set, will be returned by Set.
	SetError error
	// Closed tracks if Close was called.
	Closed bool
}

// Set records the frame.
func (f *FakeSink) Set(c Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.Frames = append(f.Frames, c)
	return nil
}

// Close marks the sink as closed.
func (f *FakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Snapshot returns a copy of the recorded frames.
func (f *FakeSink) Snapshot() []Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Color(nil), f.Frames...)
}

// Last returns the most recent frame and whether any was recorded.
func (f *FakeSink) Last() (Color, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Frames) == 0 {
		return Color{}, false
	}
	return f.Frames[len(f.Frames)-1], true
}
