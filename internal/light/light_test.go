package light

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sweeney/kit-booth/internal/logic"
)

func lightp(l logic.Light) *logic.Light { return &l }

func TestPatternLengths(t *testing.T) {
	want := map[logic.Light]int{
		logic.LightIdle:         30,
		logic.LightWarning:      20,
		logic.LightMistake:      10,
		logic.LightError:        4,
		logic.LightNotification: 10,
		logic.LightInitial:      24,
	}
	for l, n := range want {
		if got := len(Pattern(l)); got != n {
			t.Errorf("%s: expected %d frames, got %d", l, n, got)
		}
	}
}

func TestDriverStartsWithInitialThenIdles(t *testing.T) {
	d := NewDriver()
	initial := Pattern(logic.LightInitial)

	for i, want := range initial {
		if got := d.Step(nil); got != want {
			t.Fatalf("initial frame %d: expected %s, got %s", i, want, got)
		}
	}
	if d.State() != logic.LightIdle {
		t.Fatalf("expected idle after initial, got %s", d.State())
	}
	if got := d.Step(nil); got != Pattern(logic.LightIdle)[0] {
		t.Errorf("expected first idle frame, got %s", got)
	}
}

func TestDriverRestartsOnChange(t *testing.T) {
	d := NewDriver()
	d.Step(lightp(logic.LightWarning))
	for i := 0; i < 12; i++ {
		d.Step(nil)
	}

	// Same command keeps the animation position.
	if got := d.Step(lightp(logic.LightWarning)); got != yellow {
		t.Errorf("expected warning to continue on the yellow half, got %s", got)
	}

	// A different command restarts at frame 0.
	if got := d.Step(lightp(logic.LightMistake)); got != Pattern(logic.LightMistake)[0] {
		t.Errorf("expected first mistake frame, got %s", got)
	}
}

func TestDriverCyclesContinuousStates(t *testing.T) {
	d := NewDriver()
	d.Step(lightp(logic.LightError))
	for i := 0; i < 100; i++ {
		d.Step(nil)
	}
	if d.State() != logic.LightError {
		t.Errorf("error must loop until replaced, got %s", d.State())
	}
}

func TestDriverNotificationIsOneShot(t *testing.T) {
	d := NewDriver()
	n := len(Pattern(logic.LightNotification))

	var lit int
	d.Step(lightp(logic.LightNotification))
	for i := 1; i < n; i++ {
		if d.Step(nil) == blue {
			lit++
		}
	}
	if lit != 4 {
		t.Errorf("expected 4 blue frames after the first, got %d", lit)
	}
	if d.State() != logic.LightIdle {
		t.Errorf("expected idle after notification, got %s", d.State())
	}
}

func TestColorString(t *testing.T) {
	if got := (Color{Green: true, Red: true}).String(); got != "#.#." {
		t.Errorf("got %q", got)
	}
	if got := Off.String(); got != "...." {
		t.Errorf("got %q", got)
	}
}

func TestTerminalSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewTerminalSink(&buf)

	s.Set(green)
	s.Set(green)
	s.Set(blue)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out := buf.String()
	if strings.Count(out, "\r") != 3 {
		t.Errorf("expected 3 redraws, got %q", out)
	}
	if !strings.Contains(out, "#...") || !strings.Contains(out, "...#") {
		t.Errorf("missing frames in %q", out)
	}
}

func TestFakeSink(t *testing.T) {
	f := &FakeSink{}
	if _, ok := f.Last(); ok {
		t.Error("expected no frames")
	}
	f.Set(red)
	f.Set(blue)
	if last, _ := f.Last(); last != blue {
		t.Errorf("expected blue, got %s", last)
	}
	if len(f.Snapshot()) != 2 {
		t.Errorf("expected 2 frames")
	}
	f.Close()
	if !f.Closed {
		t.Error("expected closed")
	}
}
