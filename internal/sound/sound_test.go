package sound

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/kit-booth/internal/logic"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func soundp(s logic.Sound) *logic.Sound { return &s }

func TestPlayerStartsCommandedClip(t *testing.T) {
	f := &FakeSink{}
	p := NewPlayer(f, 0)

	if err := p.Step(soundp(logic.SoundPleasePlace), t0); err != nil {
		t.Fatalf("step: %v", err)
	}
	played, stops := f.Snapshot()
	if len(played) != 1 || played[0] != logic.SoundPleasePlace {
		t.Errorf("expected please_place, got %v", played)
	}
	if stops != 1 {
		t.Errorf("expected previous playback stopped, got %d stops", stops)
	}

	// One-shot clips never restart on their own.
	for i := 1; i <= 100; i++ {
		p.Step(nil, t0.Add(time.Duration(i)*100*time.Millisecond))
	}
	played, _ = f.Snapshot()
	if len(played) != 1 {
		t.Errorf("expected single playback, got %v", played)
	}
}

func TestPlayerLoopsAlarm(t *testing.T) {
	f := &FakeSink{}
	p := NewPlayer(f, 0)

	p.Step(soundp(logic.SoundAlarm), t0)
	p.Step(nil, t0.Add(3*time.Second))
	played, _ := f.Snapshot()
	if len(played) != 1 {
		t.Fatalf("expected no restart before 3.05s, got %v", played)
	}

	p.Step(nil, t0.Add(3050*time.Millisecond))
	p.Step(nil, t0.Add(6100*time.Millisecond))
	played, _ = f.Snapshot()
	if len(played) != 3 {
		t.Fatalf("expected 3 alarm plays, got %v", played)
	}

	clip, since := p.Current()
	if clip != logic.SoundAlarm || !since.Equal(t0.Add(6100*time.Millisecond)) {
		t.Errorf("unexpected current %s since %v", clip, since)
	}
}

func TestPlayerNewCommandSupersedesAlarm(t *testing.T) {
	f := &FakeSink{}
	p := NewPlayer(f, time.Second)

	p.Step(soundp(logic.SoundAlarm), t0)
	p.Step(soundp(logic.SoundPleasePlace), t0.Add(500*time.Millisecond))
	p.Step(nil, t0.Add(5*time.Second))

	played, _ := f.Snapshot()
	want := []logic.Sound{logic.SoundAlarm, logic.SoundPleasePlace}
	if len(played) != len(want) {
		t.Fatalf("expected %v, got %v", want, played)
	}
	for i := range want {
		if played[i] != want[i] {
			t.Errorf("play %d: expected %s, got %s", i, want[i], played[i])
		}
	}
}

func TestPlayerPlayError(t *testing.T) {
	f := &FakeSink{PlayError: errors.New("no device")}
	p := NewPlayer(f, 0)

	if err := p.Step(soundp(logic.SoundChecked), t0); err == nil {
		t.Error("expected play error")
	}
}

func TestPlayerStop(t *testing.T) {
	f := &FakeSink{}
	p := NewPlayer(f, time.Second)
	p.Step(soundp(logic.SoundAlarm), t0)

	if err := p.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	p.Step(nil, t0.Add(10*time.Second))
	played, _ := f.Snapshot()
	if len(played) != 1 {
		t.Errorf("stopped player must not loop, got %v", played)
	}
}

func TestExecSinkRejectsEmptyCommand(t *testing.T) {
	if _, err := NewExecSink(nil, "."); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := NewExecSink([]string{"definitely-not-a-player-binary"}, "."); err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestExecSinkPlaysAndStops(t *testing.T) {
	if _, err := os.Stat("/bin/sleep"); err != nil {
		t.Skip("no /bin/sleep")
	}
	dir := t.TempDir()
	// "sleep <path>" fails fast on a non-numeric argument, which is fine:
	// only process lifecycle is exercised here.
	if err := os.WriteFile(filepath.Join(dir, "checked.mp3"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewExecSink([]string{"/bin/sleep"}, dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := s.Path(logic.SoundChecked); got != filepath.Join(dir, "checked.mp3") {
		t.Errorf("unexpected path %s", got)
	}
	if err := s.Play(logic.SoundChecked); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second stop: %v", err)
	}
	if err := s.Play(logic.SoundAlarm); err == nil {
		t.Error("expected error for a missing clip file")
	}
}
