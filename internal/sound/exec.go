package sound

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/sweeney/kit-booth/internal/logic"
)

// ExecSink plays <dir>/<clip>.mp3 by running an external player command.
type ExecSink struct {
	command []string
	dir     string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecSink creates a sink running command (e.g. mpg123 -q) with the clip
// path appended as the last argument.
func NewExecSink(command []string, dir string) (*ExecSink, error) {
	if len(command) == 0 {
		return nil, errors.New("sound: empty player command")
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return nil, fmt.Errorf("sound: player %q: %w", command[0], err)
	}
	return &ExecSink{command: command, dir: dir}, nil
}

// Path returns the file played for clip.
func (s *ExecSink) Path(clip logic.Sound) string {
	return filepath.Join(s.dir, string(clip)+".mp3")
}

// Play starts the player process in the background.
func (s *ExecSink) Play(clip logic.Sound) error {
	path := s.Path(clip)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("clip %s: %w", clip, err)
	}

	args := append(append([]string(nil), s.command[1:]...), path)
	cmd := exec.Command(s.command[0], args...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	s.cmd = cmd
	// Reap the process whether it finishes or is killed.
	go cmd.Wait() //nolint:errcheck // Exit status of a killed player is expected.
	return nil
}

// Stop kills the running player, if any.
func (s *ExecSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	s.cmd = nil
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill player: %w", err)
	}
	return nil
}
