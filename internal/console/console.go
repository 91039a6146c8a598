// Package console lets an operator drive the booth from a terminal.
//
// Each line is one command:
//
//	e <tag>   tag entered the booth
//	x <tag>   tag exited the booth
//	c <card>  card presented
//	q         quit
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sweeney/kit-booth/internal/logger"
)

// ErrUnknownCommand is returned by Parse for unrecognised input.
var ErrUnknownCommand = errors.New("unknown command")

// Injector receives the observations typed by the operator.
type Injector interface {
	InjectEnter(tag string)
	InjectExit(tag string)
	InjectCard(card string)
}

// Op is a parsed console command.
type Op byte

const (
	OpNone  Op = 0
	OpEnter Op = 'e'
	OpExit  Op = 'x'
	OpCard  Op = 'c'
	OpQuit  Op = 'q'
)

// Command is one parsed line.
type Command struct {
	Op  Op
	Arg string
}

// Parse reads one console line. Blank lines yield OpNone.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Op: OpNone}, nil
	}
	switch fields[0] {
	case "q":
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%w: q takes no argument", ErrUnknownCommand)
		}
		return Command{Op: OpQuit}, nil
	case "e", "x", "c":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: %s needs exactly one id", ErrUnknownCommand, fields[0])
		}
		return Command{Op: Op(fields[0][0]), Arg: fields[1]}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
}

// Run reads commands from r until q, EOF or ctx cancellation and forwards
// them to inj. Bad lines are reported to out and skipped.
// It returns nil when the operator quits or input ends.
func Run(ctx context.Context, r io.Reader, out io.Writer, inj Injector) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read console: %w", err)
					}
				default:
				}
				logger.Info(ctx, "console input closed")
				return nil
			}

			cmd, err := Parse(line)
			if err != nil {
				fmt.Fprintf(out, "%v (use e|x|c <id> or q)\n", err)
				continue
			}
			switch cmd.Op {
			case OpNone:
			case OpQuit:
				logger.Info(ctx, "console quit")
				return nil
			case OpEnter:
				inj.InjectEnter(cmd.Arg)
			case OpExit:
				inj.InjectExit(cmd.Arg)
			case OpCard:
				inj.InjectCard(cmd.Arg)
			}
			logger.DebugKV(ctx, "console command", "op", string(cmd.Op), "arg", cmd.Arg)
		}
	}
}
