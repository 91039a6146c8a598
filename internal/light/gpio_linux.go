//go:build linux

package light

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Pins are the BCM offsets of the four indicator channels.
type Pins struct {
	Green  int
	Yellow int
	Red    int
	Blue   int
}

// GPIOSink drives the indicator through the Linux GPIO character device.
type GPIOSink struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewGPIOSink requests the four lines as outputs, initially dark.
func NewGPIOSink(chipName string, pins Pins) (*GPIOSink, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	offsets := []int{pins.Green, pins.Yellow, pins.Red, pins.Blue}
	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(0, 0, 0, 0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request light pins %v: %w", offsets, err)
	}

	return &GPIOSink{
		chip:  chip,
		lines: lines,
	}, nil
}

// Set writes the channel values in a single request.
func (s *GPIOSink) Set(c Color) error {
	if err := s.lines.SetValues([]int{bit(c.Green), bit(c.Yellow), bit(c.Red), bit(c.Blue)}); err != nil {
		return fmt.Errorf("set light pins: %w", err)
	}
	return nil
}

// Close turns the lamps off and releases the lines.
// Pins are reconfigured to input with pull-down (Pi boot defaults) first so
// the LEDs stay dark across reboot.
func (s *GPIOSink) Close() error {
	var errs []error

	if s.lines != nil {
		if err := s.lines.SetValues([]int{0, 0, 0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("quiesce light pins: %w", err))
		}
		if err := s.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure light pins: %w", err))
		}
		if err := s.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close light pins: %w", err))
		}
	}

	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}

func bit(on bool) int {
	if on {
		return 1
	}
	return 0
}
