//go:build !linux

package light

import "errors"

// Pins are the BCM offsets of the four indicator channels.
type Pins struct {
	Green  int
	Yellow int
	Red    int
	Blue   int
}

// GPIOSink is not available on non-Linux platforms.
type GPIOSink struct{}

// NewGPIOSink returns an error on non-Linux platforms.
func NewGPIOSink(string, Pins) (*GPIOSink, error) {
	return nil, errors.New("light: gpio not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (s *GPIOSink) Set(Color) error {
	return errors.New("light: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *GPIOSink) Close() error {
	return nil
}
