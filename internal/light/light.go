// Package light renders booth light states onto a four-channel indicator.
// The Driver animates per-state patterns one step per tick; Sinks apply the
// resulting colors to GPIO lines or a terminal.
package light

import "github.com/sweeney/kit-booth/internal/logic"

// Color is one frame of the indicator: which channels are lit.
type Color struct {
	Green  bool
	Yellow bool
	Red    bool
	Blue   bool
}

// Off has every channel dark.
var Off = Color{}

// Sink applies colors to an indicator.
type Sink interface {
	// Set lights exactly the channels in c.
	Set(c Color) error
	// Close releases the indicator.
	Close() error
}

// String renders the lamp as one character per channel in g y r b order.
func (c Color) String() string {
	b := []byte("....")
	for i, on := range []bool{c.Green, c.Yellow, c.Red, c.Blue} {
		if on {
			b[i] = '#'
		}
	}
	return string(b)
}

var (
	dark   = Color{}
	green  = Color{Green: true}
	yellow = Color{Yellow: true}
	red    = Color{Red: true}
	blue   = Color{Blue: true}
	all    = Color{Green: true, Yellow: true, Red: true, Blue: true}
)

func frames(parts ...any) []Color {
	var out []Color
	for i := 0; i < len(parts); i += 2 {
		n := parts[i].(int)
		c := parts[i+1].(Color)
		for j := 0; j < n; j++ {
			out = append(out, c)
		}
	}
	return out
}

// patterns holds one cyclic animation per light state, one frame per tick.
var patterns = map[logic.Light][]Color{
	// blink green
	logic.LightIdle: frames(28, dark, 2, green),
	// pulse yellow
	logic.LightWarning: frames(10, dark, 10, yellow),
	// flash red
	logic.LightMistake: frames(5, dark, 5, red),
	// flash red fast
	logic.LightError: frames(2, dark, 2, red),
	// blue double blink
	logic.LightNotification: frames(4, dark, 2, blue, 2, dark, 2, blue),
	// startup sweep
	logic.LightInitial: frames(
		2, dark, 2, green, 2, yellow, 2, red,
		2, blue, 2, red, 2, yellow, 2, green,
		2, dark, 2, all, 2, dark, 2, all,
	),
}

// oneShot states play once and then fall back to idle.
var oneShot = map[logic.Light]bool{
	logic.LightNotification: true,
	logic.LightInitial:      true,
}

// Pattern returns a copy of the animation for state l.
func Pattern(l logic.Light) []Color {
	return append([]Color(nil), patterns[l]...)
}

// Driver advances the animation of the commanded light state.
// It is owned by the light loop and not safe for concurrent use.
type Driver struct {
	state logic.Light
	step  int
}

// NewDriver returns a driver playing the startup pattern.
func NewDriver() *Driver {
	return &Driver{state: logic.LightInitial}
}

// Step applies an optional new command and returns the frame to show this tick.
// A command for a different state restarts from the first frame; repeating
// the current state keeps the animation running.
func (d *Driver) Step(cmd *logic.Light) Color {
	if cmd != nil {
		if _, ok := patterns[*cmd]; ok {
			if *cmd != d.state {
				d.step = 0
			}
			d.state = *cmd
		}
	}

	p := patterns[d.state]
	c := p[d.step]

	d.step++
	if d.step >= len(p) {
		d.step = 0
		if oneShot[d.state] {
			d.state = logic.LightIdle
		}
	}
	return c
}

// State returns the state being animated.
func (d *Driver) State() logic.Light {
	return d.state
}
