// Package sensor defines the pull contracts of the booth's input
// collaborators: the UHF tag network and the card reader.
package sensor

import (
	"context"
	"errors"
)

// ErrNoReading is returned when a source has nothing current to report.
var ErrNoReading = errors.New("sensor: no current reading")

// TagSource reports which tags are present right now.
type TagSource interface {
	// Tags returns the identifiers currently in range. An error means the
	// poll produced no information; it is not an empty set.
	Tags(ctx context.Context) ([]string, error)
}

// CardSource reports the card on the reader right now.
type CardSource interface {
	// Card returns the card identifier and true, or false when no card is
	// present.
	Card(ctx context.Context) (string, bool, error)
}
