package sensor

import (
	"context"
	"errors"
	"sync"
)

// FakeTagSource is a test double that returns scripted tag sets.
type FakeTagSource struct {
	mu sync.Mutex
	// Samples contains the scripted tag sets; each call consumes the next.
	// When exhausted, the last sample repeats.
	Samples [][]string
	index   int
	// Err, if set, will be returned by Tags.
	Err error
	// Calls counts Tags invocations.
	Calls int
}

// NewFakeTagSource creates a FakeTagSource with the given samples.
func NewFakeTagSource(samples ...[]string) *FakeTagSource {
	return &FakeTagSource{Samples: samples}
}

// Tags returns the next scripted sample.
func (f *FakeTagSource) Tags(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Samples) == 0 {
		return nil, errors.New("no samples configured")
	}
	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// CallCount returns the number of Tags invocations so far.
func (f *FakeTagSource) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// CardSample is one scripted card reading; empty ID means no card.
type CardSample struct {
	ID string
}

// FakeCardSource is a test double that returns scripted card readings.
type FakeCardSource struct {
	mu sync.Mutex
	// Samples contains the scripted readings; each call consumes the next.
	// When exhausted, the last sample repeats.
	Samples []CardSample
	index   int
	// Err, if set, will be returned by Card.
	Err error
}

// NewFakeCardSource creates a FakeCardSource with the given card IDs,
// where "" means no card.
func NewFakeCardSource(ids ...string) *FakeCardSource {
	f := &FakeCardSource{}
	for _, id := range ids {
		f.Samples = append(f.Samples, CardSample{ID: id})
	}
	return f
}

// Card returns the next scripted reading.
func (f *FakeCardSource) Card(context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return "", false, f.Err
	}
	if len(f.Samples) == 0 {
		return "", false, nil
	}
	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample.ID, sample.ID != "", nil
}
