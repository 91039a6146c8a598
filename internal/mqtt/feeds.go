package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/kit-booth/internal/sensor"
)

// TagMessage is published by the UHF reader gateway after every inventory.
type TagMessage struct {
	Tags []string `json:"tags"`
}

// CardMessage is published by the card reader gateway; an empty UID means
// no card is on the reader.
type CardMessage struct {
	UID string `json:"uid"`
}

// TagFeed keeps the most recent tag inventory and serves it as a sensor.TagSource.
type TagFeed struct {
	stale time.Duration
	now   func() time.Time

	mu   sync.Mutex
	tags []string
	at   time.Time
}

// NewTagFeed creates a feed whose inventory is only trusted for stale after receipt.
func NewTagFeed(stale time.Duration, now func() time.Time) *TagFeed {
	if now == nil {
		now = time.Now
	}
	return &TagFeed{stale: stale, now: now}
}

// Handle ingests one TagMessage payload.
func (f *TagFeed) Handle(payload []byte) error {
	var msg TagMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode tag message: %w", err)
	}
	f.mu.Lock()
	f.tags = msg.Tags
	f.at = f.now()
	f.mu.Unlock()
	return nil
}

// Tags returns the latest inventory, or sensor.ErrNoReading when none is fresh.
func (f *TagFeed) Tags(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.at.IsZero() || f.now().Sub(f.at) > f.stale {
		return nil, sensor.ErrNoReading
	}
	return append([]string(nil), f.tags...), nil
}

// CardFeed keeps the most recent card reading and serves it as a sensor.CardSource.
type CardFeed struct {
	stale time.Duration
	now   func() time.Time

	mu   sync.Mutex
	card string
	at   time.Time
}

// NewCardFeed creates a feed where a reading older than stale means no card.
func NewCardFeed(stale time.Duration, now func() time.Time) *CardFeed {
	if now == nil {
		now = time.Now
	}
	return &CardFeed{stale: stale, now: now}
}

// Handle ingests one CardMessage payload, normalizing the UID.
func (f *CardFeed) Handle(payload []byte) error {
	var msg CardMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode card message: %w", err)
	}

	card := ""
	if msg.UID != "" {
		id, err := sensor.CardID(msg.UID)
		if err != nil {
			return err
		}
		card = id
	}

	f.mu.Lock()
	f.card = card
	f.at = f.now()
	f.mu.Unlock()
	return nil
}

// Card returns the card on the reader, if a fresh reading names one.
func (f *CardFeed) Card(context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.card == "" || f.now().Sub(f.at) > f.stale {
		return "", false, nil
	}
	return f.card, true, nil
}
