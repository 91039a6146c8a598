package booth

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/kit-booth/internal/logger"
	"github.com/sweeney/kit-booth/internal/logic"
	"github.com/sweeney/kit-booth/internal/mqtt"
	"github.com/sweeney/kit-booth/internal/sensor"
	"github.com/sweeney/kit-booth/internal/status"
)

// PollTags reads the tag source once and queues the resulting enter and
// exit events. A failed read carries no information, so presence records
// are left untouched.
func (b *Booth) PollTags(ctx context.Context, now time.Time) {
	ids, err := b.deps.Tags.Tags(ctx)
	if err != nil {
		b.deps.Metrics.PollErrors.WithLabelValues("tags").Inc()
		if errors.Is(err, sensor.ErrNoReading) {
			logger.DebugKV(ctx, "no tag reading", "error", err)
		} else {
			logger.WarnKV(ctx, "tag poll failed", "error", err)
		}
		return
	}

	for _, ev := range b.presence.Process(ids, now) {
		switch ev.Type {
		case logic.EventEnter:
			logger.DebugKV(ctx, "tag entered", "tag", ev.Tag)
			b.enters.Push(ev.Tag)
		case logic.EventExit:
			logger.DebugKV(ctx, "tag exited", "tag", ev.Tag)
			b.exits.Push(ev.Tag)
		}
	}
	b.deps.Status.SetPresent(b.presence.Present())
}

// PollCard reads the card source once and queues a card event for each
// new presentation.
func (b *Booth) PollCard(ctx context.Context, now time.Time) {
	card, ok, err := b.deps.Card.Card(ctx)
	if err != nil {
		b.deps.Metrics.PollErrors.WithLabelValues("card").Inc()
		logger.WarnKV(ctx, "card poll failed", "error", err)
		return
	}
	if ev := b.cards.Process(card, ok, now); ev != nil {
		logger.DebugKV(ctx, "card presented", "card", ev.Card)
		b.card.Send(ev.Card)
	}
}

// Coordinate drains the event buffers into one coordinator tick and routes
// its commands and notices.
func (b *Booth) Coordinate(ctx context.Context, now time.Time) {
	batch := logic.Batch{
		Exits:  b.exits.Drain(),
		Enters: b.enters.Drain(),
	}
	if card, ok := b.card.Receive(); ok {
		batch.Card = &card
	}

	cmds := b.coord.Tick(batch, now)
	if cmds.Light != nil {
		b.lightCmd.Send(*cmds.Light)
	}
	if cmds.Sound != nil {
		b.soundCmd.Send(*cmds.Sound)
	}
	for _, n := range cmds.Notices {
		logNotice(ctx, n)
	}
	b.outbox.Push(cmds.Notices...)

	snap := b.coord.Snapshot()
	b.deps.Metrics.ObserveBatch(batch)
	b.deps.Metrics.ObserveTick(cmds, snap)
	b.deps.Status.Update(snap)

	if hb := b.coord.CheckHeartbeat(now, b.opts.Heartbeat); hb != nil {
		logger.InfoKV(ctx, "heartbeat",
			"uptime", hb.Uptime.Truncate(time.Second),
			"booked", len(snap.Booked),
			"checked_out", hb.Counts.CheckedOut,
			"returned", hb.Counts.Returned,
			"unauthorized", hb.Counts.Unauthorized)
		b.system.Push(b.statusEvent("HEARTBEAT", "", hb.Timestamp, false))
	}
}

func logNotice(ctx context.Context, n logic.Notice) {
	kvs := []any{"tag", n.Tag}
	if n.Card != "" {
		kvs = append(kvs, "card", n.Card)
	}
	switch n.Kind {
	case logic.NoticeUnauthorized, logic.NoticeEscalated, logic.NoticeRecovered:
		kvs = append(kvs, "stage", n.Stage)
		logger.WarnKV(ctx, string(n.Kind), kvs...)
	case logic.NoticeAnomaly:
		logger.WarnKV(ctx, string(n.Kind), kvs...)
	default:
		logger.InfoKV(ctx, string(n.Kind), kvs...)
	}
}

// DriveLight applies a pending light command, if any, and shows the next
// animation frame.
func (b *Booth) DriveLight(ctx context.Context, _ time.Time) {
	var cmd *logic.Light
	if l, ok := b.lightCmd.Receive(); ok {
		cmd = &l
	}
	color := b.driver.Step(cmd)
	if err := b.deps.Light.Set(color); err != nil {
		logger.WarnKV(ctx, "light update failed", "error", err)
	}
	b.deps.Status.SetLight(b.driver.State())
}

// DriveSound applies a pending sound command, if any, and restarts the
// looping clip when it has run out.
func (b *Booth) DriveSound(ctx context.Context, now time.Time) {
	var cmd *logic.Sound
	if s, ok := b.soundCmd.Receive(); ok {
		cmd = &s
		b.deps.Status.SetSound(s)
	}
	if err := b.player.Step(cmd, now); err != nil {
		logger.WarnKV(ctx, "sound playback failed", "error", err)
	}
}

// Flush publishes queued notices and system events. Checkouts are enriched
// with the member identity when a resolver is configured. Failures are
// logged and counted; the notice is not retried.
func (b *Booth) Flush(ctx context.Context) {
	b.flush(ctx, false)
}

// flush does the work of Flush. When bounded, it stops once ctx is done
// and drops whatever is still queued.
func (b *Booth) flush(ctx context.Context, bounded bool) {
	if b.deps.Connection != nil {
		b.deps.Status.SetMQTTConnected(b.deps.Connection.IsConnected())
	}

	notices := b.outbox.Drain()
	for i, n := range notices {
		if bounded && ctx.Err() != nil {
			logger.WarnKV(ctx, "flush cut short, dropping notices", "dropped", len(notices)-i)
			return
		}
		event := mqtt.BookingEvent{Notice: n}
		if n.Kind == logic.NoticeCheckedOut && n.Card != "" && b.deps.Members != nil {
			who, err := b.deps.Members.Lookup(ctx, n.Card)
			if err != nil {
				logger.WarnKV(ctx, "member lookup failed", "card", n.Card, "error", err)
			} else {
				event.Member = who
				logger.InfoKV(ctx, "checked out by member", "tag", n.Tag, "member", who)
			}
		}
		if b.deps.Publisher == nil {
			continue
		}
		if err := b.deps.Publisher.Publish(event); err != nil {
			b.deps.Metrics.PublishFailures.Inc()
			logger.WarnKV(ctx, "publish failed", "event", n.Kind, "tag", n.Tag, "error", err)
		}
	}

	events := b.system.Drain()
	for i, ev := range events {
		if bounded && ctx.Err() != nil {
			logger.WarnKV(ctx, "flush cut short, dropping system events", "dropped", len(events)-i)
			return
		}
		if b.deps.Publisher == nil {
			continue
		}
		if err := b.deps.Publisher.PublishSystem(ev); err != nil {
			logger.WarnKV(ctx, "system publish failed", "event", ev.Event, "error", err)
		}
	}

	if backlog, ok := b.deps.Connection.(mqtt.Backlog); ok {
		b.deps.Metrics.MQTTBuffered.Set(float64(backlog.Buffered()))
	}
}

// Announce publishes a lifecycle event carrying the full status snapshot
// straight away. Used for STARTUP and SHUTDOWN, when the publisher loop is
// not running.
func (b *Booth) Announce(ctx context.Context, event, reason string) {
	if b.deps.Publisher == nil {
		return
	}
	if b.deps.Connection != nil {
		b.deps.Status.SetMQTTConnected(b.deps.Connection.IsConnected())
	}
	ev := b.statusEvent(event, reason, b.now(), true)
	if err := b.deps.Publisher.PublishSystem(ev); err != nil {
		logger.WarnKV(ctx, "failed to publish system event", "event", event, "error", err)
		return
	}
	logger.InfoKV(ctx, "published system event", "event", event)
}

func (b *Booth) statusEvent(event, reason string, at time.Time, retained bool) mqtt.SystemEvent {
	if b.deps.Network != nil {
		if info := b.deps.Network(); info != nil {
			b.deps.Status.SetNetwork(info)
		}
	}
	return mqtt.SystemEvent{
		Timestamp:  at,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(b.deps.Status.Snapshot(), event, reason),
	}
}
