// Package booth wires the booth loops together.
//
// Six loops run on the same tick: presence polling, card polling, the
// coordinator, the light driver, the sound player and the publisher. They
// share state only through bus cells: tracker events are pushed into
// buffers that the coordinator drains once per tick, and the coordinator's
// light and sound commands go through single-slot cells where a newer
// command replaces one not yet consumed. No loop waits on another.
package booth

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/kit-booth/internal/bus"
	"github.com/sweeney/kit-booth/internal/light"
	"github.com/sweeney/kit-booth/internal/logger"
	"github.com/sweeney/kit-booth/internal/logic"
	"github.com/sweeney/kit-booth/internal/member"
	"github.com/sweeney/kit-booth/internal/metrics"
	"github.com/sweeney/kit-booth/internal/mqtt"
	"github.com/sweeney/kit-booth/internal/sensor"
	"github.com/sweeney/kit-booth/internal/sound"
	"github.com/sweeney/kit-booth/internal/status"
)

// Default timings.
const (
	DefaultTick           = 100 * time.Millisecond
	DefaultPresenceWindow = 10 * time.Second
	DefaultCardWindow     = 5 * time.Second
	DefaultSettleDelay    = 5 * time.Second
	DefaultFlushTimeout   = time.Second
)

// Options holds the booth timings.
type Options struct {
	Tick           time.Duration
	PresenceWindow time.Duration
	CardWindow     time.Duration
	SettleDelay    time.Duration
	// StageTimeouts overrides logic.DefaultStageTimeouts when non-nil.
	StageTimeouts []time.Duration
	// Heartbeat is the HEARTBEAT interval; zero or negative disables it.
	Heartbeat time.Duration
	// LoopAfter is how often the alarm clip restarts.
	LoopAfter time.Duration
	// FlushTimeout bounds the final publish on shutdown.
	FlushTimeout time.Duration
}

// Deps are the collaborators of the booth. Tags and Card may be nil when
// observations are injected from the console instead. Publisher, Members
// and Connection are optional.
type Deps struct {
	Tags       sensor.TagSource
	Card       sensor.CardSource
	Light      light.Sink
	Sound      sound.Sink
	Publisher  mqtt.Publisher
	Connection mqtt.ConnectionStatus
	Members    member.Resolver
	Status     *status.Tracker
	Metrics    *metrics.Metrics
	// Network, when set, is consulted for every heartbeat.
	Network func() *status.NetworkInfo
	// Now defaults to time.Now.
	Now func() time.Time
}

// Booth owns the cells shared by the loops and the state each loop owns.
type Booth struct {
	opts Options
	deps Deps
	now  func() time.Time

	enters   bus.Buffer[string]
	exits    bus.Buffer[string]
	card     *bus.Latest[string]
	lightCmd *bus.Latest[logic.Light]
	soundCmd *bus.Latest[logic.Sound]
	outbox   bus.Buffer[logic.Notice]
	system   bus.Buffer[mqtt.SystemEvent]

	presence *logic.PresenceTracker
	cards    *logic.CardDebouncer
	coord    *logic.Coordinator
	driver   *light.Driver
	player   *sound.Player
}

// New creates a booth. Light and Sound sinks are required.
func New(opts Options, deps Deps) (*Booth, error) {
	if deps.Light == nil {
		return nil, errors.New("booth: light sink is required")
	}
	if deps.Sound == nil {
		return nil, errors.New("booth: sound sink is required")
	}
	applyDefaults(&opts)
	if deps.Now == nil {
		deps.Now = time.Now
	}
	start := deps.Now()
	if deps.Status == nil {
		deps.Status = status.NewTracker(start, status.Config{})
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(prometheus.NewRegistry())
	}

	return &Booth{
		opts:     opts,
		deps:     deps,
		now:      deps.Now,
		card:     bus.NewLatest[string](),
		lightCmd: bus.NewLatest[logic.Light](),
		soundCmd: bus.NewLatest[logic.Sound](),
		presence: logic.NewPresenceTracker(opts.PresenceWindow),
		cards:    logic.NewCardDebouncer(opts.CardWindow),
		coord:    logic.NewCoordinator(opts.StageTimeouts, start),
		driver:   light.NewDriver(),
		player:   sound.NewPlayer(deps.Sound, opts.LoopAfter),
	}, nil
}

func applyDefaults(opts *Options) {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.PresenceWindow <= 0 {
		opts.PresenceWindow = DefaultPresenceWindow
	}
	if opts.CardWindow <= 0 {
		opts.CardWindow = DefaultCardWindow
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.LoopAfter <= 0 {
		opts.LoopAfter = sound.DefaultLoopAfter
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = DefaultFlushTimeout
	}
}

// Status returns the tracker the booth reports into.
func (b *Booth) Status() *status.Tracker {
	return b.deps.Status
}

// InjectEnter queues an ENTER for tag, bypassing the presence tracker.
func (b *Booth) InjectEnter(tag string) { b.enters.Push(tag) }

// InjectExit queues an EXIT for tag, bypassing the presence tracker.
func (b *Booth) InjectExit(tag string) { b.exits.Push(tag) }

// InjectCard queues a card presentation, bypassing the card debouncer.
func (b *Booth) InjectCard(card string) { b.card.Send(card) }

// Run starts every loop and blocks until ctx is cancelled. On return the
// lights are dark, playback is stopped and pending notices are flushed.
func (b *Booth) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if b.deps.Tags != nil {
		g.Go(func() error {
			lctx := logger.WithName(gctx, "presence")
			if !sleep(lctx, b.opts.SettleDelay) {
				return nil
			}
			b.deps.Status.SetReady()
			logger.InfoKV(lctx, "presence polling started", "window", b.opts.PresenceWindow)
			return b.loop(lctx, b.PollTags)
		})
	} else {
		b.deps.Status.SetReady()
	}
	if b.deps.Card != nil {
		g.Go(func() error { return b.loop(logger.WithName(gctx, "card"), b.PollCard) })
	}
	g.Go(func() error { return b.loop(logger.WithName(gctx, "coordinator"), b.Coordinate) })
	g.Go(func() error { return b.loop(logger.WithName(gctx, "light"), b.DriveLight) })
	g.Go(func() error { return b.loop(logger.WithName(gctx, "sound"), b.DriveSound) })
	g.Go(func() error {
		return b.loop(logger.WithName(gctx, "publisher"), func(ctx context.Context, _ time.Time) { b.Flush(ctx) })
	})

	err := g.Wait()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.opts.FlushTimeout)
	defer cancel()
	b.shutdown(sctx)
	return err
}

// loop runs step on every tick until ctx is done.
func (b *Booth) loop(ctx context.Context, step func(context.Context, time.Time)) error {
	ticker := time.NewTicker(b.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			step(ctx, b.now())
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (b *Booth) shutdown(ctx context.Context) {
	if err := b.deps.Light.Set(light.Off); err != nil {
		logger.WarnKV(ctx, "light off failed", "error", err)
	}
	if err := b.deps.Light.Close(); err != nil {
		logger.WarnKV(ctx, "light close failed", "error", err)
	}
	if err := b.player.Stop(); err != nil {
		logger.WarnKV(ctx, "sound stop failed", "error", err)
	}
	b.flush(ctx, true)
}
