package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sweeney/kit-booth/internal/booth"
	"github.com/sweeney/kit-booth/internal/config"
	"github.com/sweeney/kit-booth/internal/console"
	"github.com/sweeney/kit-booth/internal/light"
	"github.com/sweeney/kit-booth/internal/logger"
	"github.com/sweeney/kit-booth/internal/member"
	"github.com/sweeney/kit-booth/internal/metrics"
	"github.com/sweeney/kit-booth/internal/mqtt"
	"github.com/sweeney/kit-booth/internal/sound"
	"github.com/sweeney/kit-booth/internal/status"
	"github.com/sweeney/kit-booth/internal/version"
	"github.com/sweeney/kit-booth/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the booth with the MQTT reader feeds and GPIO lights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := withShutdown(cmd.Context())
		defer stop()
		return runBooth(ctx, cfg, nil, cmd.OutOrStdout())
	},
}

var errConsoleQuit = errors.New("console quit")

// shutdownSignal is the cancellation cause recorded when a signal arrives.
type shutdownSignal struct{ sig os.Signal }

func (s shutdownSignal) Error() string { return "received " + s.sig.String() }

// withShutdown returns a context cancelled by SIGINT or SIGTERM, recording
// the signal as the cause.
func withShutdown(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case s := <-sigCh:
			cancel(shutdownSignal{sig: s})
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel(nil)
	}
}

// shutdownReason names why ctx ended, for the SHUTDOWN event.
func shutdownReason(ctx context.Context) string {
	cause := context.Cause(ctx)
	var sig shutdownSignal
	switch {
	case errors.As(cause, &sig):
		switch sig.sig {
		case syscall.SIGINT:
			return "SIGINT"
		case syscall.SIGTERM:
			return "SIGTERM"
		}
		return "UNKNOWN"
	case errors.Is(cause, errConsoleQuit):
		return "CONSOLE"
	default:
		return "UNKNOWN"
	}
}

// runBooth wires the booth from cfg and blocks until ctx ends. With a
// non-nil consoleIn, observations come from the operator console and the
// light is drawn on out; otherwise the tag and card feeds arrive over MQTT
// and the light is driven through GPIO.
func runBooth(ctx context.Context, cfg *config.Config, consoleIn io.Reader, out io.Writer) error {
	consoleMode := consoleIn != nil
	ctx = logger.WithName(ctx, "kit-booth")

	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:           cfg.Tick.Milliseconds(),
		PresenceWindowMs: cfg.PresenceWindow.Milliseconds(),
		CardWindowMs:     cfg.CardWindow.Milliseconds(),
		HeartbeatMs:      max(cfg.Heartbeat, 0).Milliseconds(),
		Broker:           cfg.MQTT.Broker,
		HTTPAddr:         cfg.HTTPAddr,
	})
	if info := readNetworkInfo(); info != nil {
		tracker.SetNetwork(info)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps := booth.Deps{
		Status:  tracker,
		Metrics: metrics.New(reg),
		Network: readNetworkInfo,
	}

	if cfg.MQTT.Broker != "" {
		client, err := mqtt.Connect(ctx, mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			EventTopic:  cfg.MQTT.EventTopic,
			SystemTopic: cfg.MQTT.SystemTopic,
			BufferSize:  cfg.MQTT.BufferSize,
		})
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer client.Close()
		deps.Publisher = client
		deps.Connection = client

		if !consoleMode {
			tags := mqtt.NewTagFeed(cfg.MQTT.Stale, nil)
			cards := mqtt.NewCardFeed(cfg.MQTT.Stale, nil)
			if err := client.Subscribe(cfg.MQTT.TagTopic, feedHandler(ctx, "tags", tags.Handle)); err != nil {
				return fmt.Errorf("subscribe tags: %w", err)
			}
			if err := client.Subscribe(cfg.MQTT.CardTopic, feedHandler(ctx, "card", cards.Handle)); err != nil {
				return fmt.Errorf("subscribe card: %w", err)
			}
			deps.Tags = tags
			deps.Card = cards
		}
	} else if !consoleMode {
		return errors.New("run needs mqtt.broker for the tag and card feeds")
	}

	if consoleMode {
		deps.Light = light.NewTerminalSink(out)
	} else {
		sink, err := light.NewGPIOSink(cfg.Light.Chip, light.Pins{
			Green:  cfg.Light.Green,
			Yellow: cfg.Light.Yellow,
			Red:    cfg.Light.Red,
			Blue:   cfg.Light.Blue,
		})
		if err != nil {
			return fmt.Errorf("init light: %w", err)
		}
		deps.Light = sink
	}

	if player, err := sound.NewExecSink(cfg.Sound.Command, cfg.Sound.ClipDir); err != nil {
		logger.WarnKV(ctx, "sound disabled", "error", err)
		deps.Sound = silentSink{ctx: ctx}
	} else {
		deps.Sound = player
	}

	if cfg.Member.BaseURL != "" {
		client, err := member.NewClient(member.Options{
			BaseURL:  cfg.Member.BaseURL,
			Username: cfg.Member.Username,
			Password: cfg.Member.Password,
			Timeout:  cfg.Member.Timeout,
		})
		if err != nil {
			return fmt.Errorf("init member lookup: %w", err)
		}
		deps.Members = client
	}

	b, err := booth.New(booth.Options{
		Tick:           cfg.Tick,
		PresenceWindow: cfg.PresenceWindow,
		CardWindow:     cfg.CardWindow,
		SettleDelay:    cfg.SettleDelay,
		StageTimeouts:  cfg.StageTimeouts,
		Heartbeat:      cfg.Heartbeat,
		LoopAfter:      cfg.Sound.LoopAfter,
	}, deps)
	if err != nil {
		return err
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.ErrorKV(ctx, "http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.WithoutCancel(ctx))
		logger.InfoKV(ctx, "http status server listening", "addr", cfg.HTTPAddr)
	}

	if consoleMode {
		var cancel context.CancelCauseFunc
		ctx, cancel = context.WithCancelCause(ctx)
		defer cancel(nil)
		go func() {
			if err := console.Run(ctx, consoleIn, out, b); err != nil {
				logger.WarnKV(ctx, "console stopped", "error", err)
			}
			cancel(errConsoleQuit)
		}()
	}

	b.Announce(ctx, "STARTUP", "")
	logger.InfoKV(ctx, "started",
		"version", version.Version,
		"console", consoleMode,
		"tick", cfg.Tick,
		"broker", cfg.MQTT.Broker,
		"heartbeat", cfg.Heartbeat)

	runErr := b.Run(ctx)

	reason := shutdownReason(ctx)
	logger.InfoKV(ctx, "shutting down", "reason", reason)
	b.Announce(context.WithoutCancel(ctx), "SHUTDOWN", reason)
	return runErr
}

// feedHandler adapts a feed's Handle to an MQTT subscription callback.
func feedHandler(ctx context.Context, name string, handle func([]byte) error) func([]byte) {
	return func(payload []byte) {
		if err := handle(payload); err != nil {
			logger.WarnKV(ctx, "bad feed message", "feed", name, "error", err)
		}
	}
}
