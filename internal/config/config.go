package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the booth daemon.
type Config struct {
	// Tick is the interval of every booth loop.
	Tick time.Duration `yaml:"tick"`
	// PresenceWindow is how long a tag may go unseen before it exits.
	PresenceWindow time.Duration `yaml:"presence_window"`
	// CardWindow is how long a card reading is remembered once no card is read.
	CardWindow time.Duration `yaml:"card_window"`
	// SettleDelay postpones presence polling after startup. Zero means the
	// default; negative polls straight away.
	SettleDelay time.Duration `yaml:"settle_delay"`
	// StageTimeouts is the time spent in escalation stages 0, 1 and 2.
	StageTimeouts []time.Duration `yaml:"stage_timeouts"`
	// Heartbeat is the interval of HEARTBEAT system events; negative disables them.
	Heartbeat time.Duration `yaml:"heartbeat"`
	// HTTPAddr is the status server address; empty disables it.
	HTTPAddr string `yaml:"http_addr"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	MQTT   MQTT   `yaml:"mqtt"`
	Light  Light  `yaml:"light"`
	Sound  Sound  `yaml:"sound"`
	Member Member `yaml:"member"`
}

// MQTT configures the broker connection, sensor feeds and event topics.
type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TagTopic    string `yaml:"tag_topic"`
	CardTopic   string `yaml:"card_topic"`
	EventTopic  string `yaml:"event_topic"`
	SystemTopic string `yaml:"system_topic"`
	// Stale is how old the last tag or card message may be before a poll fails.
	Stale time.Duration `yaml:"stale"`
	// BufferSize bounds messages held while disconnected.
	BufferSize int `yaml:"buffer_size"`
}

// Light configures the GPIO lines of the indicator.
type Light struct {
	Chip   string `yaml:"chip"`
	Green  int    `yaml:"green"`
	Yellow int    `yaml:"yellow"`
	Red    int    `yaml:"red"`
	Blue   int    `yaml:"blue"`
}

// Sound configures clip playback.
type Sound struct {
	Command   []string      `yaml:"command"`
	ClipDir   string        `yaml:"clip_dir"`
	LoopAfter time.Duration `yaml:"loop_after"`
}

// Member configures the card identity lookup. Empty BaseURL disables it.
type Member struct {
	BaseURL  string        `yaml:"base_url"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default settings file.
	DefaultConfigFilename = "kit-booth.yaml"
	// PasswordEnv overrides Member.Password when set.
	PasswordEnv = "KITBOOTH_MEMBER_PASSWORD"

	DefaultTick           = 100 * time.Millisecond
	DefaultPresenceWindow = 10 * time.Second
	DefaultCardWindow     = 5 * time.Second
	DefaultSettleDelay    = 5 * time.Second
	DefaultHeartbeat      = 15 * time.Minute
	DefaultLoopAfter      = 3050 * time.Millisecond
	DefaultMemberTimeout  = 5 * time.Second
	DefaultStale          = 2 * time.Second
	DefaultBufferSize     = 100
)

var (
	errTickRequired    = errors.New("tick must be positive")
	errWindowsRequired = errors.New("presence and card windows must be positive")
	errStageTimeouts   = errors.New("stage timeouts must be non-negative and at most 3")
	errDuplicatePins   = errors.New("light pins must be distinct")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from path, applies defaults and validates it.
// A missing file at the default path yields the defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	cfg := new(Config)
	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	if pw := os.Getenv(PasswordEnv); pw != "" {
		cfg.Member.Password = pw
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate applies defaults to unset fields and checks the rest.
func Validate(cfg *Config) error {
	applyDefaults(cfg)

	if cfg.Tick <= 0 {
		return errTickRequired
	}
	if cfg.PresenceWindow <= 0 || cfg.CardWindow <= 0 {
		return errWindowsRequired
	}
	if len(cfg.StageTimeouts) > 3 {
		return errStageTimeouts
	}
	for _, d := range cfg.StageTimeouts {
		if d < 0 {
			return errStageTimeouts
		}
	}

	pins := map[int]bool{}
	for _, p := range []int{cfg.Light.Green, cfg.Light.Yellow, cfg.Light.Red, cfg.Light.Blue} {
		if pins[p] {
			return errDuplicatePins
		}
		pins[p] = true
	}

	if cfg.MQTT.Broker != "" {
		if _, err := url.ParseRequestURI(cfg.MQTT.Broker); err != nil {
			return fmt.Errorf("invalid mqtt broker: %w", err)
		}
	}
	if cfg.Member.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.Member.BaseURL); err != nil {
			return fmt.Errorf("invalid member base url: %w", err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Tick == 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.PresenceWindow == 0 {
		cfg.PresenceWindow = DefaultPresenceWindow
	}
	if cfg.CardWindow == 0 {
		cfg.CardWindow = DefaultCardWindow
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.StageTimeouts == nil {
		cfg.StageTimeouts = []time.Duration{0, 3 * time.Second, 6 * time.Second}
	}
	if cfg.Heartbeat == 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	m := &cfg.MQTT
	if m.ClientID == "" {
		m.ClientID = "kit-booth"
	}
	if m.TagTopic == "" {
		m.TagTopic = "kitbooth/rfid/tags"
	}
	if m.CardTopic == "" {
		m.CardTopic = "kitbooth/card/reading"
	}
	if m.EventTopic == "" {
		m.EventTopic = "kitbooth/booking/events"
	}
	if m.SystemTopic == "" {
		m.SystemTopic = "kitbooth/booking/system"
	}
	if m.Stale == 0 {
		m.Stale = DefaultStale
	}
	if m.BufferSize <= 0 {
		m.BufferSize = DefaultBufferSize
	}

	l := &cfg.Light
	if l.Chip == "" {
		l.Chip = "gpiochip0"
	}
	if l.Green == 0 && l.Yellow == 0 && l.Red == 0 && l.Blue == 0 {
		l.Green, l.Yellow, l.Red, l.Blue = 17, 27, 22, 23
	}

	s := &cfg.Sound
	if len(s.Command) == 0 {
		s.Command = []string{"mpg123", "-q"}
	}
	if s.ClipDir == "" {
		s.ClipDir = "sounds"
	}
	if s.LoopAfter == 0 {
		s.LoopAfter = DefaultLoopAfter
	}

	if cfg.Member.Timeout == 0 {
		cfg.Member.Timeout = DefaultMemberTimeout
	}
}
