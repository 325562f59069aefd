// Package config loads daemon settings from an optional config file layered
// under command-line flags, and watches the file for changes.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/sweeney/button-events/internal/gpio"
	"github.com/sweeney/button-events/internal/logic"
)

// Keys, shared by the config file and the command-line flags.
const (
	KeyPoll            = "poll"
	KeyDebounce        = "debounce"
	KeyLongPress       = "longpress"
	KeyLongPressRepeat = "longpress-repeat"
	KeyMultiClick      = "multiclick"
	KeyChip            = "chip"
	KeyPin             = "pin"
	KeyPull            = "pull"
	KeyActiveLow       = "active-low"
	KeyBackend         = "backend"
	KeyName            = "name"
	KeyBroker          = "broker"
	KeyHeartbeat       = "heartbeat"
	KeyHTTP            = "http"
)

// Config is the full daemon configuration.
// Durations in files are strings such as "50ms".
type Config struct {
	Poll            time.Duration `mapstructure:"poll"`
	Debounce        time.Duration `mapstructure:"debounce"`
	LongPress       time.Duration `mapstructure:"longpress"`
	LongPressRepeat time.Duration `mapstructure:"longpress-repeat"`
	MultiClick      time.Duration `mapstructure:"multiclick"`
	Chip            string        `mapstructure:"chip"`
	Pin             int           `mapstructure:"pin"`
	Pull            string        `mapstructure:"pull"`
	ActiveLow       bool          `mapstructure:"active-low"`
	Backend         string        `mapstructure:"backend"`
	Name            string        `mapstructure:"name"`
	Broker          string        `mapstructure:"broker"`
	Heartbeat       time.Duration `mapstructure:"heartbeat"`
	HTTP            string        `mapstructure:"http"`
}

// Default returns the built-in configuration: an active-low button on
// BCM 17 with a pull-up, polled every 10ms.
func Default() Config {
	b := logic.DefaultConfig()
	return Config{
		Poll:            10 * time.Millisecond,
		Debounce:        b.Debounce,
		LongPress:       b.LongPress,
		LongPressRepeat: b.LongPressRepeat,
		MultiClick:      b.MultiClick,
		Chip:            gpio.DefaultChip,
		Pin:             gpio.DefaultPin,
		Pull:            gpio.PullUp.String(),
		ActiveLow:       b.ActiveLow,
		Backend:         string(gpio.BackendCdev),
		Name:            "button",
		Broker:          "tcp://192.168.1.200:1883",
		Heartbeat:       15 * time.Minute,
		HTTP:            ":80",
	}
}

// Button returns the state machine timings.
func (c Config) Button() logic.Config {
	return logic.Config{
		Debounce:        c.Debounce,
		LongPress:       c.LongPress,
		LongPressRepeat: c.LongPressRepeat,
		MultiClick:      c.MultiClick,
		ActiveLow:       c.ActiveLow,
	}
}

// Validate checks values the daemon cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", KeyPoll, c.Poll))
	}
	for key, d := range map[string]time.Duration{
		KeyDebounce:        c.Debounce,
		KeyLongPress:       c.LongPress,
		KeyLongPressRepeat: c.LongPressRepeat,
		KeyMultiClick:      c.MultiClick,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", key, d))
		}
	}
	if c.Pin < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyPin, c.Pin))
	} else if gpio.Backend(c.Backend) == gpio.BackendRPIO && c.Pin > gpio.MaxRPIOPin {
		errs = append(errs, fmt.Errorf("%s %d out of range for rpio (max %d)", KeyPin, c.Pin, gpio.MaxRPIOPin))
	}
	if _, err := gpio.ParsePull(c.Pull); err != nil {
		errs = append(errs, err)
	}
	switch gpio.Backend(c.Backend) {
	case gpio.BackendCdev, gpio.BackendRPIO:
	default:
		errs = append(errs, fmt.Errorf("unknown %s %q (want cdev or rpio)", KeyBackend, c.Backend))
	}
	if c.Name == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyName))
	}
	return errors.Join(errs...)
}

// Loader reads the layered configuration: defaults, then the config file,
// then explicit overrides.
type Loader struct {
	v    *viper.Viper
	path string
}

// Load reads path (if non-empty) and applies overrides on top. Override keys
// are the Key constants.
func Load(path string, overrides map[string]any) (*Loader, Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	l := &Loader{v: v, path: path}
	cfg, err := l.decode()
	if err != nil {
		return nil, Config{}, err
	}
	return l, cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault(KeyPoll, c.Poll)
	v.SetDefault(KeyDebounce, c.Debounce)
	v.SetDefault(KeyLongPress, c.LongPress)
	v.SetDefault(KeyLongPressRepeat, c.LongPressRepeat)
	v.SetDefault(KeyMultiClick, c.MultiClick)
	v.SetDefault(KeyChip, c.Chip)
	v.SetDefault(KeyPin, c.Pin)
	v.SetDefault(KeyPull, c.Pull)
	v.SetDefault(KeyActiveLow, c.ActiveLow)
	v.SetDefault(KeyBackend, c.Backend)
	v.SetDefault(KeyName, c.Name)
	v.SetDefault(KeyBroker, c.Broker)
	v.SetDefault(KeyHeartbeat, c.Heartbeat)
	v.SetDefault(KeyHTTP, c.HTTP)
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Path returns the config file path, or "" when running on flags only.
func (l *Loader) Path() string {
	return l.path
}

// Watch calls fn with the new configuration each time the config file is
// written. It is a no-op without a config file. fn runs on the watcher's
// goroutine.
func (l *Loader) Watch(fn func(Config)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			log.Printf("config: ignoring change to %s: %v", e.Name, err)
			return
		}
		log.Printf("config: reloaded %s", e.Name)
		fn(cfg)
	})
	l.v.WatchConfig()
}

// LiveChanges lists the keys that differ between prev and next which cannot be
// applied without a restart. Only the debounce window is applied live.
func LiveChanges(prev, next Config) (debounceChanged bool, restart []string) {
	debounceChanged = prev.Debounce != next.Debounce
	if prev.Poll != next.Poll {
		restart = append(restart, KeyPoll)
	}
	if prev.LongPress != next.LongPress {
		restart = append(restart, KeyLongPress)
	}
	if prev.LongPressRepeat != next.LongPressRepeat {
		restart = append(restart, KeyLongPressRepeat)
	}
	if prev.MultiClick != next.MultiClick {
		restart = append(restart, KeyMultiClick)
	}
	if prev.Chip != next.Chip {
		restart = append(restart, KeyChip)
	}
	if prev.Pin != next.Pin {
		restart = append(restart, KeyPin)
	}
	if prev.Pull != next.Pull {
		restart = append(restart, KeyPull)
	}
	if prev.ActiveLow != next.ActiveLow {
		restart = append(restart, KeyActiveLow)
	}
	if prev.Backend != next.Backend {
		restart = append(restart, KeyBackend)
	}
	if prev.Name != next.Name {
		restart = append(restart, KeyName)
	}
	if prev.Broker != next.Broker {
		restart = append(restart, KeyBroker)
	}
	if prev.Heartbeat != next.Heartbeat {
		restart = append(restart, KeyHeartbeat)
	}
	if prev.HTTP != next.HTTP {
		restart = append(restart, KeyHTTP)
	}
	return debounceChanged, restart
}
