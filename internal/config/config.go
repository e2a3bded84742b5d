package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/service/bus"
)

var validate = validator.New()

// Config aggregates every section of the client configuration.
type Config struct {
	API     APIConfig
	Bus     BusConfig
	Store   StoreConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	api, err := loadAPIConfig()
	if err != nil {
		return nil, err
	}

	busCfg, err := loadBusConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	metrics, err := loadMetricsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{API: api, Bus: busCfg, Store: store, Log: logCfg, Metrics: metrics}, nil
}

// APIConfig describes the REST backend.
type APIConfig struct {
	BaseURL string        `env:"KISAN_API_BASE_URL,default=http://127.0.0.1:8000/" validate:"required,url"`
	Timeout time.Duration `env:"KISAN_API_TIMEOUT,default=15s" validate:"gt=0"`
}

func loadAPIConfig() (APIConfig, error) {
	var cfg APIConfig
	if err := decode(&cfg, "api"); err != nil {
		return APIConfig{}, err
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	return cfg, nil
}

// BusConfig describes the message bus endpoint.
type BusConfig struct {
	Host             string        `env:"KISAN_WS_HOST,default=127.0.0.1:8000" validate:"required,hostname_port"`
	Scheme           string        `env:"KISAN_WS_SCHEME,default=ws" validate:"oneof=ws wss"`
	Path             string        `env:"KISAN_WS_PATH,default=/ws/chat/" validate:"required,startswith=/"`
	HandshakeTimeout time.Duration `env:"KISAN_WS_HANDSHAKE_TIMEOUT,default=10s" validate:"gt=0"`
	ReadTimeout      time.Duration `env:"KISAN_WS_READ_TIMEOUT,default=60s" validate:"gt=0"`
	PingInterval     time.Duration `env:"KISAN_WS_PING_INTERVAL,default=25s" validate:"gt=0,ltfield=ReadTimeout"`
}

// URL returns the bus address every channel dials.
func (c BusConfig) URL() string {
	u := url.URL{Scheme: c.Scheme, Host: c.Host, Path: c.Path}
	return u.String()
}

// Options converts the section into dialer options.
func (c BusConfig) Options() bus.Options {
	opts := bus.DefaultOptions()
	opts.HandshakeTimeout = c.HandshakeTimeout
	opts.ReadTimeout = c.ReadTimeout
	opts.PingInterval = c.PingInterval
	return opts
}

func loadBusConfig() (BusConfig, error) {
	var cfg BusConfig
	if err := decode(&cfg, "bus"); err != nil {
		return BusConfig{}, err
	}
	return cfg, nil
}

// StoreConfig locates the on-disk identity store.
type StoreConfig struct {
	Path string `env:"KISAN_STORE_PATH,default=.kisan/store" validate:"required"`
}

func loadStoreConfig() (StoreConfig, error) {
	var cfg StoreConfig
	if err := decode(&cfg, "store"); err != nil {
		return StoreConfig{}, err
	}
	return cfg, nil
}

// LogConfig selects the log level and, for the terminal UI, the log file.
type LogConfig struct {
	Level string `env:"KISAN_LOG_LEVEL,default=info" validate:"oneof=trace debug info warn error disabled"`
	File  string `env:"KISAN_LOG_FILE,default=kisan-chat.log"`
}

// ZerologLevel returns the configured level.
func (c LogConfig) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func loadLogConfig() (LogConfig, error) {
	var cfg LogConfig
	if err := decode(&cfg, "log"); err != nil {
		return LogConfig{}, err
	}
	return cfg, nil
}

// MetricsConfig enables the Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `env:"KISAN_METRICS_ADDR" validate:"omitempty,hostname_port"`
}

// Enabled reports whether a listener should be started.
func (c MetricsConfig) Enabled() bool {
	return c.Addr != ""
}

func loadMetricsConfig() (MetricsConfig, error) {
	var cfg MetricsConfig
	if err := decode(&cfg, "metrics"); err != nil {
		return MetricsConfig{}, err
	}
	return cfg, nil
}

func decode(cfg interface{}, section string) error {
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return fmt.Errorf("invalid %s config: %w", section, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid %s config: %w", section, err)
	}
	return nil
}
