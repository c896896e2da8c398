package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-surveysync/pkg/theme"
)

// Transports accepted by Sync.Transport.
const (
	TransportStdin = "stdin"
	TransportRedis = "redis"
)

// Sinks accepted by Sync.Sinks.
const (
	SinkStdout = "stdout"
	SinkRedis  = "redis"
	SinkSNS    = "sns"
)

type Config struct {
	App     AppConfig          `mapstructure:"app"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Sync    SyncConfig         `mapstructure:"sync"`
	Redis   RedisConfig        `mapstructure:"redis"`
	SNS     SNSConfig          `mapstructure:"sns"`
	HTTP    HTTPConfig         `mapstructure:"http"`
	Hooks   HooksConfig        `mapstructure:"hooks"`
	Themes  []theme.Definition `mapstructure:"themes"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SyncConfig struct {
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
	DefaultView    string        `mapstructure:"default_view"`
	Transport      string        `mapstructure:"transport"`
	Sinks          []string      `mapstructure:"sinks"`
}

type RedisConfig struct {
	Address        string `mapstructure:"address"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	CommandChannel string `mapstructure:"command_channel"`
	EventChannel   string `mapstructure:"event_channel"`
}

type SNSConfig struct {
	Region   string `mapstructure:"region"`
	TopicARN string `mapstructure:"topic_arn"`
}

// HTTPConfig configures the inspection endpoint. A blank address disables it.
type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

// HooksConfig controls script hooks shipped in init payloads. They are off
// unless Scripts is set.
type HooksConfig struct {
	Scripts       bool          `mapstructure:"scripts"`
	ScriptTimeout time.Duration `mapstructure:"script_timeout"`
}

// HasSink reports whether name is among the configured sinks.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sync.Sinks {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// UsesRedis reports whether any component needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.Sync.Transport == TransportRedis || c.HasSink(SinkRedis)
}

func validateConfig(cfg *Config) error {
	if cfg.Sync.DebounceWindow <= 0 {
		return fmt.Errorf("sync.debounce_window must be positive, got %s", cfg.Sync.DebounceWindow)
	}
	switch cfg.Sync.Transport {
	case TransportStdin, TransportRedis:
	default:
		return fmt.Errorf("sync.transport %q is not one of stdin, redis", cfg.Sync.Transport)
	}
	for _, sink := range cfg.Sync.Sinks {
		switch strings.ToLower(strings.TrimSpace(sink)) {
		case SinkStdout, SinkRedis, SinkSNS:
		default:
			return fmt.Errorf("sync.sinks: unknown sink %q", sink)
		}
	}
	if cfg.UsesRedis() && cfg.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is used")
	}
	if cfg.HasSink(SinkSNS) {
		if cfg.SNS.TopicARN == "" {
			return fmt.Errorf("sns.topic_arn is required for the sns sink")
		}
		if cfg.SNS.Region == "" {
			return fmt.Errorf("sns.region is required for the sns sink")
		}
	}
	for i, def := range cfg.Themes {
		if strings.TrimSpace(def.Name) == "" {
			return fmt.Errorf("themes[%d]: name is required", i)
		}
	}
	return nil
}
