package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-surveysync/pkg/theme"
)

// EnvPrefix prefixes every environment override, e.g.
// SURVEYSYNC_REDIS_ADDRESS.
const EnvPrefix = "SURVEYSYNC"

// Options controls where configuration is read from.
type Options struct {
	// Paths searched for surveysync.yaml and surveysync.<env>.yaml.
	Paths []string
	// File, when set, is read instead of searching Paths.
	File string
	// EnvFiles are loaded with godotenv before anything else. Variables
	// already set in the process win.
	EnvFiles []string
}

// DefaultOptions searches the working directory and ./configs.
func DefaultOptions() Options {
	return Options{
		Paths:    []string{".", "./configs"},
		EnvFiles: []string{".env"},
	}
}

// Load reads configuration from files, .env and SURVEYSYNC_* variables, in
// increasing precedence, then validates it.
func Load(opts Options) (*Config, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("surveysync")
		for _, p := range opts.Paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read base config: %w", err)
			}
		}
		if env := v.GetString("app.environment"); env != "" {
			v.SetConfigName("surveysync." + env)
			if err := v.MergeInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return nil, fmt.Errorf("config: read %s config: %w", env, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Sync.Sinks = splitList(cfg.Sync.Sinks)
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ThemeCatalog builds the catalog described by the themes section.
func (c *Config) ThemeCatalog() (*theme.Catalog, error) {
	return theme.FromDefinitions(c.Themes)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "surveysync")
	v.SetDefault("app.environment", "development")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("sync.debounce_window", "200ms")
	v.SetDefault("sync.default_view", "html")
	v.SetDefault("sync.transport", TransportStdin)
	v.SetDefault("sync.sinks", []string{SinkStdout})
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.command_channel", "surveysync:commands")
	v.SetDefault("redis.event_channel", "surveysync:events")
	v.SetDefault("sns.region", "")
	v.SetDefault("sns.topic_arn", "")
	v.SetDefault("http.address", "")
	v.SetDefault("hooks.scripts", false)
	v.SetDefault("hooks.script_timeout", "250ms")
}

func loadEnvFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(filepath.Clean(path)); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

// splitList accepts both YAML lists and the comma separated form env
// variables produce.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, strings.ToLower(part))
			}
		}
	}
	return out
}
