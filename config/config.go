package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/b2"
	stowgatehttp "github.com/sagarc03/stowgate/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for stowgate.
type Config struct {
	Server   ServerConfig            `mapstructure:"server" yaml:"server"`
	Upstream UpstreamConfig          `mapstructure:"upstream" yaml:"upstream"`
	CORS     stowgatehttp.CORSConfig `mapstructure:"cors" yaml:"cors"`
	Metrics  MetricsConfig           `mapstructure:"metrics" yaml:"metrics"`
	Log      LogConfig               `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int    `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"min=1"`
	StaticDir    string `mapstructure:"static_dir" yaml:"static_dir"`
}

// UpstreamConfig holds the storage provider settings.
type UpstreamConfig struct {
	AuthorizeURL string `mapstructure:"authorize_url" yaml:"authorize_url" validate:"required,url"`
	PathPrefix   string `mapstructure:"path_prefix" yaml:"path_prefix" validate:"required"`
	Timeout      int    `mapstructure:"timeout" yaml:"timeout" validate:"min=1"` // seconds
}

// TimeoutDuration returns Timeout as a time.Duration.
func (u UpstreamConfig) TimeoutDuration() time.Duration {
	return time.Duration(u.Timeout) * time.Second
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required,startswith=/"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":          "server.port",
	"static-dir":    "server.static_dir",
	"authorize-url": "upstream.authorize_url",
	"path-prefix":   "upstream.path_prefix",
	"timeout":       "upstream.timeout",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.max_body_bytes", stowgatehttp.DefaultMaxBodyBytes)
	v.SetDefault("server.static_dir", "")

	v.SetDefault("upstream.authorize_url", b2.DefaultAuthorizeURL)
	v.SetDefault("upstream.path_prefix", stowgate.DefaultPathPrefix)
	v.SetDefault("upstream.timeout", int(b2.DefaultTimeout/time.Second))

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", stowgatehttp.RequestIDHeader})
	v.SetDefault("cors.exposed_headers", []string{stowgatehttp.RequestIDHeader})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("STOWGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
