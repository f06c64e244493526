package clientcli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sagarc03/stowgate"
)

// DefaultEndpoint is the gateway a client talks to when nothing else is set.
const DefaultEndpoint = "http://localhost:5001"

// Environment variables read by ConfigFromEnv, ProfileFromEnv and
// ConfigPathFromEnv.
const (
	EnvEndpoint = "STOWGATE_ENDPOINT"
	EnvKeyID    = "STOWGATE_KEY_ID"
	EnvKey      = "STOWGATE_KEY"
	EnvProfile  = "STOWGATE_PROFILE"
	EnvConfig   = "STOWGATE_CONFIG"
)

// Profile is one saved gateway endpoint plus the application key that is
// exchanged there for an account authorization.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	KeyID    string `yaml:"key_id,omitempty"`
	Key      string `yaml:"key,omitempty"`
	Default  bool   `yaml:"default,omitempty"`
}

// Config returns the connection settings stored in the profile.
func (p Profile) Config() *Config {
	return &Config{Endpoint: p.Endpoint, KeyID: p.KeyID, Key: p.Key}
}

// LogValue keeps the application key out of logs.
func (p Profile) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", p.Name),
		slog.String("endpoint", p.Endpoint),
		slog.Any("credential", p.Config().Credential()),
	)
}

// ConfigFile is the on-disk profile set.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) find(name string) int {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return i
		}
	}
	return -1
}

// GetProfile returns the named profile, or the default one when name is empty.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetDefaultProfile()
	}
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	i := c.find(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, falling back to the
// first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	for i := range c.Profiles {
		if c.Profiles[i].Default {
			return &c.Profiles[i], nil
		}
	}
	return &c.Profiles[0], nil
}

// Resolve returns the connection settings of the named profile. An empty
// file is not an error when no name was asked for; the result is then an
// empty Config for env and flags to fill.
func (c *ConfigFile) Resolve(name string) (*Config, error) {
	p, err := c.GetProfile(name)
	switch {
	case err == nil:
		return p.Config(), nil
	case name == "" && errors.Is(err, ErrNoProfiles):
		return &Config{}, nil
	default:
		return nil, err
	}
}

// AddProfile appends p. A profile with the same name is ErrProfileExists.
func (c *ConfigFile) AddProfile(p Profile) error {
	if c.find(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// UpdateProfile replaces the profile named p.Name.
func (c *ConfigFile) UpdateProfile(p Profile) error {
	i := c.find(p.Name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, p.Name)
	}
	c.Profiles[i] = p
	return nil
}

// RemoveProfile deletes the named profile.
func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.Profiles = append(c.Profiles[:i], c.Profiles[i+1:]...)
	return nil
}

// SetDefault marks the named profile as the only default.
func (c *ConfigFile) SetDefault(name string) error {
	i := c.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for j := range c.Profiles {
		c.Profiles[j].Default = j == i
	}
	return nil
}

// Save writes the profile set to path with owner-only permissions, since it
// holds application keys.
func (c *ConfigFile) Save(path string) error {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// LoadConfigFile reads a profile set from path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns ~/.stowgate/config.yaml, or "" without a home
// directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".stowgate", "config.yaml")
}

// Config is the resolved connection settings a Client runs with.
type Config struct {
	Endpoint string
	KeyID    string
	Key      string
}

// WithDefaults returns a copy with DefaultEndpoint filled in when empty.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &cfg
}

// ValidateWithAuth checks that both halves of the application key are set.
func (c *Config) ValidateWithAuth() error {
	if c.KeyID == "" {
		return ErrKeyIDRequired
	}
	if c.Key == "" {
		return ErrKeyRequired
	}
	return nil
}

// Credential returns the key pair the gateway forwards to the provider.
func (c *Config) Credential() stowgate.Credential {
	return stowgate.Credential{Identity: c.KeyID, Secret: c.Key}
}

// ConfigFromProfile returns p's settings, or an empty Config for nil.
func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return p.Config()
}

// ConfigFromEnv reads STOWGATE_ENDPOINT, STOWGATE_KEY_ID and STOWGATE_KEY.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint: os.Getenv(EnvEndpoint),
		KeyID:    os.Getenv(EnvKeyID),
		Key:      os.Getenv(EnvKey),
	}
}

// ProfileFromEnv returns STOWGATE_PROFILE.
func ProfileFromEnv() string {
	return os.Getenv(EnvProfile)
}

// ConfigPathFromEnv returns STOWGATE_CONFIG.
func ConfigPathFromEnv() string {
	return os.Getenv(EnvConfig)
}

// MergeConfig layers configs left to right. Empty fields never override.
func MergeConfig(configs ...*Config) *Config {
	result := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		overlay(&result.Endpoint, cfg.Endpoint)
		overlay(&result.KeyID, cfg.KeyID)
		overlay(&result.Key, cfg.Key)
	}
	return result
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
