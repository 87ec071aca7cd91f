// Package config provides configuration management for namesake using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration holds the name pairs to replace, the presentation of
// replacement markers, and the allow and block lists that decide which sites
// are rewritten. Defaults are applied in Load for keys the user never set.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/pattern"
	"github.com/conneroisu/namesake/internal/style"
)

type Config struct {
	Names            Names       `mapstructure:"names" yaml:"names" json:"names"`
	Enabled          bool        `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Highlight        bool        `mapstructure:"highlight" yaml:"highlight" json:"highlight"`
	Theme            style.Theme `mapstructure:"theme" yaml:"theme" json:"theme"`
	BlockUntilDone   bool        `mapstructure:"block_until_done" yaml:"block_until_done" json:"block_until_done"`
	Allowlist        []string    `mapstructure:"allowlist" yaml:"allowlist" json:"allowlist"`
	Blocklist        []string    `mapstructure:"blocklist" yaml:"blocklist" json:"blocklist"`
	DefaultAllowMode bool        `mapstructure:"default_allow_mode" yaml:"default_allow_mode" json:"default_allow_mode"`
	Log              LogConfig   `mapstructure:"log" yaml:"log" json:"log"`
}

// Names groups the name pairs by the part of a name they stand for.
type Names struct {
	First  []pattern.NamePair `mapstructure:"first" yaml:"first" json:"first"`
	Middle []pattern.NamePair `mapstructure:"middle" yaml:"middle" json:"middle"`
	Last   []pattern.NamePair `mapstructure:"last" yaml:"last" json:"last"`
	Email  []pattern.NamePair `mapstructure:"email" yaml:"email" json:"email"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// All flattens the groups in first, middle, last, email order.
func (n Names) All() []pattern.NamePair {
	all := make([]pattern.NamePair, 0, len(n.First)+len(n.Middle)+len(n.Last)+len(n.Email))
	all = append(all, n.First...)
	all = append(all, n.Middle...)
	all = append(all, n.Last...)
	return append(all, n.Email...)
}

// Equal reports whether both groupings hold the same pairs in the same order.
func (n Names) Equal(other Names) bool {
	return pairsEqual(n.First, other.First) &&
		pairsEqual(n.Middle, other.Middle) &&
		pairsEqual(n.Last, other.Last) &&
		pairsEqual(n.Email, other.Email)
}

func pairsEqual(a, b []pattern.NamePair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Enabled:          true,
		Highlight:        true,
		Theme:            style.ThemeTrans,
		DefaultAllowMode: true,
		Log:              LogConfig{Level: "info", Format: "text"},
	}
}

// Load resolves the configuration and rejects it when it cannot be applied.
func Load() (*Config, error) {
	config, err := Resolve()
	if err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "configuration validation failed")
	}
	return config, nil
}

// Resolve decodes the configuration and applies defaults without validating
// it, so that every problem can be reported at once.
func Resolve() (*Config, error) {
	var config Config

	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	// Keys that default to true
	if !viper.IsSet("enabled") {
		config.Enabled = true
	}
	if !viper.IsSet("highlight") {
		config.Highlight = true
	}
	if !viper.IsSet("default_allow_mode") {
		config.DefaultAllowMode = true
	}

	config.Theme = style.Theme(strings.ToLower(strings.TrimSpace(string(config.Theme))))
	if config.Theme == "" {
		config.Theme = style.ThemeTrans
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	return &config, nil
}

// validateConfig rejects configurations that could not be applied. Site-list
// problems are only warnings and are reported by ValidateConfigWithDetails.
func validateConfig(config *Config) error {
	vec := ValidateNames(config.Names)
	if vec == nil {
		vec = &errors.ValidationErrorCollection{}
	}

	if !config.Theme.Valid() {
		vec.AddField("theme", config.Theme, "unknown theme", themeSuggestion())
	}
	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		vec.AddField("log.level", config.Log.Level, err.Error(), "use debug, info, warn or error")
	}
	if !validLogFormat(config.Log.Format) {
		vec.AddField("log.format", config.Log.Format, "unknown log format", "use text or json")
	}

	if vec.HasErrors() {
		return vec
	}
	return nil
}

func validLogFormat(format string) bool {
	switch strings.ToLower(format) {
	case "text", "json":
		return true
	}
	return false
}

func themeSuggestion() string {
	names := make([]string, len(style.Themes))
	for i, t := range style.Themes {
		names[i] = string(t)
	}
	return "use one of: " + strings.Join(names, ", ")
}
