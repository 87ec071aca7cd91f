package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/pattern"
	"github.com/conneroisu/namesake/internal/style"
)

func pair(dead, chosen string) map[string]string {
	return map[string]string{"dead": dead, "chosen": chosen}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name:  "defaults",
			setup: func() {},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Enabled)
				assert.True(t, cfg.Highlight)
				assert.True(t, cfg.DefaultAllowMode)
				assert.False(t, cfg.BlockUntilDone)
				assert.Equal(t, style.ThemeTrans, cfg.Theme)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
				assert.Empty(t, cfg.Names.All())
			},
		},
		{
			name: "explicit false overrides true defaults",
			setup: func() {
				viper.Set("enabled", false)
				viper.Set("highlight", false)
				viper.Set("default_allow_mode", false)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Enabled)
				assert.False(t, cfg.Highlight)
				assert.False(t, cfg.DefaultAllowMode)
			},
		},
		{
			name: "names and site lists",
			setup: func() {
				viper.Set("names.first", []map[string]string{pair("Ann", "Emma")})
				viper.Set("names.email", []map[string]string{pair("ann.smith", "emma.smith")})
				viper.Set("allowlist", []string{"example.com"})
				viper.Set("blocklist", []string{"example.com/admin"})
				viper.Set("theme", " High-Contrast ")
				viper.Set("block_until_done", true)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []pattern.NamePair{
					{Dead: "Ann", Chosen: "Emma"},
					{Dead: "ann.smith", Chosen: "emma.smith"},
				}, cfg.Names.All())
				assert.Equal(t, []string{"example.com"}, cfg.Allowlist)
				assert.Equal(t, []string{"example.com/admin"}, cfg.Blocklist)
				assert.Equal(t, style.ThemeHighContrast, cfg.Theme)
				assert.True(t, cfg.BlockUntilDone)
			},
		},
		{
			name:        "undecodable value",
			setup:       func() { viper.Set("enabled", "maybe") },
			expectError: true,
		},
		{
			name:        "unknown theme",
			setup:       func() { viper.Set("theme", "pink") },
			expectError: true,
		},
		{
			name:        "unknown log level",
			setup:       func() { viper.Set("log.level", "loud") },
			expectError: true,
		},
		{
			name: "self mapping",
			setup: func() {
				viper.Set("names.first", []map[string]string{pair("Ann", "ann")})
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			tt.setup()

			cfg, err := Load()

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, cfg)
				assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(strings.NewReader(`
names:
  first:
    - dead: Ann
      chosen: Emma
  last:
    - dead: Smith
      chosen: Jones
theme: non-binary
highlight: false
log:
  level: debug
  format: json
`)))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}}, cfg.Names.First)
	assert.Equal(t, []pattern.NamePair{{Dead: "Smith", Chosen: "Jones"}}, cfg.Names.Last)
	assert.Equal(t, style.ThemeNonBinary, cfg.Theme)
	assert.False(t, cfg.Highlight)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
}

func TestNamesEqual(t *testing.T) {
	a := Names{First: []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}}}
	b := Names{First: []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}}}
	assert.True(t, a.Equal(b))

	b.First[0].Chosen = "Emily"
	assert.False(t, a.Equal(b))

	c := Names{Last: []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}}}
	assert.False(t, a.Equal(c), "the same pair in another group is a change")
}

func TestValidateNames(t *testing.T) {
	tests := []struct {
		name   string
		names  Names
		fields []string
	}{
		{
			name:  "valid",
			names: Names{First: []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}}, Last: []pattern.NamePair{{Dead: "Smith", Chosen: "Jones"}}},
		},
		{
			name: "duplicate dead names across groups",
			names: Names{
				First: []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}},
				Last:  []pattern.NamePair{{Dead: "ANN", Chosen: "Jones"}},
			},
			fields: []string{"names.last[0].dead"},
		},
		{
			name:   "self mapping",
			names:  Names{First: []pattern.NamePair{{Dead: "Ann", Chosen: " ANN "}}},
			fields: []string{"names.first[0]"},
		},
		{
			name: "recursive mapping",
			names: Names{First: []pattern.NamePair{
				{Dead: "Ann", Chosen: "Emma"},
				{Dead: "emma", Chosen: "Jo"},
			}},
			fields: []string{"names.first[0].chosen"},
		},
		{
			name:   "empty names",
			names:  Names{Middle: []pattern.NamePair{{Dead: " ", Chosen: "x"}, {Dead: "Lee", Chosen: ""}}},
			fields: []string{"names.middle[0].dead", "names.middle[1].chosen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := ValidateNames(tt.names)
			if len(tt.fields) == 0 {
				assert.Nil(t, vec)
				return
			}
			require.NotNil(t, vec)
			var got []string
			for _, err := range vec.Errors {
				got = append(got, err.Field())
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestValidateConfigWithDetails(t *testing.T) {
	cfg := Default()
	cfg.Names.First = []pattern.NamePair{{Dead: "Ann", Chosen: "Emma"}}
	cfg.Allowlist = []string{"", "https://example.com", "example.com"}
	cfg.Blocklist = []string{"a.com", "A.com"}

	result := ValidateConfigWithDetails(cfg)
	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())
	require.True(t, result.HasWarnings())

	var fields []string
	for _, w := range result.Warnings {
		fields = append(fields, w.Field)
	}
	assert.Equal(t, []string{"allowlist[0]", "allowlist[1]", "blocklist[1]"}, fields)
	assert.Contains(t, result.String(), "⚠️  Validation Warnings:")
	assert.Contains(t, result.String(), "write example.com instead")

	cfg.Theme = "pink"
	result = ValidateConfigWithDetails(cfg)
	assert.False(t, result.Valid)
	assert.Equal(t, "theme", result.Errors[0].Field)
	assert.Contains(t, result.String(), "❌ Validation Errors:")
}

func TestValidateConfigWithDetailsWarnsWhenNothingIsParsed(t *testing.T) {
	cfg := Default()
	cfg.DefaultAllowMode = false

	result := ValidateConfigWithDetails(cfg)
	assert.True(t, result.Valid)

	var fields []string
	for _, w := range result.Warnings {
		fields = append(fields, w.Field)
	}
	assert.Equal(t, []string{"names", "default_allow_mode"}, fields)
}
