package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TAGWIZ_"

// ErrMissingCredentials is returned by Validate when a remote service
// cannot be used because its credential is absent.
var ErrMissingCredentials = errors.New("missing credentials")

// ErrInvalidThreshold is returned by Validate for a match threshold out of
// range or in the wrong order.
var ErrInvalidThreshold = errors.New("invalid match threshold")

type Config struct {
	// AcoustID fingerprint lookups (api_key is required)
	AcoustID AcoustIDConfig `koanf:"acoustid"`

	// MusicBrainz text search and cover art (contact_email is required)
	MusicBrainz MusicBrainzConfig `koanf:"musicbrainz"`

	Fpcalc  FpcalcConfig  `koanf:"fpcalc"`
	Match   MatchConfig   `koanf:"match"`
	Retry   RetryConfig   `koanf:"retry"`
	Artwork ArtworkConfig `koanf:"artwork"`
	Scan    ScanConfig    `koanf:"scan"`
	Log     LogConfig     `koanf:"log"`
}

// AcoustIDConfig holds AcoustID-related configuration.
type AcoustIDConfig struct {
	APIKey  string        `koanf:"api_key"` // also read from ACOUSTID_API_KEY
	Timeout time.Duration `koanf:"timeout"` // per request (default: 10s)
}

// MusicBrainzConfig holds MusicBrainz-related configuration.
type MusicBrainzConfig struct {
	ContactEmail string        `koanf:"contact_email"` // also read from EMAIL_ADDRESS
	Timeout      time.Duration `koanf:"timeout"`       // per request (default: 30s)
	MinScore     int           `koanf:"min_score"`     // search results below are dropped (default: 80)
	SearchLimit  int           `koanf:"search_limit"`  // results per search (default: 10)
}

// FpcalcConfig configures the chromaprint command line tool.
type FpcalcConfig struct {
	Path    string        `koanf:"path"`    // default: "fpcalc" from PATH
	Timeout time.Duration `koanf:"timeout"` // default: 30s
}

// MatchConfig holds the candidate acceptance thresholds. Unset thresholds
// are nil so that 0 stays expressible.
type MatchConfig struct {
	Accept        *float64 `koanf:"accept"`         // auto-accept at or above (default: 0.85)
	Min           *float64 `koanf:"min"`            // fingerprint relevance floor (default: 0.5)
	TextCeiling   *float64 `koanf:"text_ceiling"`   // max synthetic confidence of text results (default: 0.8)
	AlwaysConfirm bool     `koanf:"always_confirm"` // never auto-accept
	EnrichLimit   int      `koanf:"enrich_limit"`   // incomplete candidates completed via MusicBrainz (default: 3)
}

// MatchSettings is MatchConfig with defaults applied.
type MatchSettings struct {
	Accept        float64
	Min           float64
	TextCeiling   float64
	AlwaysConfirm bool
	EnrichLimit   int
}

// RetryConfig configures the backoff used for remote calls.
type RetryConfig struct {
	Attempts     int           `koanf:"attempts"`      // retries after the first call (default: 3)
	InitialDelay time.Duration `koanf:"initial_delay"` // default: 2s
	MaxDelay     time.Duration `koanf:"max_delay"`     // default: 30s
}

// ArtworkConfig holds cover art settings.
type ArtworkConfig struct {
	Enabled        *bool `koanf:"enabled"`         // default: true
	MaxSize        int   `koanf:"max_size"`        // longest edge in pixels (default: 1200)
	FolderFallback *bool `koanf:"folder_fallback"` // use cover.jpg & co when the archive has nothing (default: true)
	CacheSize      int   `koanf:"cache_size"`      // releases kept in memory (default: 64)
}

// ScanConfig holds library walk settings.
type ScanConfig struct {
	Exclude       []string `koanf:"exclude"`        // doublestar globs, relative to each root
	IncludeTagged bool     `koanf:"include_tagged"` // also process files that already have title/artist/album
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // logrus level name (default: "info")
}

// Load reads configuration files and the environment. explicitPath, when
// not empty, is loaded last and must exist.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	if explicitPath != "" {
		explicitPath = expandPath(explicitPath)
		if err := k.Load(file.Provider(explicitPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", explicitPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.AcoustID.APIKey = strings.TrimSpace(cfg.AcoustID.APIKey)
	cfg.MusicBrainz.ContactEmail = strings.TrimSpace(cfg.MusicBrainz.ContactEmail)
	cfg.Fpcalc.Path = expandPath(cfg.Fpcalc.Path)

	return cfg, nil
}

// envKey maps environment variable names to config keys. Unknown
// variables map to "" and are ignored.
func envKey(name string) string {
	switch name {
	case "ACOUSTID_API_KEY":
		return "acoustid.api_key"
	case "EMAIL_ADDRESS":
		return "musicbrainz.contact_email"
	}
	rest, ok := strings.CutPrefix(name, envPrefix)
	if !ok || rest == "" {
		return ""
	}
	section, key, ok := strings.Cut(strings.ToLower(rest), "_")
	if !ok || key == "" {
		return ""
	}
	return section + "." + key
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tagwiz/config.toml
		filepath.Join(xdg.ConfigHome, "tagwiz", "config.toml"),
		// 2. ./tagwiz.toml (pwd, highest priority)
		"tagwiz.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Validate reports every missing credential at once. Both are needed
// before any file is touched.
func (c *Config) Validate() error {
	var missing []string
	if c.AcoustID.APIKey == "" {
		missing = append(missing, "acoustid.api_key (ACOUSTID_API_KEY)")
	}
	if c.MusicBrainz.ContactEmail == "" {
		missing = append(missing, "musicbrainz.contact_email (EMAIL_ADDRESS)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	for _, th := range []struct {
		key   string
		value *float64
	}{
		{"match.accept", c.Match.Accept},
		{"match.min", c.Match.Min},
		{"match.text_ceiling", c.Match.TextCeiling},
	} {
		if th.value != nil && (*th.value < 0 || *th.value > 1) {
			return fmt.Errorf("%w: %s = %g, must be between 0 and 1", ErrInvalidThreshold, th.key, *th.value)
		}
	}

	m := c.GetMatchConfig()
	if m.Min > m.Accept {
		return fmt.Errorf("%w: match.min (%.2f) must not exceed match.accept (%.2f)", ErrInvalidThreshold, m.Min, m.Accept)
	}
	return nil
}

// GetAcoustIDConfig returns the AcoustID configuration with defaults applied.
func (c *Config) GetAcoustIDConfig() AcoustIDConfig {
	cfg := c.AcoustID
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}

// GetMusicBrainzConfig returns the MusicBrainz configuration with defaults applied.
func (c *Config) GetMusicBrainzConfig() MusicBrainzConfig {
	cfg := c.MusicBrainz
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinScore <= 0 || cfg.MinScore > 100 {
		cfg.MinScore = 80
	}
	if cfg.SearchLimit <= 0 || cfg.SearchLimit > 100 {
		cfg.SearchLimit = 10
	}
	return cfg
}

// GetFpcalcConfig returns the fpcalc configuration with defaults applied.
func (c *Config) GetFpcalcConfig() FpcalcConfig {
	cfg := c.Fpcalc
	if cfg.Path == "" {
		cfg.Path = "fpcalc"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// GetMatchConfig returns the thresholds with defaults applied. Range
// checks belong to Validate.
func (c *Config) GetMatchConfig() MatchSettings {
	cfg := MatchSettings{
		Accept:        valueOr(c.Match.Accept, 0.85),
		Min:           valueOr(c.Match.Min, 0.5),
		TextCeiling:   valueOr(c.Match.TextCeiling, 0.8),
		AlwaysConfirm: c.Match.AlwaysConfirm,
		EnrichLimit:   c.Match.EnrichLimit,
	}
	if cfg.EnrichLimit < 0 {
		cfg.EnrichLimit = 0
	} else if cfg.EnrichLimit == 0 {
		cfg.EnrichLimit = 3
	}
	return cfg
}

// GetRetryConfig returns the retry configuration with defaults applied.
// A negative attempt count disables retries.
func (c *Config) GetRetryConfig() RetryConfig {
	cfg := c.Retry
	if cfg.Attempts < 0 {
		cfg.Attempts = 0
	} else if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 2 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	return cfg
}

// GetArtworkConfig returns the artwork configuration with defaults applied.
func (c *Config) GetArtworkConfig() ArtworkConfig {
	cfg := c.Artwork
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}
	if cfg.FolderFallback == nil {
		fallback := true
		cfg.FolderFallback = &fallback
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1200
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 64
	}
	return cfg
}

// ArtworkEnabled returns true if cover art should be fetched and embedded.
func (c *Config) ArtworkEnabled() bool {
	return *c.GetArtworkConfig().Enabled
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	if c.Log.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Log.Level)
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
