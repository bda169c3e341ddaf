// Package config loads the YAML configuration shared by the CLI and the
// build runner.
package config

import (
	"fmt"
	"time"

	"github.com/cognicore/lexmatch/internal/logging"
	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/match"
	"github.com/cognicore/lexmatch/pkg/lexmatch/resolve"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

// Config is the full configuration file.
type Config struct {
	Paths   Paths          `yaml:"paths"`
	Build   Build          `yaml:"build"`
	Fuzzy   Fuzzy          `yaml:"fuzzy"`
	Resolve resolve.Config `yaml:"resolve"`
	Tokens  Tokens         `yaml:"tokens"`
	Log     logging.Config `yaml:"log"`
	Fetch   Fetch          `yaml:"fetch"`
	Store   Store          `yaml:"store"`
}

// Paths locates the build artifacts. Empty paths are not written.
type Paths struct {
	Raw       string `yaml:"raw"`
	Processed string `yaml:"processed"`
	TokenDist string `yaml:"token_dist"`
	SurfaceDB string `yaml:"surface_db"`
}

// Build tunes surface-form generation.
type Build struct {
	FirstTokenRarity bool    `yaml:"first_token_rarity"`
	RelaxParam       float64 `yaml:"relax_param"`
	Language         string  `yaml:"language"`
}

// Fuzzy tunes the fuzzy phrase stage.
type Fuzzy struct {
	Enabled           bool `yaml:"enabled"`
	match.FuzzyConfig `yaml:",inline"`
}

// Tokens configures the token-level stage and annotation defaults.
type Tokens struct {
	Stoplist  string   `yaml:"stoplist"`
	Stopwords []string `yaml:"stopwords"`
	Threshold float64  `yaml:"threshold"`
	Workers   int      `yaml:"workers"`
}

// Fetch configures the remote catalog source. An empty URL disables fetching.
type Fetch struct {
	URL          string        `yaml:"url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Scope        string        `yaml:"scope"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Store selects where built snapshots are kept.
type Store struct {
	Driver string `yaml:"driver"` // memory or sqlite
	DSN    string `yaml:"dsn"`
}

// Default returns the canonical configuration.
func Default() Config {
	return Config{
		Build:   Build{RelaxParam: surface.DefaultRelaxParam, Language: "english"},
		Fuzzy:   Fuzzy{Enabled: true, FuzzyConfig: match.DefaultFuzzyConfig()},
		Resolve: resolve.DefaultConfig(),
		Tokens:  Tokens{Threshold: 0.5, Workers: 4},
		Log:     logging.Config{Level: "info", Format: "console"},
		Fetch:   Fetch{Timeout: 30 * time.Second},
		Store:   Store{Driver: "memory"},
	}
}

// Validate rejects values the pipeline cannot work with.
func (c Config) Validate() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: %s = %v outside [0,1]: %w", name, v, internalerr.ErrInvalidConfig)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"fuzzy.min_phrase_sim", c.Fuzzy.MinPhraseSim},
		{"fuzzy.min_token_sim", c.Fuzzy.MinTokenSim},
		{"fuzzy.min_head_sim", c.Fuzzy.MinHeadSim},
		{"tokens.threshold", c.Tokens.Threshold},
		{"build.relax_param", c.Build.RelaxParam},
	} {
		if err := check(f.name, f.v); err != nil {
			return err
		}
	}
	if c.Fuzzy.MaxCharDiff < 0 {
		return fmt.Errorf("config: fuzzy.max_char_diff = %d: %w", c.Fuzzy.MaxCharDiff, internalerr.ErrInvalidConfig)
	}
	if c.Resolve.MaxGap < 0 {
		return fmt.Errorf("config: resolve.max_gap = %d: %w", c.Resolve.MaxGap, internalerr.ErrInvalidConfig)
	}
	if c.Tokens.Workers < 0 {
		return fmt.Errorf("config: tokens.workers = %d: %w", c.Tokens.Workers, internalerr.ErrInvalidConfig)
	}
	switch c.Store.Driver {
	case "", "memory":
	case "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn required for sqlite: %w", internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q: %w", c.Store.Driver, internalerr.ErrInvalidConfig)
	}
	if c.Fetch.URL != "" && c.Fetch.TokenURL != "" && c.Fetch.ClientID == "" {
		return fmt.Errorf("config: fetch.client_id required with token_url: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}

// MatchConfig returns the pipeline settings. The stoplist is left to the
// loader.
func (c Config) MatchConfig() match.Config {
	return match.Config{Fuzzy: c.Fuzzy.FuzzyConfig, FuzzyEnabled: c.Fuzzy.Enabled}
}

// BuildOptions returns the surface builder options.
func (c Config) BuildOptions() surface.Options {
	return surface.Options{FirstTokenRarity: c.Build.FirstTokenRarity, RelaxParam: c.Build.RelaxParam}
}
