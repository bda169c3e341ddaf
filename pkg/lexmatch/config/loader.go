package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/match"
	"github.com/cognicore/lexmatch/pkg/lexmatch/stoplist"
)

// Load reads path over the defaults, expanding ${VAR} references so secrets
// can come from the environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config: %s: %w", path, internalerr.ErrNotFound)
		}
		return cfg, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w: %v", path, internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it is set and exists, otherwise returns the
// defaults.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, internalerr.ErrNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Stoplist builds the stopword manager: the YAML file when configured,
// otherwise the defaults, plus any inline stopwords.
func (c Config) Stoplist() (*stoplist.Manager, error) {
	var m *stoplist.Manager
	if c.Tokens.Stoplist != "" {
		loaded, err := stoplist.LoadYAML(c.Tokens.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		m = loaded
	} else {
		m = stoplist.Default()
	}
	for _, w := range c.Tokens.Stopwords {
		m.Add(w)
	}
	return m, nil
}

// Matching returns the complete pipeline configuration.
func (c Config) Matching() (match.Config, error) {
	mc := c.MatchConfig()
	stops, err := c.Stoplist()
	if err != nil {
		return mc, err
	}
	mc.Stoplist = stops
	return mc, nil
}
