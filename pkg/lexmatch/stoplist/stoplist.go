// Package stoplist holds the function words the token-level matcher never
// counts as evidence for an entity ("of" in "analysis of variance").
package stoplist

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
)

// DefaultTerms are English function words common in entity names.
var DefaultTerms = []string{
	"a", "an", "and", "as", "at", "by", "for", "from", "in", "into",
	"of", "on", "or", "the", "to", "with",
}

// Manager is a set of stopwords. Lookups are safe for concurrent readers once
// construction is finished.
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a manager holding terms (lowercased).
func NewManager(terms []string) *Manager {
	m := &Manager{stops: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		m.Add(t)
	}
	return m
}

// Default returns a manager with DefaultTerms.
func Default() *Manager {
	return NewManager(DefaultTerms)
}

// IsStop reports whether token is a stopword. A nil manager has none.
func (m *Manager) IsStop(token string) bool {
	if m == nil {
		return false
	}
	_, ok := m.stops[strings.ToLower(token)]
	return ok
}

// Add adds a stopword.
func (m *Manager) Add(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token != "" {
		m.stops[token] = struct{}{}
	}
}

// Remove removes a stopword.
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// All returns the stopwords sorted.
func (m *Manager) All() []string {
	out := make([]string, 0, len(m.stops))
	for s := range m.stops {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LoadYAML reads a stoplist file of the form:
//
//	terms: [of, and, the]
func LoadYAML(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("stoplist: %s: %w", path, internalerr.ErrNotFound)
		}
		return nil, err
	}
	var doc struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("stoplist: decode %s: %w: %v", path, internalerr.ErrInvalidFormat, err)
	}
	return NewManager(doc.Terms), nil
}
