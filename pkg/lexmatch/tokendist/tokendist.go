// Package tokendist counts how often each token occurs across the cleaned
// names of multi-word catalog entities.
package tokendist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/cognicore/lexmatch/pkg/lexmatch/catalog"
	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
)

// Distribution maps token -> occurrence count. Read-only after Compute.
type Distribution map[string]int

// Compute counts every whitespace-delimited token in the cleaned name of
// entities with more than one token. Single-token entities are ignored.
func Compute(entities []catalog.Entity) Distribution {
	dist := make(Distribution)
	for _, e := range entities {
		if e.TokenCount <= 1 {
			continue
		}
		for _, tok := range strings.Fields(e.CleanedName) {
			dist[tok]++
		}
	}
	return dist
}

// Count returns the occurrence count of token (0 when absent).
func (d Distribution) Count(token string) int {
	return d[token]
}

// Entry is a token with its count.
type Entry struct {
	Token string
	Count int
}

// Top returns the k most frequent tokens, ties broken alphabetically.
// k <= 0 returns all tokens.
func (d Distribution) Top(k int) []Entry {
	out := make([]Entry, 0, len(d))
	for tok, n := range d {
		out = append(out, Entry{Token: tok, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

// Load reads a distribution artifact (JSON object token -> count).
func Load(path string) (Distribution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("tokendist: %s: %w", path, internalerr.ErrNotFound)
		}
		return nil, err
	}
	var d Distribution
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("tokendist: decode %s: %w: %v", path, internalerr.ErrInvalidFormat, err)
	}
	if d == nil {
		d = make(Distribution)
	}
	return d, nil
}

// Save writes the distribution as a JSON object. The file is replaced
// atomically.
func Save(path string, d Distribution) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
