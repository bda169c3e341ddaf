// Package surface expands canonical entities into the lookup forms used by
// the matchers: high-confidence forms (exact phrase, abbreviation) and
// low-confidence forms (reordered, stemmed, unique single tokens, acronyms).
package surface

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/textnorm"
)

// HighForms holds the authoritative forms of an entity.
type HighForms struct {
	Full string `json:"full,omitempty"`
	Abv  string `json:"abv,omitempty"`
}

// Entry is the surface-form record of one entity.
type Entry struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	TokenCount    int       `json:"token_count"`
	HighForms     HighForms `json:"high_forms"`
	LowForms      []string  `json:"low_forms"`
	MatchOnTokens bool      `json:"match_on_tokens"`
}

// HasLowForm reports whether form is already in the entry's low forms.
func (e Entry) HasLowForm(form string) bool {
	for _, f := range e.LowForms {
		if f == form {
			return true
		}
	}
	return false
}

// HasAcronym reports whether a low form containing capitals spells key once
// split into words. key is the space-joined text of a token window.
func (e Entry) HasAcronym(key string) bool {
	for _, f := range e.LowForms {
		if strings.IndexFunc(f, unicode.IsUpper) >= 0 && textnorm.SurfaceKey(f) == key {
			return true
		}
	}
	return false
}

// addLowForm appends form unless it is empty or already present.
func (e *Entry) addLowForm(form string) {
	if form == "" || e.HasLowForm(form) {
		return
	}
	e.LowForms = append(e.LowForms, form)
}

// DB maps entity id -> Entry. Treated as read-only once built; safe to share
// between goroutines that only read it.
type DB map[string]Entry

// IDs returns the entity ids in ascending order.
func (db DB) IDs() []string {
	ids := make([]string, 0, len(db))
	for id := range db {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats summarizes the database contents.
type Stats struct {
	Total            int `json:"total"`
	WithAbbreviation int `json:"with_abbreviation"`
	WithLowForms     int `json:"with_low_forms"`
	MatchOnTokens    int `json:"match_on_tokens"`
}

// Stats counts entries by the forms they carry.
func (db DB) Stats() Stats {
	s := Stats{Total: len(db)}
	for _, e := range db {
		if e.HighForms.Abv != "" {
			s.WithAbbreviation++
		}
		if len(e.LowForms) > 0 {
			s.WithLowForms++
		}
		if e.MatchOnTokens {
			s.MatchOnTokens++
		}
	}
	return s
}

// Validate checks the structural invariants a matcher relies on.
func (db DB) Validate() error {
	for key, e := range db {
		switch {
		case e.ID != key:
			return fmt.Errorf("surface: entry %q carries id %q: %w", key, e.ID, internalerr.ErrInvalidFormat)
		case e.TokenCount < 1:
			return fmt.Errorf("surface: entry %q has token_count %d: %w", key, e.TokenCount, internalerr.ErrInvalidFormat)
		case strings.TrimSpace(e.HighForms.Full) == "" && e.HighForms.Abv == "":
			return fmt.Errorf("surface: entry %q has no high forms: %w", key, internalerr.ErrInvalidFormat)
		}
	}
	return nil
}

// Load reads a persisted database (JSON object id -> entry) and validates it.
// Entries without an embedded id take their key.
func Load(path string) (DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("surface: %s: %w", path, internalerr.ErrNotFound)
		}
		return nil, err
	}
	return Decode(data)
}

// Decode parses and validates a serialized database.
func Decode(data []byte) (DB, error) {
	var db DB
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("surface: decode: %w: %v", internalerr.ErrInvalidFormat, err)
	}
	if db == nil {
		return nil, fmt.Errorf("surface: decode: %w: null document", internalerr.ErrInvalidFormat)
	}
	for key, e := range db {
		if e.ID == "" {
			e.ID = key
		}
		if e.LowForms == nil {
			e.LowForms = []string{}
		}
		db[key] = e
	}
	if err := db.Validate(); err != nil {
		return nil, err
	}
	return db, nil
}

// Encode serializes the database as an indented JSON object.
func Encode(db DB) ([]byte, error) {
	return json.MarshalIndent(db, "", "  ")
}

// Save writes the database next to path and renames it into place, so a
// failed write never clobbers the previous artifact.
func Save(path string, db DB) error {
	data, err := Encode(db)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
