// Package catalog turns raw entity records (skills, job titles) into the
// normalized canonical entities the surface-form builder consumes.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
)

// RawEntity is one record as delivered by a catalog API.
type RawEntity struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
	Type TypeName   `json:"type"`
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// TypeName accepts "type": "Hard Skill" or "type": {"name": "Hard Skill"}.
type TypeName string

// UnmarshalJSON implements json.Unmarshaler.
func (t *TypeName) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TypeName(s)
		return nil
	case b[0] == '{':
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*t = TypeName(obj.Name)
		return nil
	}
	return fmt.Errorf("catalog: type must be string or object, got %s", strconv.Quote(string(b)))
}

// Entity is a canonical entity with its normalized forms. Immutable once built.
type Entity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	CleanedName    string `json:"cleaned_name"`
	TokenCount     int    `json:"token_count"`
	LemmatizedForm string `json:"lemmatized_form"`
	StemmedForm    string `json:"stemmed_form"`
	Abbreviation   string `json:"abbreviation,omitempty"`
	MatchOnStemmed bool   `json:"match_on_stemmed"`
}

// LoadRaw reads a JSON array of raw records.
func LoadRaw(path string) ([]RawEntity, error) {
	data, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	var raws []RawEntity
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w: %v", path, internalerr.ErrInvalidFormat, err)
	}
	return raws, nil
}

// SaveRaw writes raw records as a JSON array.
func SaveRaw(path string, raws []RawEntity) error {
	return writeJSON(path, raws)
}

// LoadEntities reads a processed catalog (id -> entity object) and returns
// the entities ordered by ID. Map keys win over embedded ids.
func LoadEntities(path string) ([]Entity, error) {
	data, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	var byID map[string]Entity
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w: %v", path, internalerr.ErrInvalidFormat, err)
	}
	out := make([]Entity, 0, len(byID))
	for id, e := range byID {
		e.ID = id
		out = append(out, e)
	}
	SortByID(out)
	return out, nil
}

// SaveEntities writes entities as an id -> entity JSON object.
func SaveEntities(path string, entities []Entity) error {
	byID := make(map[string]Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}
	return writeJSON(path, byID)
}

// SortByID orders entities by ID in place.
func SortByID(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
}

func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog: %s: %w", path, internalerr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
