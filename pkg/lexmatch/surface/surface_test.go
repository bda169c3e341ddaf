package surface

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
)

func sampleDB() DB {
	return DB{
		"KS1": {ID: "KS1", Name: "Python", Type: "Skill", TokenCount: 1,
			HighForms: HighForms{Full: "python"}, LowForms: []string{"python"}},
		"KS2": {ID: "KS2", Name: "Amazon Web Services (AWS)", TokenCount: 3,
			HighForms: HighForms{Full: "amazon web service", Abv: "AWS"}, LowForms: []string{}, MatchOnTokens: true},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surface.json")
	require.NoError(t, Save(path, sampleDB()))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleDB(), got)
}

func TestEncodeFieldNames(t *testing.T) {
	data, err := Encode(DB{"x": {ID: "x", TokenCount: 1, HighForms: HighForms{Full: "x"}, LowForms: []string{}}})
	require.NoError(t, err)
	s := string(data)
	for _, key := range []string{`"id"`, `"name"`, `"type"`, `"token_count"`, `"high_forms"`, `"full"`, `"low_forms": []`, `"match_on_tokens"`} {
		assert.Contains(t, s, key)
	}
	assert.NotContains(t, s, `"abv"`, "absent abbreviation is omitted")
}

func TestDecodeFillsIDFromKey(t *testing.T) {
	db, err := Decode([]byte(`{"k": {"token_count": 1, "high_forms": {"full": "k"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "k", db["k"].ID)
	assert.NotNil(t, db["k"].LowForms)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax":         `{"k": `,
		"null":           `null`,
		"id mismatch":    `{"k": {"id": "other", "token_count": 1, "high_forms": {"full": "k"}}}`,
		"no tokens":      `{"k": {"token_count": 0, "high_forms": {"full": "k"}}}`,
		"no high forms":  `{"k": {"token_count": 1, "high_forms": {}}}`,
		"wrong low type": `{"k": {"token_count": 1, "high_forms": {"full": "k"}, "low_forms": "x"}}`,
	}
	for name, doc := range cases {
		_, err := Decode([]byte(doc))
		assert.ErrorIs(t, err, internalerr.ErrInvalidFormat, name)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestSaveDoesNotLeaveTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "surface.json")
	require.NoError(t, Save(path, sampleDB()))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStatsAndIDs(t *testing.T) {
	db := sampleDB()
	assert.Equal(t, Stats{Total: 2, WithAbbreviation: 1, WithLowForms: 1, MatchOnTokens: 1}, db.Stats())
	assert.Equal(t, []string{"KS1", "KS2"}, db.IDs())
}
