package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperStemmer struct{}

func (upperStemmer) Stem(w string) string { return strings.ToUpper(w) }

func TestNormalizeUnigram(t *testing.T) {
	n := NewNormalizer(nil, nil)
	e, ok := n.Normalize(RawEntity{ID: "KS1", Name: "Python (Programming Language)", Type: "Skill"})
	require.True(t, ok)

	assert.Equal(t, "python", e.CleanedName)
	assert.Equal(t, 1, e.TokenCount)
	assert.Equal(t, "python", e.LemmatizedForm)
	assert.Equal(t, "python", e.StemmedForm)
	assert.Empty(t, e.Abbreviation)
	assert.True(t, e.MatchOnStemmed)
	assert.Equal(t, "Skill", e.Type)
}

func TestNormalizeNgramWithAbbreviation(t *testing.T) {
	n := NewNormalizer(nil, upperStemmer{})
	e, ok := n.Normalize(RawEntity{ID: "KS2", Name: "Amazon Web Services (AWS)"})
	require.True(t, ok)

	assert.Equal(t, "amazon web services", e.CleanedName)
	assert.Equal(t, 3, e.TokenCount)
	assert.Equal(t, "amazon web service", e.LemmatizedForm)
	assert.Equal(t, "AMAZON WEB SERVICES", e.StemmedForm)
	assert.Equal(t, "AWS", e.Abbreviation)
	assert.False(t, e.MatchOnStemmed)
}

func TestProcessSkipsMalformed(t *testing.T) {
	n := NewNormalizer(nil, upperStemmer{})
	raws := []RawEntity{
		{ID: "1", Name: "Data Analysis"},
		{ID: "", Name: "No Id"},
		{ID: "2", Name: "(only a description)"},
		{ID: "1", Name: "Duplicate"},
		{ID: "3", Name: "C++"},
	}
	out, rep := n.Process(raws)

	assert.Equal(t, Report{Processed: 2, Skipped: 3}, rep)
	require.Len(t, out, 2)
	assert.Equal(t, "data analysis", out[0].CleanedName)
	assert.Equal(t, "c++", out[1].CleanedName)
}

func TestProcessEmpty(t *testing.T) {
	out, rep := NewNormalizer(nil, nil).Process(nil)
	assert.Empty(t, out)
	assert.Equal(t, Report{}, rep)
}

func TestExtractAbbreviation(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Amazon Web Services (AWS)", "AWS"},
		{"Structured Query Language (SQL)  ", "SQL"},
		{"Three Dimensional (3D)", "3D"},
		{"Kotlin (Kotlin)", "Kotlin"},
		{"Python (Programming Language)", ""},
		{"Chief Executive Officer", ""},
		{"Microsoft Office (MS Office Suite)", ""},
		{"Google Cloud (GCP) Platform", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractAbbreviation(tt.raw), tt.raw)
	}
}

func TestRemoveDescription(t *testing.T) {
	assert.Equal(t, "Python", RemoveDescription("Python (Programming Language)"))
	assert.Equal(t, "Google Cloud Platform", RemoveDescription("Google Cloud (GCP) Platform"))
}
