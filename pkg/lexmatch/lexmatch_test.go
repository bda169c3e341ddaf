package lexmatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lexmatch/internal/metrics"
	"github.com/cognicore/lexmatch/pkg/lexmatch/catalog"
	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
	"github.com/cognicore/lexmatch/pkg/lexmatch/match"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

func buildDB(t *testing.T, raws ...catalog.RawEntity) surface.DB {
	t.Helper()
	entities, rep := catalog.NewNormalizer(nil, nil).Process(raws)
	require.Zero(t, rep.Skipped)
	db, _ := surface.NewBuilder(surface.DefaultOptions()).Build(entities, tokendist.Compute(entities))
	return db
}

func raw(id, name string) catalog.RawEntity {
	return catalog.RawEntity{ID: catalog.FlexString(id), Name: name}
}

func newAnnotator(t *testing.T, raws ...catalog.RawEntity) *Annotator {
	t.Helper()
	a, err := New(DefaultOptions(buildDB(t, raws...)))
	require.NoError(t, err)
	return a
}

func TestNewRejectsEmptyDB(t *testing.T) {
	_, err := New(DefaultOptions(nil))
	assert.ErrorIs(t, err, internalerr.ErrEmptyDatabase)

	_, err = New(DefaultOptions(surface.DB{"x": {ID: "y", TokenCount: 1, HighForms: surface.HighForms{Full: "x"}}}))
	assert.ErrorIs(t, err, internalerr.ErrInvalidFormat)
}

func TestFullMatchConsumesTokens(t *testing.T) {
	a := newAnnotator(t, raw("E1", "Python Developer"), raw("E2", "Developer"))

	res, err := a.AnnotateText("senior python developer wanted", 0.5)
	require.NoError(t, err)
	require.Len(t, res.FullMatches, 1)
	assert.Equal(t, "E1", res.FullMatches[0].EntityID)
	assert.Equal(t, 1.0, res.FullMatches[0].Score)
	assert.Equal(t, document.Span{Start: 1, End: 3}, res.FullMatches[0].Span)
	assert.Equal(t, "python developer", res.FullMatches[0].MatchedText)

	assert.Empty(t, res.FuzzyMatches)
	for _, c := range res.ScoredNgramMatches {
		assert.NotEqual(t, "E2", c.EntityID)
	}
}

func TestFuzzyTypo(t *testing.T) {
	a := newAnnotator(t, raw("E1", "Python Developer"), raw("E2", "Developer"))

	res, err := a.AnnotateText("pithon developer", 0.5)
	require.NoError(t, err)
	require.Len(t, res.FuzzyMatches, 1)
	assert.Equal(t, "E1", res.FuzzyMatches[0].EntityID)
	assert.Equal(t, document.Span{Start: 0, End: 2}, res.FuzzyMatches[0].Span)
	assert.GreaterOrEqual(t, res.FuzzyMatches[0].Score, match.DefaultMinPhraseSim)
	assert.Empty(t, res.ScoredNgramMatches)

	res, err = a.AnnotateText("pithon developer", 0.99)
	require.NoError(t, err)
	assert.Empty(t, res.FuzzyMatches, "fuzzy matches below the threshold are dropped")
}

func TestAbbreviationAndUnigram(t *testing.T) {
	a := newAnnotator(t, raw("aws", "Amazon Web Services (AWS)"), raw("go", "Go"))

	res, err := a.AnnotateText("Deploy Go services to AWS", 0.5)
	require.NoError(t, err)
	require.Len(t, res.FullMatches, 1)
	assert.Equal(t, match.KindAbbreviation, res.FullMatches[0].Kind)
	assert.Equal(t, "AWS", res.FullMatches[0].MatchedText)

	require.Len(t, res.ScoredNgramMatches, 1)
	assert.Equal(t, "go", res.ScoredNgramMatches[0].EntityID)
	assert.Equal(t, match.KindUni, res.ScoredNgramMatches[0].Kind)
}

func TestPunctuatedShortForms(t *testing.T) {
	a := newAnnotator(t,
		raw("rd", "Research and Development (R&D)"),
		raw("node", "Node Runtime (Node.js)"),
		raw("att", "AT&T Network Operations Engineer"),
		raw("aws", "Amazon Web Services (AWS)"),
	)

	for text, want := range map[string]string{
		"we do R&D daily":  "rd",
		"built on Node.js": "node",
		"deploy to AWS":    "aws",
	} {
		res, err := a.AnnotateText(text, 0.5)
		require.NoError(t, err)
		require.Len(t, res.FullMatches, 1, text)
		assert.Equal(t, want, res.FullMatches[0].EntityID, text)
		assert.Equal(t, match.KindAbbreviation, res.FullMatches[0].Kind, text)
	}

	res, err := a.AnnotateText("hiring at AT&T now", 0.5)
	require.NoError(t, err)
	assert.Empty(t, res.FullMatches)
	var low []match.Candidate
	for _, c := range res.ScoredNgramMatches {
		if c.Kind == match.KindLow {
			low = append(low, c)
		}
	}
	require.Len(t, low, 1)
	assert.Equal(t, "att", low[0].EntityID)
	assert.Equal(t, "AT&T", low[0].MatchedText)
	assert.Equal(t, 1.0, low[0].Score)
}

func TestTokenLevelCoverage(t *testing.T) {
	a := newAnnotator(t, raw("anova", "Analysis of Variance"))

	res, err := a.AnnotateText("variance analysis", 0.5)
	require.NoError(t, err)
	require.Len(t, res.ScoredNgramMatches, 1)
	got := res.ScoredNgramMatches[0]
	assert.Equal(t, match.KindToken, got.Kind)
	assert.Equal(t, 0.667, got.Score)
	assert.Equal(t, "variance analysis", got.MatchedText)

	res, err = a.AnnotateText("variance analysis", 0.7)
	require.NoError(t, err)
	assert.Empty(t, res.ScoredNgramMatches)
}

func TestAnnotateRejectsBadInput(t *testing.T) {
	a := newAnnotator(t, raw("go", "Go"))

	_, err := a.Annotate(nil, 0.5)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	_, err = a.AnnotateText("go", 1.5)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestResultJSONShape(t *testing.T) {
	a := newAnnotator(t, raw("go", "Go"))
	res, err := a.AnnotateText("nothing here", 0.5)
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "[]", string(m["scored_ngram_matches"]))
	assert.Equal(t, "[]", string(m["fuzzy_matches"]))
	assert.Contains(t, m, "full_matches")
}

func TestByKind(t *testing.T) {
	a := newAnnotator(t, raw("E1", "Python Developer"), raw("go", "Go"))
	res, err := a.AnnotateText("go python developer", 0)
	require.NoError(t, err)

	kinds := res.ByKind()
	assert.Len(t, kinds[match.KindFull], 1)
	assert.Len(t, kinds[match.KindUni], 1)
	assert.Len(t, res.All(), 2)
}

func TestAnnotateBatchKeepsOrder(t *testing.T) {
	opts := DefaultOptions(buildDB(t, raw("E1", "Python Developer"), raw("go", "Go")))
	m := metrics.New(nil)
	opts.Metrics = m
	a, err := New(opts)
	require.NoError(t, err)

	texts := []string{"python developer", "go", "nothing", "go python developer"}
	out, err := a.AnnotateBatch(context.Background(), texts, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, out, len(texts))
	for i, text := range texts {
		assert.Equal(t, text, out[i].Text)
	}
	assert.Len(t, out[0].FullMatches, 1)
	assert.Len(t, out[1].ScoredNgramMatches, 1)
	assert.Empty(t, out[2].All())
}

func TestAnnotateBatchCancelled(t *testing.T) {
	a := newAnnotator(t, raw("go", "Go"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.AnnotateBatch(ctx, []string{"go", "go"}, 0.5, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
