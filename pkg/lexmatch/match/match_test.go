package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lexmatch/pkg/lexmatch/document"
	"github.com/cognicore/lexmatch/pkg/lexmatch/stoplist"
	"github.com/cognicore/lexmatch/pkg/lexmatch/surface"
)

func entry(id, full string, count int, low ...string) surface.Entry {
	if low == nil {
		low = []string{}
	}
	return surface.Entry{
		ID: id, Name: full, TokenCount: count,
		HighForms: surface.HighForms{Full: full},
		LowForms:  low,
	}
}

func testDB(entries ...surface.Entry) surface.DB {
	db := make(surface.DB, len(entries))
	for _, e := range entries {
		db[e.ID] = e
	}
	return db
}

func ids(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.EntityID
	}
	return out
}

func TestFullMatcherClaimsBigram(t *testing.T) {
	db := testDB(entry("E1", "python developer", 2), entry("E2", "developer", 1))
	doc := document.FromWords("senior", "python", "developer", "wanted")

	cands := NewFullMatcher(db).Match(doc)
	require.Len(t, cands, 1)
	assert.Equal(t, "E1", cands[0].EntityID)
	assert.Equal(t, document.Span{Start: 1, End: 3}, cands[0].Span)
	assert.Equal(t, "python developer", cands[0].MatchedText)
	assert.Equal(t, 1.0, cands[0].Score)
	assert.Equal(t, KindFull, cands[0].Kind)

	mask := doc.Mask()
	assert.True(t, mask.Matchable(0))
	assert.False(t, mask.Matchable(1))
	assert.False(t, mask.Matchable(2))
	assert.True(t, mask.Matchable(3))
}

func TestFullMatcherSkipsUnigrams(t *testing.T) {
	db := testDB(entry("E2", "developer", 1))
	doc := document.FromWords("developer")
	assert.Empty(t, NewFullMatcher(db).Match(doc))
	assert.Zero(t, doc.Mask().Claimed())
}

func TestFullMatcherPrefersLongest(t *testing.T) {
	db := testDB(
		entry("short", "machine learning", 2),
		entry("long", "machine learning engineer", 3),
	)
	doc := document.FromWords("machine", "learning", "engineer")

	cands := NewFullMatcher(db).Match(doc)
	require.Len(t, cands, 1)
	assert.Equal(t, "long", cands[0].EntityID)
	assert.Equal(t, 3, cands[0].Span.Len())
}

func TestFullMatcherUsesLemmas(t *testing.T) {
	db := testDB(entry("E1", "python developer", 2))
	doc := document.New("Python developers", []document.Token{
		{Text: "Python", Lower: "python", Lemma: "python", Start: 0, End: 6},
		{Text: "developers", Lower: "developers", Lemma: "developer", Start: 7, End: 17},
	})

	cands := NewFullMatcher(db).Match(doc)
	require.Len(t, cands, 1)
	assert.Equal(t, "Python developers", cands[0].MatchedText)
}

func TestAbbreviationIsCaseSensitive(t *testing.T) {
	e := entry("aws", "amazon web services", 3)
	e.HighForms.Abv = "AWS"
	db := testDB(e)

	doc := document.FromWords("deploy", "on", "AWS")
	cands := NewAbbreviationMatcher(db).Match(doc)
	require.Len(t, cands, 1)
	assert.Equal(t, document.Span{Start: 2, End: 3}, cands[0].Span)
	assert.False(t, doc.Mask().Matchable(2))

	assert.Empty(t, NewAbbreviationMatcher(db).Match(document.FromWords("aws")))
}

func TestAbbreviationSpanningTokens(t *testing.T) {
	e := entry("nlp", "natural language processing", 3)
	e.HighForms.Abv = "N L P"
	cands := NewAbbreviationMatcher(testDB(e)).Match(document.FromWords("some", "N", "L", "P"))
	require.Len(t, cands, 1)
	assert.Equal(t, document.Span{Start: 1, End: 4}, cands[0].Span)
}

func TestAbbreviationWithPunctuation(t *testing.T) {
	rd := entry("rd", "research and development", 3)
	rd.HighForms.Abv = "R&D"
	node := entry("node", "node runtime", 2)
	node.HighForms.Abv = "Node.js"
	m := NewAbbreviationMatcher(testDB(rd, node))

	doc := document.NewTokenizer(nil, nil).Tokenize("we do R&D on Node.js")
	cands := m.Match(doc)
	require.Len(t, cands, 2)
	assert.Equal(t, "rd", cands[0].EntityID)
	assert.Equal(t, document.Span{Start: 2, End: 4}, cands[0].Span)
	assert.Equal(t, "R&D", cands[0].MatchedText)
	assert.Equal(t, "node", cands[1].EntityID)
	assert.Equal(t, "Node.js", cands[1].MatchedText)
}

func TestUniMatcherDoesNotClaim(t *testing.T) {
	db := testDB(entry("E2", "developer", 1), entry("E1", "python developer", 2))
	doc := document.FromWords("Developer")

	cands := NewUniMatcher(db).Match(doc)
	require.Len(t, cands, 1)
	assert.Equal(t, "E2", cands[0].EntityID)
	assert.Equal(t, KindUni, cands[0].Kind)
	assert.Zero(t, doc.Mask().Claimed())
}

func TestLowMatcherStemsAndAcronyms(t *testing.T) {
	db := testDB(
		entry("E1", "python developer", 2, "python develop", "develop python"),
		entry("E3", "amazon web services", 3, "AWS"),
	)
	doc := document.New("developing python on AWS", []document.Token{
		{Text: "developing", Lower: "developing", Lemma: "developing", Stem: "develop", Start: 0, End: 10},
		{Text: "python", Lower: "python", Lemma: "python", Stem: "python", Start: 11, End: 17},
		{Text: "on", Lower: "on", Lemma: "on", Stem: "on", Start: 18, End: 20},
		{Text: "AWS", Lower: "aws", Lemma: "aw", Stem: "aw", Start: 21, End: 24},
	})

	cands := NewLowMatcher(db).Match(doc)
	require.Len(t, cands, 2)
	assert.Equal(t, "E1", cands[0].EntityID)
	assert.Equal(t, document.Span{Start: 0, End: 2}, cands[0].Span)
	assert.Equal(t, 1.0, cands[0].Score)
	assert.Equal(t, "E3", cands[1].EntityID)
	assert.Equal(t, "AWS", cands[1].MatchedText)
	assert.Zero(t, doc.Mask().Claimed())

	assert.Empty(t, NewLowMatcher(db).Match(document.FromWords("aws")), "acronyms need capitals")
}

func TestLowMatcherAcronymWithAmpersand(t *testing.T) {
	db := testDB(entry("att", "at t network engineer", 5, "AT&T"))
	doc := document.NewTokenizer(nil, nil).Tokenize("hiring at AT&T now")

	cands := NewLowMatcher(db).Match(doc)
	require.Len(t, cands, 1)
	assert.Equal(t, document.Span{Start: 2, End: 4}, cands[0].Span)
	assert.Equal(t, "AT&T", cands[0].MatchedText)
	assert.Equal(t, 1.0, cands[0].Score)
}

func TestLowMatcherPartialCoverage(t *testing.T) {
	db := testDB(entry("E1", "kubernetes administrator", 2, "kubernet"))
	cands := NewLowMatcher(db).Match(document.FromWords("kubernet"))
	require.Len(t, cands, 1)
	assert.Equal(t, 0.5, cands[0].Score)
}

func TestTokenMatcherSkipsStopwords(t *testing.T) {
	e := entry("E4", "analysis of variance", 3)
	e.MatchOnTokens = true
	db := testDB(e)
	doc := document.FromWords("variance", "of", "analysis")

	cands := NewTokenMatcher(db, stoplist.Default()).Match(doc)
	require.Len(t, cands, 2)
	assert.Equal(t, []string{"E4", "E4"}, ids(cands))
	assert.Equal(t, 0.333, cands[0].Score)
	assert.Equal(t, 0, cands[0].Span.Start)
	assert.Equal(t, 2, cands[1].Span.Start)
}

func TestTokenMatcherIgnoresShortEntries(t *testing.T) {
	db := testDB(entry("E1", "python developer", 2))
	assert.Empty(t, NewTokenMatcher(db, nil).Match(document.FromWords("python")))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("python", "python"))
	assert.Zero(t, Similarity("", "python"))
	assert.InDelta(t, 0.9, Similarity("pithon", "python"), 0.001)
	assert.Less(t, Similarity("java", "python"), 0.7)
}

func TestFuzzyMatcherAcceptsTypo(t *testing.T) {
	db := testDB(entry("E1", "python developer", 2), entry("E2", "developer", 1))
	doc := document.FromWords("pithon", "developer")

	cands := NewFuzzyMatcher(db, DefaultFuzzyConfig()).Match(doc)
	require.Len(t, cands, 1)
	assert.Equal(t, "E1", cands[0].EntityID)
	assert.Equal(t, document.Span{Start: 0, End: 2}, cands[0].Span)
	assert.GreaterOrEqual(t, cands[0].Score, DefaultMinPhraseSim)
	assert.Equal(t, 2, doc.Mask().Claimed())
}

func TestFuzzyMatcherGates(t *testing.T) {
	db := testDB(entry("E1", "python developer", 2))
	tests := []struct {
		name  string
		words []string
	}{
		{"head rejected", []string{"typhon", "developer"}},
		{"token rejected", []string{"python", "devxxxxer"}},
		{"too long", []string{"pythonista", "developers"}},
		{"too short", []string{"python"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, NewFuzzyMatcher(db, DefaultFuzzyConfig()).Match(document.FromWords(tt.words...)))
		})
	}
}

func TestFuzzyMatcherIgnoresUnigrams(t *testing.T) {
	db := testDB(entry("E2", "developer", 1))
	assert.Empty(t, NewFuzzyMatcher(db, DefaultFuzzyConfig()).Match(document.FromWords("develper")))
}

func TestFuzzySpanEqualsTokenCount(t *testing.T) {
	db := testDB(
		entry("E1", "python developer", 2),
		entry("E5", "senior python developer", 3),
	)
	doc := document.FromWords("seniro", "pithon", "developer", "pithon", "developr")

	for _, c := range NewFuzzyMatcher(db, DefaultFuzzyConfig()).Match(doc) {
		assert.Equal(t, db[c.EntityID].TokenCount, c.Span.Len())
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	db := testDB(entry("E1", "python developer", 2, "python develop"), entry("E2", "developer", 1, "develop"))
	doc := document.FromWords("senior", "python", "developer", "wanted")

	res := NewPipeline(db, DefaultConfig()).Run(doc)
	require.Len(t, res.Full, 1)
	assert.Equal(t, "E1", res.Full[0].EntityID)
	assert.Empty(t, res.Fuzzy)
	assert.Empty(t, res.Uni, "developer was consumed by the full match")
	assert.Empty(t, res.Low)
}

func TestPipelineNoOverlapWithClaims(t *testing.T) {
	tok := entry("E4", "senior python developer engineer", 4)
	tok.MatchOnTokens = true
	db := testDB(
		entry("E1", "python developer", 2, "python develop"),
		entry("E2", "developer", 1, "develop"),
		tok,
	)
	doc := document.FromWords("senior", "python", "developer", "pithon", "developer", "engineer")

	res := NewPipeline(db, DefaultConfig()).Run(doc)
	var claimed []document.Span
	claimed = append(claimed, spans(res.Full)...)
	claimed = append(claimed, spans(res.Abbreviation)...)
	claimed = append(claimed, spans(res.Fuzzy)...)
	require.NotEmpty(t, claimed)

	for _, kind := range []Kind{KindUni, KindLow, KindToken} {
		for _, c := range res.Of(kind) {
			for _, s := range claimed {
				assert.False(t, c.Span.Overlaps(s), "%s candidate %v overlaps claim %v", kind, c.Span, s)
			}
		}
	}
}

func spans(cands []Candidate) []document.Span {
	out := make([]document.Span, len(cands))
	for i, c := range cands {
		out[i] = c.Span
	}
	return out
}

type countingObserver map[Kind]int

func (o countingObserver) ObserveStage(kind Kind, n int) { o[kind] += n }

func TestPipelineStageOrderAndObserver(t *testing.T) {
	db := testDB(entry("E2", "developer", 1))

	p := NewPipeline(db, DefaultConfig())
	assert.Equal(t, Kinds, p.Stages())

	cfg := DefaultConfig()
	cfg.FuzzyEnabled = false
	obs := countingObserver{}
	p = NewPipeline(db, cfg).WithObserver(obs)
	assert.NotContains(t, p.Stages(), KindFuzzy)

	p.Run(document.FromWords("developer", "developer"))
	assert.Equal(t, 2, obs[KindUni])
	assert.Zero(t, obs[KindFull])
}

func TestKindAuthoritative(t *testing.T) {
	assert.True(t, KindFull.Authoritative())
	assert.True(t, KindFuzzy.Authoritative())
	assert.False(t, KindLow.Authoritative())
	assert.False(t, KindToken.Authoritative())
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.333, Round3(1.0/3))
	assert.Equal(t, 0.667, Round3(2.0/3))
}
