package surface

import (
	"regexp"
	"strings"

	"github.com/cognicore/lexmatch/pkg/lexmatch/catalog"
	"github.com/cognicore/lexmatch/pkg/lexmatch/tokendist"
)

var (
	bracketPattern = regexp.MustCompile(`[\(\[].*?[\)\]]`)
	acronymPattern = regexp.MustCompile(`\b[A-Z](?:[&.]?[A-Z])+\b`)
)

// DefaultRelaxParam is the first-token rarity ratio threshold.
const DefaultRelaxParam = 0.2

// Options tunes form generation.
type Options struct {
	// FirstTokenRarity adds the first stemmed token of a bigram as a low form
	// when dist[first]/max(dist[last],1) < RelaxParam. Off by default.
	FirstTokenRarity bool
	RelaxParam       float64
}

// DefaultOptions returns the canonical build options.
func DefaultOptions() Options {
	return Options{RelaxParam: DefaultRelaxParam}
}

// Builder turns canonical entities into a surface-form database.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder. A zero RelaxParam falls back to the default.
func NewBuilder(opts Options) *Builder {
	if opts.RelaxParam <= 0 {
		opts.RelaxParam = DefaultRelaxParam
	}
	return &Builder{opts: opts}
}

// Report counts entities consumed and skipped by Build.
type Report struct {
	Built   int
	Skipped int
}

// Build expands every entity, applies the bigram uniqueness filter and then
// the acronym augmentation for longer entities. Entities with no id or no
// usable name are skipped and counted. Output is deterministic for a fixed
// input.
func (b *Builder) Build(entities []catalog.Entity, dist tokendist.Distribution) (DB, Report) {
	db := make(DB, len(entities))
	var rep Report

	for _, ent := range entities {
		entry, ok := b.expand(ent, dist)
		if !ok {
			rep.Skipped++
			continue
		}
		db[entry.ID] = entry
	}
	rep.Built = len(db)

	FilterBigramLowForms(db)
	AugmentAcronyms(db, entities)
	return db, rep
}

func (b *Builder) expand(ent catalog.Entity, dist tokendist.Distribution) (Entry, bool) {
	if ent.ID == "" {
		return Entry{}, false
	}
	count := ent.TokenCount
	if count <= 0 {
		count = len(strings.Fields(ent.CleanedName))
	}
	if count == 0 {
		return Entry{}, false
	}

	e := Entry{
		ID:         ent.ID,
		Name:       ent.Name,
		Type:       ent.Type,
		TokenCount: count,
		LowForms:   []string{},
	}
	if ent.Abbreviation != "" {
		e.HighForms.Abv = ent.Abbreviation
	}

	switch {
	case count == 1:
		e.HighForms.Full = ent.CleanedName
		if ent.MatchOnStemmed {
			e.addLowForm(strings.TrimSpace(ent.StemmedForm))
		}
	case count == 2:
		e.HighForms.Full = orDefault(ent.LemmatizedForm, ent.CleanedName)
		b.addBigramForms(&e, ent.StemmedForm, dist)
	default:
		e.HighForms.Full = orDefault(ent.LemmatizedForm, ent.CleanedName)
		e.MatchOnTokens = true
	}

	if e.HighForms.Full == "" && e.HighForms.Abv == "" {
		return Entry{}, false
	}
	return e, true
}

func (b *Builder) addBigramForms(e *Entry, stemmed string, dist tokendist.Distribution) {
	toks := strings.Fields(stemmed)
	if len(toks) == 0 {
		return
	}
	e.addLowForm(strings.Join(toks, " "))
	e.addLowForm(strings.Join(reversed(toks), " "))

	first, last := toks[0], toks[len(toks)-1]
	if dist.Count(last) == 1 {
		e.addLowForm(last)
	}
	if b.opts.FirstTokenRarity {
		denom := dist.Count(last)
		if denom < 1 {
			denom = 1
		}
		if float64(dist.Count(first))/float64(denom) < b.opts.RelaxParam {
			e.addLowForm(first)
		}
	}
}

// FilterBigramLowForms drops every single-token low form of a bigram entry
// that occurs in the low forms of more than one bigram entry. Multi-token
// forms are always retained. Applying it twice changes nothing.
func FilterBigramLowForms(db DB) {
	counts := make(map[string]int)
	for _, e := range db {
		if e.TokenCount != 2 {
			continue
		}
		for _, f := range e.LowForms {
			if !strings.Contains(f, " ") {
				counts[f]++
			}
		}
	}

	for id, e := range db {
		if e.TokenCount != 2 {
			continue
		}
		kept := make([]string, 0, len(e.LowForms))
		for _, f := range e.LowForms {
			if strings.Contains(f, " ") || counts[f] == 1 {
				kept = append(kept, f)
			}
		}
		e.LowForms = kept
		db[id] = e
	}
}

// AugmentAcronyms adds acronyms found in the raw names of entries longer than
// two tokens, when the acronym occurs exactly once across all multi-word
// entities of the catalog.
func AugmentAcronyms(db DB, entities []catalog.Entity) {
	counts := make(map[string]int)
	for _, ent := range entities {
		if tokenCount(ent) <= 1 {
			continue
		}
		for _, a := range ExtractAcronyms(ent.Name) {
			counts[a]++
		}
	}

	for _, ent := range entities {
		e, ok := db[ent.ID]
		if !ok || e.TokenCount <= 2 {
			continue
		}
		for _, a := range ExtractAcronyms(e.Name) {
			if counts[a] == 1 {
				e.addLowForm(a)
			}
		}
		db[ent.ID] = e
	}
}

// ExtractAcronyms returns the upper-case acronyms ("AWS", "AT&T", "U.S")
// outside any bracketed part of name, in order of appearance.
func ExtractAcronyms(name string) []string {
	return acronymPattern.FindAllString(StripBrackets(name), -1)
}

// StripBrackets removes parenthesized and bracketed substrings.
func StripBrackets(s string) string {
	return strings.TrimSpace(bracketPattern.ReplaceAllString(s, ""))
}

func tokenCount(ent catalog.Entity) int {
	if ent.TokenCount > 0 {
		return ent.TokenCount
	}
	return len(strings.Fields(ent.CleanedName))
}

func reversed(toks []string) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[len(toks)-1-i] = t
	}
	return out
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
