package document

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/lexmatch/pkg/lexmatch/textnorm"
)

// Tokenizer splits text into tokens with byte offsets and attaches the
// lemma and stem of each word.
type Tokenizer struct {
	lemmatizer textnorm.Lemmatizer
	stemmer    textnorm.Stemmer
}

// NewTokenizer creates a tokenizer. It must use the same lemmatizer and
// stemmer as the catalog normalizer the database was built with.
func NewTokenizer(lem textnorm.Lemmatizer, stem textnorm.Stemmer) *Tokenizer {
	if lem == nil {
		lem = textnorm.RuleLemmatizer{}
	}
	if stem == nil {
		stem = textnorm.NewSnowball("english")
	}
	return &Tokenizer{lemmatizer: lem, stemmer: stem}
}

// Tokenize splits text on every rune that cannot appear inside a word.
func (t *Tokenizer) Tokenize(text string) *Document {
	var tokens []Token
	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}
		tokens = append(tokens, t.token(text[start:end], start, end))
		start = -1
	}

	for i, r := range text {
		if textnorm.InWord(r, start >= 0) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return New(text, tokens)
}

func (t *Tokenizer) token(raw string, start, end int) Token {
	lower := strings.ToLower(textnorm.Fold(raw))
	return Token{
		Text:  raw,
		Lower: lower,
		Lemma: t.lemmatizer.Lemma(lower),
		Stem:  t.stemmer.Stem(lower),
		Start: start,
		End:   end,
	}
}

// StripHTML extracts the text content of an HTML fragment, dropping script
// and style elements. Element boundaries become spaces so words do not fuse.
// Unparseable input is returned unchanged.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.ElementNode {
			buf.WriteByte(' ')
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
		if n.Type == html.ElementNode {
			buf.WriteByte(' ')
		}
	}
	extract(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
