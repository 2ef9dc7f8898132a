// Package phonetic implements the [transcript.Corrector] interface using
// Double Metaphone phonetic encoding combined with Jaro-Winkler string
// similarity.
//
// Speech recognition routinely mangles names and domain terms the user cares
// about ("sonata" for "Sonara", "cloud formation" for "CloudFormation").
// The corrector scans finalized transcript text word by word against a
// user-supplied vocabulary:
//
//  1. Phonetic candidate filtering: a vocabulary term whose Double Metaphone
//     codes overlap any code of the scanned word becomes a candidate.
//  2. Jaro-Winkler ranking: among candidates, the highest-scoring term wins
//     provided it clears the phonetic threshold. When no phonetic candidate
//     exists, a pure similarity pass applies with a stricter threshold.
//
// Words already matching a vocabulary term case-insensitively are left
// alone.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/sonara-voice/sonara/internal/transcript"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Compile-time assertion that Corrector satisfies transcript.Corrector.
var _ transcript.Corrector = (*Corrector)(nil)

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *Corrector) {
		c.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the corrector falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Corrector) {
		c.fuzzyThreshold = threshold
	}
}

// Corrector replaces misrecognised vocabulary terms in transcript text.
// It is read-only after construction and safe for concurrent use.
type Corrector struct {
	vocabulary        []string
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a Corrector for the given vocabulary terms. With an empty
// vocabulary, Correct always returns its input unchanged.
func New(vocabulary []string, opts ...Option) *Corrector {
	c := &Corrector{
		vocabulary:        vocabulary,
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct implements [transcript.Corrector]. Each whitespace-separated word
// in text is tested against the vocabulary; matched words are replaced with
// the canonical term. Punctuation adjacent to a word is preserved.
func (c *Corrector) Correct(text string) string {
	if len(c.vocabulary) == 0 || strings.TrimSpace(text) == "" {
		return text
	}

	words := strings.Fields(text)
	changed := false
	for i, w := range words {
		core, prefix, suffix := trimPunct(w)
		if core == "" {
			continue
		}
		if replacement, _, ok := c.match(core); ok && !strings.EqualFold(replacement, core) {
			words[i] = prefix + replacement + suffix
			changed = true
		}
	}
	if !changed {
		return text
	}
	return strings.Join(words, " ")
}

// match finds the vocabulary term most phonetically similar to word.
// When matched is false, corrected equals word unchanged and score is 0.
func (c *Corrector) match(word string) (corrected string, score float64, matched bool) {
	wordLower := strings.ToLower(word)
	primary, secondary := matchr.DoubleMetaphone(wordLower)

	type candidate struct {
		term     string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, term := range c.vocabulary {
		termLower := strings.ToLower(strings.TrimSpace(term))
		if termLower == "" {
			continue
		}
		if termLower == wordLower {
			// Already correct; nothing to do for this word.
			return word, 1, false
		}

		tp, ts := matchr.DoubleMetaphone(termLower)
		phoneticMatch := codeOverlap(primary, secondary, tp, ts)
		jw := matchr.JaroWinkler(wordLower, termLower, false)

		if phoneticMatch {
			if jw >= c.phoneticThreshold && (!best.phonetic || jw > best.score) {
				best = candidate{term: term, score: jw, phonetic: true}
			}
		} else if !best.phonetic {
			if jw >= c.fuzzyThreshold && jw > best.score {
				best = candidate{term: term, score: jw, phonetic: false}
			}
		}
	}

	if best.term != "" {
		return best.term, best.score, true
	}
	return word, 0, false
}

// codeOverlap reports whether any non-empty Double Metaphone code from the
// first pair matches any from the second.
func codeOverlap(a1, a2, b1, b2 string) bool {
	for _, a := range [2]string{a1, a2} {
		if a == "" {
			continue
		}
		if a == b1 || (b2 != "" && a == b2) {
			return true
		}
	}
	return false
}

// trimPunct splits leading/trailing punctuation from a word token so that
// replacements keep the surrounding punctuation intact.
func trimPunct(w string) (core, prefix, suffix string) {
	start := 0
	for start < len(w) && isPunct(w[start]) {
		start++
	}
	end := len(w)
	for end > start && isPunct(w[end-1]) {
		end--
	}
	return w[start:end], w[:start], w[end:]
}

func isPunct(b byte) bool {
	switch b {
	case '.', ',', '!', '?', ';', ':', '"', '\'', '(', ')', '[', ']':
		return true
	}
	return false
}
