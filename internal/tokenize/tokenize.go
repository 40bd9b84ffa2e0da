// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tokenize counts the meaningful words in article text. Words are
// found with Unicode UAX #29 word boundaries, reduced to purely alphabetic
// tokens, lower-cased and filtered against a per-language stopword list.
package tokenize

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// DefaultLanguage is the stopword language used when none is configured.
const DefaultLanguage = "spanish"

// ErrUnsupportedLanguage is returned for a language without a stopword list.
var ErrUnsupportedLanguage = errors.New("unsupported stopword language")

// Tokenizer counts meaningful tokens for one language.
type Tokenizer struct {
	language  string
	stopwords map[string]struct{}
}

// New returns a Tokenizer for language (case-insensitive).
func New(language string) (*Tokenizer, error) {
	lang := strings.ToLower(strings.TrimSpace(language))
	list, ok := stopwordLists[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedLanguage, language, strings.Join(Languages(), ", "))
	}
	stop := make(map[string]struct{}, len(list))
	for _, w := range list {
		stop[w] = struct{}{}
	}
	return &Tokenizer{language: lang, stopwords: stop}, nil
}

// Languages returns the supported stopword languages, sorted.
func Languages() []string {
	langs := make([]string, 0, len(stopwordLists))
	for l := range stopwordLists {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Language returns the tokenizer's language.
func (t *Tokenizer) Language() string { return t.language }

// Tokens returns the meaningful tokens of text in order: alphabetic words,
// lower-cased, with stopwords removed.
func (t *Tokenizer) Tokens(text string) []string {
	var out []string
	seg := words.FromString(text)
	for seg.Next() {
		tok := seg.Value()
		if !isAlpha(tok) {
			continue
		}
		tok = strings.ToLower(tok)
		if _, stop := t.stopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Count returns the number of meaningful tokens in text. Empty and
// whitespace-only text counts zero.
func (t *Tokenizer) Count(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(t.Tokens(text))
}

// isAlpha reports whether s is non-empty and made only of letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
