// Package moderation masks forbidden words in outgoing messages before they
// are encrypted and delivered.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Filter matches a configured word list against message text, tolerant of
// casing, punctuation noise and common leet substitutions.
type Filter struct {
	matcher *goahocorasick.Machine
	mask    rune
	enabled bool
}

// NewFilter builds the Aho-Corasick automaton over the normalized word list.
// An empty list yields a pass-through filter.
func NewFilter(words []string, mask rune) (*Filter, error) {
	if len(words) == 0 {
		return &Filter{mask: mask}, nil
	}

	// Normalization can collapse distinct entries ("badger", "B4DGER")
	// into one pattern; the automaton wants each pattern once.
	seen := make(map[string]struct{}, len(words))
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		norm := normalize([]rune(w))
		if len(norm) == 0 {
			continue
		}
		if _, dup := seen[string(norm)]; dup {
			continue
		}
		seen[string(norm)] = struct{}{}
		patterns = append(patterns, norm)
	}

	if len(patterns) == 0 {
		return &Filter{mask: mask}, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Filter{matcher: m, mask: mask, enabled: true}, nil
}

// Apply returns the text with every matched span replaced by the mask rune.
// The original spacing and length are preserved.
func (f *Filter) Apply(text string) string {
	if !f.enabled {
		return text
	}

	runes := []rune(text)
	norm := make([]rune, 0, len(runes))
	origIdx := make([]int, 0, len(runes))
	for i, r := range runes {
		c := unleet(r)
		if unicode.IsPunct(c) || unicode.IsSpace(c) || unicode.IsSymbol(c) {
			continue
		}
		norm = append(norm, unicode.ToLower(c))
		origIdx = append(origIdx, i)
	}
	if len(norm) == 0 {
		return text
	}

	spans := f.matcher.MultiPatternSearch(norm, false)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			runes[i] = f.mask
		}
	}
	return string(runes)
}

func normalize(in []rune) []rune {
	out := make([]rune, 0, len(in))
	for _, r := range in {
		c := unleet(r)
		if unicode.IsPunct(c) || unicode.IsSpace(c) || unicode.IsSymbol(c) {
			continue
		}
		out = append(out, unicode.ToLower(c))
	}
	return out
}

// unleet maps the usual digit and symbol substitutions back to letters.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
