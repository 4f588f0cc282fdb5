package moderation

import (
	"slices"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator finds dictionary words in free text, whole words only.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

type TextMapping struct {
	Normalized []rune
	OrigIdx    []int
}

// span is a match expressed in rune offsets of the original text, end excluded.
type span struct {
	word       string
	start, end int
}

// NewModerator initializes the Aho-Corasick automaton with a normalized version of the provided censored words list.
// Words made only of noise are ignored.
func NewModerator(censoredWords []string, censoredChar rune) (*Moderator, error) {
	normalized := lo.Uniq(lo.FilterMap(censoredWords, func(word string, _ int) (string, bool) {
		n := normalizeRunes([]rune(word))
		return string(n), len(n) > 0
	}))
	if len(normalized) == 0 {
		return &Moderator{censoredChar: censoredChar}, nil
	}
	slices.Sort(normalized)

	patterns := make([][]rune, len(normalized))
	for i, word := range normalized {
		patterns[i] = []rune(word)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, censoredChar: censoredChar}, nil
}

// Find returns the normalized dictionary words found in the text, in order of appearance.
func (m *Moderator) Find(original string) []string {
	return lo.Map(m.search(original), func(s span, _ int) string { return s.word })
}

// Contains reports whether at least one dictionary word is in the text.
func (m *Moderator) Contains(original string) bool {
	return len(m.search(original)) > 0
}

// Censor replaces every matched word with the censored char while preserving spacing.
func (m *Moderator) Censor(original string) (string, []string) {
	spans := m.search(original)
	if len(spans) == 0 {
		return original, nil
	}
	origRunes := []rune(original)
	var words []string
	for _, s := range spans {
		for i := s.start; i < s.end; i++ {
			origRunes[i] = m.censoredChar
		}
		words = append(words, s.word)
	}
	return string(origRunes), words
}

func (m *Moderator) search(original string) []span {
	if m.matcher == nil {
		return nil
	}
	mapping := m.normalize(original)
	if len(mapping.Normalized) == 0 {
		return nil
	}

	origRunes := []rune(original)
	terms := m.matcher.MultiPatternSearch(mapping.Normalized, false)

	var res []span
	for _, term := range terms {
		normStart := term.Pos
		normEnd := normStart + len(term.Word)

		if normStart < 0 || normEnd > len(mapping.OrigIdx) {
			continue
		}

		origStart := mapping.OrigIdx[normStart]
		origEnd := mapping.OrigIdx[normEnd-1] + 1

		// "hell" must not match inside "hello" or "shell"
		if !onWordBoundaries(origRunes, origStart, origEnd) {
			continue
		}
		res = append(res, span{word: string(term.Word), start: origStart, end: origEnd})
	}
	slices.SortStableFunc(res, func(a, b span) int { return a.start - b.start })
	return res
}

// normalize transforms the input string into a searchable format and tracks original rune positions.
func (m *Moderator) normalize(input string) TextMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		if isInWordApostrophe(origRunes, i) {
			norm = append(norm, '\'')
			origIdx = append(origIdx, i)
			continue
		}
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return TextMapping{Normalized: norm, OrigIdx: origIdx}
}

// normalizeRunes applies simplification and noise removal to a slice of runes.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for i, r := range input {
		if isInWordApostrophe(input, i) {
			out = append(out, '\'')
			continue
		}
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common Leet speak characters back to their standard alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters that should be ignored during the pattern matching phase.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

// isInWordApostrophe reports an apostrophe joining two letters, as in "he'll".
func isInWordApostrophe(text []rune, i int) bool {
	if text[i] != '\'' && text[i] != '’' {
		return false
	}
	return i > 0 && i < len(text)-1 && unicode.IsLetter(text[i-1]) && unicode.IsLetter(text[i+1])
}

func onWordBoundaries(text []rune, start, end int) bool {
	if start > 0 && isWordRune(text[start-1]) {
		return false
	}
	if end < len(text) && isWordRune(text[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
