// Package moderation masks censored words in outgoing chat bodies.
// Matching runs on a normalized view of the text (lowercased, leet speak
// folded, punctuation and spacing stripped) so obfuscated spellings are
// still caught, while the original spacing is preserved in the output.
package moderation

import (
	"fmt"
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	log      *slog.Logger
	matcher  *goahocorasick.Machine
	maskRune rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized
// forms of the censored words.
func NewModerator(censoredWords []string, maskRune rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		norm, _ := normalize([]rune(word))
		if len(norm) == 0 {
			continue
		}
		patterns = append(patterns, norm)
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, fmt.Errorf("building censored word automaton: %w", err)
	}
	log.Debug(fmt.Sprintf("Moderator ready with %d censored patterns", len(patterns)))
	return &Moderator{log: log, matcher: machine, maskRune: maskRune}, nil
}

// Censor replaces every matched span of the original text with the mask
// rune. Characters that only exist in the original (punctuation inside
// an obfuscated word) are masked together with the span.
func (m *Moderator) Censor(original string) string {
	origRunes := []rune(original)
	norm, origIdx := normalize(origRunes)
	if len(norm) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(norm, false)
	if len(spans) == 0 {
		return original
	}

	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		// Mask everything between the first and last original rune of
		// the span, noise characters included.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.maskRune
		}
	}
	return string(origRunes)
}

// normalize lowercases, folds leet speak and drops noise runes. The
// second return maps every normalized rune back to its index in the
// input so matched spans can be located in the original text.
func normalize(input []rune) ([]rune, []int) {
	norm := make([]rune, 0, len(input))
	origIdx := make([]int, 0, len(input))
	for i, r := range input {
		clean := foldLeet(r)
		if unicode.IsPunct(clean) || unicode.IsSpace(clean) || unicode.IsSymbol(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

// foldLeet maps common leet speak substitutions back to letters.
func foldLeet(r rune) rune {
	switch r {
	case '0':
		return 'o'
	case '1', '!', '|':
		return 'i'
	case '3', '€':
		return 'e'
	case '4', '@':
		return 'a'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
