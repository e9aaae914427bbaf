package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Filter content moderation capability
type Filter interface {
	ContainsViolation(text string) bool
}

// Moderator banned word matcher, matching ignores case, punctuation, spacing and common leet substitutions
type Moderator struct {
	matcher *goahocorasick.Machine
}

// NewModerator build the automaton; an empty word list never reports a violation
func NewModerator(bannedWords []string) (*Moderator, error) {
	normalized := lo.Uniq(lo.FilterMap(bannedWords, func(w string, _ int) (string, bool) {
		n := string(normalizeRunes([]rune(w)))
		return n, n != ""
	}))

	mod := &Moderator{}
	if len(normalized) == 0 {
		return mod, nil
	}

	patterns := lo.Map(normalized, func(w string, _ int) []rune { return []rune(w) })
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	mod.matcher = m
	return mod, nil
}

// ContainsViolation any banned word present
func (m *Moderator) ContainsViolation(text string) bool {
	if m.matcher == nil {
		return false
	}
	normalized := normalizeRunes([]rune(text))
	if len(normalized) == 0 {
		return false
	}
	return len(m.matcher.MultiPatternSearch(normalized, true)) > 0
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// leet speak back to letters
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

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
