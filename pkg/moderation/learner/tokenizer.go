package learner

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

type script int

const (
	scriptNone script = iota
	scriptHan
	scriptKana
	scriptLatin
)

// classify buckets a rune into the scripts the tokenizer segments on. The
// prolonged sound mark extends katakana runs so terms like "ハッキング" stay
// whole.
func classifyRune(r rune) script {
	switch {
	case unicode.In(r, unicode.Han):
		return scriptHan
	case unicode.In(r, unicode.Katakana) || r == 'ー':
		return scriptKana
	case unicode.IsLetter(r) && r < 0x3000:
		return scriptLatin
	case unicode.IsDigit(r):
		return scriptLatin
	default:
		return scriptNone
	}
}

// ExtractCandidates segments text into candidate vocabulary terms: maximal
// same-script runs of Han, Katakana or Latin characters of at least minLen
// runes. Hiragana runs are dropped entirely; they are dominated by particles
// and inflections and almost never carry a standalone term. Duplicates are
// removed preserving first-seen order.
func ExtractCandidates(text string, minLen int) []string {
	if minLen < 1 {
		minLen = 1
	}
	folded := width.Fold.String(norm.NFKC.String(text))

	var candidates []string
	seen := make(map[string]struct{})

	var run []rune
	current := scriptNone

	flush := func() {
		if current == scriptNone || len(run) < minLen {
			run = run[:0]
			return
		}
		term := string(run)
		if current == scriptLatin {
			term = strings.ToLower(term)
		}
		if _, dup := seen[term]; !dup {
			seen[term] = struct{}{}
			candidates = append(candidates, term)
		}
		run = run[:0]
	}

	for _, r := range folded {
		s := classifyRune(r)
		if s != current {
			flush()
			current = s
		}
		if s != scriptNone {
			run = append(run, r)
		}
	}
	flush()

	return candidates
}
