package learner

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/roleguard/roleguard/pkg/domain/rule"
)

// signal is one heuristic cue scanned for in a lookup digest. The digest is
// treated as an association oracle: if the external source describes the term
// alongside these cues, the term inherits the cue's category and severity.
type signal struct {
	keyword     string
	category    rule.Category
	subcategory string
	severity    int
}

// The table is deliberately trigger-happy. Lookup snippets are noisy and the
// scan is biased toward false positives; the context judge downgrades the
// benign ones at evaluation time.
var digestSignals = []signal{
	{"自殺", rule.CategorySelfHarm, "suicide", 8},
	{"自傷", rule.CategorySelfHarm, "self_injury", 8},
	{"suicide", rule.CategorySelfHarm, "suicide", 8},
	{"overdose", rule.CategorySelfHarm, "overdose", 8},

	{"殺人", rule.CategoryViolence, "homicide", 8},
	{"殺害", rule.CategoryViolence, "homicide", 8},
	{"暴力", rule.CategoryViolence, "assault", 7},
	{"虐待", rule.CategoryViolence, "abuse", 8},
	{"武器", rule.CategoryViolence, "weapons", 6},
	{"violence", rule.CategoryViolence, "assault", 7},
	{"weapon", rule.CategoryViolence, "weapons", 6},

	{"差別", rule.CategoryHate, "discrimination", 8},
	{"蔑称", rule.CategoryHate, "slur", 9},
	{"ヘイト", rule.CategoryHate, "hate_speech", 8},
	{"slur", rule.CategoryHate, "slur", 9},
	{"derogatory", rule.CategoryHate, "slur", 8},

	{"性的", rule.CategorySexual, "explicit", 6},
	{"アダルト", rule.CategorySexual, "adult", 6},
	{"わいせつ", rule.CategorySexual, "obscenity", 7},
	{"隠語", rule.CategorySexual, "slang", 5},
	{"下ネタ", rule.CategorySexual, "innuendo", 5},
	{"sexual", rule.CategorySexual, "explicit", 6},
	{"nsfw", rule.CategorySexual, "adult", 6},
	{"erotic", rule.CategorySexual, "explicit", 6},

	{"個人情報", rule.CategoryPrivacy, "pii", 6},
	{"晒し", rule.CategoryPrivacy, "doxxing", 7},
	{"doxx", rule.CategoryPrivacy, "doxxing", 7},

	{"薬物", rule.CategoryGeneral, "drugs", 7},
	{"麻薬", rule.CategoryGeneral, "drugs", 7},
	{"違法", rule.CategoryGeneral, "illegal", 6},
	{"narcotic", rule.CategoryGeneral, "drugs", 7},

	{"詐欺", rule.CategorySpam, "scam", 5},
	{"scam", rule.CategorySpam, "scam", 5},
	{"phishing", rule.CategorySpam, "phishing", 6},
}

type classification struct {
	category    rule.Category
	subcategory string
	severity    int
	signals     []string
}

// classifyDigest scans the concatenated lookup snippets for association cues
// and keeps the strongest one. A zero severity means no cue fired and the
// term stays unlearned.
func classifyDigest(digest string) classification {
	folded := strings.ToLower(width.Fold.String(norm.NFKC.String(digest)))

	var out classification
	for _, sig := range digestSignals {
		if !strings.Contains(folded, strings.ToLower(sig.keyword)) {
			continue
		}
		out.signals = append(out.signals, sig.keyword)
		if sig.severity > out.severity {
			out.category = sig.category
			out.subcategory = sig.subcategory
			out.severity = sig.severity
		}
	}
	return out
}
