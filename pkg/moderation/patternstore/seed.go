package patternstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/roleguard/roleguard/pkg/domain/rule"
)

func seed(term string, category rule.Category, subcategory string, severity int, language, notes string) rule.Rule {
	return rule.Rule{
		ID:          uuid.New(),
		Term:        term,
		Category:    category,
		Subcategory: subcategory,
		Severity:    severity,
		Language:    language,
		MatchMode:   rule.MatchSubstring,
		Action:      rule.ActionForTier(rule.TierForSeverity(severity)),
		Provenance:  rule.ProvenanceStatic,
		Notes:       notes,
		CreatedAt:   time.Now(),
	}
}

func seedRegex(pattern string, category rule.Category, subcategory string, severity int, language, notes string) rule.Rule {
	r := seed(pattern, category, subcategory, severity, language, notes)
	r.MatchMode = rule.MatchRegex
	return r
}

// seedRules is the static vocabulary the matcher ships with. The learner
// grows this set at runtime; these rows never change in-process.
func seedRules() []rule.Rule {
	return []rule.Rule{
		// violence
		seed("殺す", rule.CategoryViolence, "threat", 9, "ja", ""),
		seed("殺してやる", rule.CategoryViolence, "threat", 10, "ja", ""),
		seed("殴り殺", rule.CategoryViolence, "threat", 9, "ja", ""),
		seed("kill you", rule.CategoryViolence, "threat", 9, "en", ""),
		seed("刺し殺", rule.CategoryViolence, "weapon", 9, "ja", ""),
		seed("爆弾の作り方", rule.CategoryViolence, "weapon_instructions", 10, "ja", ""),
		seed("how to make a bomb", rule.CategoryViolence, "weapon_instructions", 10, "en", ""),
		seed("血まみれ", rule.CategoryViolence, "gore", 6, "ja", ""),

		// self harm
		seed("死にたい", rule.CategorySelfHarm, "ideation", 8, "ja", ""),
		seed("自殺", rule.CategorySelfHarm, "ideation", 8, "ja", ""),
		seed("リストカット", rule.CategorySelfHarm, "method", 8, "ja", ""),
		seed("kill myself", rule.CategorySelfHarm, "ideation", 9, "en", ""),
		seed("消えてしまいたい", rule.CategorySelfHarm, "ideation", 6, "ja", ""),

		// sexual
		seed("セックス", rule.CategorySexual, "explicit", 7, "ja", ""),
		seed("エッチしよ", rule.CategorySexual, "solicitation", 7, "ja", ""),
		seed("裸の写真", rule.CategorySexual, "solicitation", 8, "ja", ""),
		seed("パンツ", rule.CategorySexual, "clothing_ambiguous", 5, "ja",
			"clothing sense is common; rely on the arbiter for context"),
		seed("下着", rule.CategorySexual, "clothing_ambiguous", 5, "ja",
			"clothing sense is common; rely on the arbiter for context"),
		seed("send nudes", rule.CategorySexual, "solicitation", 8, "en", ""),

		// hate
		seed("死ね", rule.CategoryHate, "abuse", 8, "ja", ""),
		seed("きもい", rule.CategoryHate, "abuse", 5, "ja", ""),
		seed("クズ野郎", rule.CategoryHate, "abuse", 6, "ja", ""),

		// privacy
		seed("住所教えて", rule.CategoryPrivacy, "pii_probe", 7, "ja", ""),
		seed("本名は", rule.CategoryPrivacy, "pii_probe", 5, "ja", ""),
		seed("電話番号教えて", rule.CategoryPrivacy, "pii_probe", 7, "ja", ""),
		seedRegex(`(?i)\b\d{2,4}-\d{2,4}-\d{3,4}\b`, rule.CategoryPrivacy, "phone_number", 6, "any", ""),
		seedRegex(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`, rule.CategoryPrivacy, "email", 5, "any", ""),

		// politics / religion
		seed("どの政党に投票", rule.CategoryPolitics, "opinion_probe", 5, "ja", ""),
		seed("宗教に入らない", rule.CategoryReligion, "recruiting", 6, "ja", ""),

		// ai identity probes
		seed("中身はAI", rule.CategoryAIIdentity, "identity_probe", 5, "ja", ""),
		seed("言語モデル", rule.CategoryAIIdentity, "identity_probe", 5, "ja", ""),
		seed("prompt injection", rule.CategoryAIIdentity, "jailbreak", 7, "en", ""),
		seed("ignore previous instructions", rule.CategoryAIIdentity, "jailbreak", 7, "en", ""),
		seed("システムプロンプト", rule.CategoryAIIdentity, "jailbreak", 7, "ja", ""),

		// spam
		seedRegex(`(?i)https?://[^\s]+\.(?:xyz|top|click)`, rule.CategorySpam, "link", 6, "any", ""),
		seed("今すぐ登録", rule.CategorySpam, "solicitation", 5, "ja", ""),
		seed("副業で稼げる", rule.CategorySpam, "solicitation", 6, "ja", ""),
	}
}
