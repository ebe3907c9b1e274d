package analysis

import (
	"fmt"
	"strings"
)

// inappropriatePhrases mark an answer as not appropriate. First match wins;
// matching is case-insensitive over the whole answer.
var inappropriatePhrases = []string{
	"not suitable for minors",
	"not appropriate",
	"inappropriate",
}

// categoryRules map keywords to categories in priority order.
var categoryRules = []struct {
	keyword  string
	category Category
}{
	{"game", CategoryGames},
	{"education", CategoryEducation},
	{"social media", CategorySocialMedia},
	{"entertainment", CategoryEntertainment},
	{"productivity", CategoryProductivity},
}

// ageRatingTokens are scanned in order; "everyone" matches case-insensitively,
// the numeric tokens match the raw text as written.
var ageRatingTokens = []AgeRating{
	Rating9Plus,
	Rating12Plus,
	Rating16Plus,
	Rating18Plus,
}

// Interpret extracts structured fields from a raw model answer. It is pure
// and never fails: absent patterns map to Other/Unknown/zero defaults.
func Interpret(rawText string) AppAnalysis {
	lowered := strings.ToLower(rawText)

	return AppAnalysis{
		Category:         extractCategory(lowered),
		IsAppropriate:    extractAppropriate(lowered),
		AgeRating:        extractAgeRating(rawText, lowered),
		EducationalValue: extractEducationalValue(rawText),
		Concerns:         extractConcerns(lowered),
		RawText:          rawText,
	}
}

func extractAppropriate(lowered string) bool {
	for _, phrase := range inappropriatePhrases {
		if strings.Contains(lowered, phrase) {
			return false
		}
	}
	return true
}

func extractCategory(lowered string) Category {
	for _, rule := range categoryRules {
		if strings.Contains(lowered, rule.keyword) {
			return rule.category
		}
	}
	return CategoryOther
}

func extractAgeRating(rawText, lowered string) AgeRating {
	if strings.Contains(lowered, "everyone") {
		return RatingEveryone
	}
	for _, token := range ageRatingTokens {
		if strings.Contains(rawText, string(token)) {
			return token
		}
	}
	return RatingUnknown
}

func extractEducationalValue(rawText string) int {
	for score := 10; score >= 1; score-- {
		slash := fmt.Sprintf("%d/10", score)
		spelled := fmt.Sprintf("%d out of 10", score)
		if strings.Contains(rawText, slash) || strings.Contains(rawText, spelled) {
			return score
		}
	}
	return 0
}

// extractConcerns takes the first line following the first "concern"
// occurrence. The result is always zero or one entry; multi-concern
// extraction would change observable behavior.
func extractConcerns(lowered string) []string {
	idx := strings.Index(lowered, "concern")
	if idx < 0 {
		return nil
	}
	rest := lowered[idx+len("concern"):]
	rest = strings.TrimPrefix(rest, "s")
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	rest = strings.TrimSpace(strings.TrimLeft(rest, ":- \t"))
	if rest == "" {
		return nil
	}
	return []string{rest}
}
