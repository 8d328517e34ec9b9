package orchestrator

import (
	"regexp"
	"strings"

	"github.com/user/seometrics/internal/capability"
)

// IntentClassifier predicts which capability category a user message is
// steering toward, so the loop can route the request to a cheaper or stronger
// model variant before calling the provider. Implementations must be cheap;
// they run on every turn.
type IntentClassifier interface {
	Predict(message string) capability.Category
}

type weightedPattern struct {
	regex  *regexp.Regexp
	weight float64
}

// RegexClassifier scores weighted patterns per category and picks the best.
// It handles the common phrasings; anything ambiguous falls through to the
// site category and the default variant.
type RegexClassifier struct {
	patterns map[capability.Category][]weightedPattern
}

func NewRegexClassifier() *RegexClassifier {
	return &RegexClassifier{patterns: buildIntentPatterns()}
}

func (c *RegexClassifier) Predict(message string) capability.Category {
	lower := strings.ToLower(message)

	scores := make(map[capability.Category]float64)
	for category, patterns := range c.patterns {
		for _, p := range patterns {
			if p.regex.MatchString(lower) {
				scores[category] += p.weight
			}
		}
	}

	best := capability.CategorySite
	var bestScore float64
	for category, score := range scores {
		if score > bestScore {
			bestScore = score
			best = category
		}
	}
	return best
}

func buildIntentPatterns() map[capability.Category][]weightedPattern {
	return map[capability.Category][]weightedPattern{
		capability.CategoryContent: {
			{regexp.MustCompile(`\b(write|generate|create|draft)\b.*\b(article|blog|post|content|page)\b`), 1.2},
			{regexp.MustCompile(`\b(article|blog\s+post)\b.*\babout\b`), 1.0},
			{regexp.MustCompile(`\b(rewrite|optimi[sz]e|improve)\b.*\b(content|copy|article|page)\b`), 0.9},
		},
		capability.CategorySEO: {
			{regexp.MustCompile(`\b(audit|analy[sz]e|check)\b.*\b(seo|page|site)\b`), 1.0},
			{regexp.MustCompile(`\b(sitemap|meta\s+tags?|schema\s+markup|alt\s+tags?)\b`), 1.0},
			{regexp.MustCompile(`\bfix(es)?\b.*\b(seo|technical)\b`), 0.8},
		},
		capability.CategoryGSC: {
			{regexp.MustCompile(`\b(search\s+console|gsc)\b`), 1.2},
			{regexp.MustCompile(`\b(clicks|impressions|ranking|position)\b.*\b(data|report|performance)\b`), 0.9},
			{regexp.MustCompile(`\bsync\b.*\b(data|performance)\b`), 0.7},
		},
		capability.CategoryKeywords: {
			{regexp.MustCompile(`\bkeywords?\b`), 1.0},
			{regexp.MustCompile(`\b(research|difficulty|volume)\b.*\b(term|phrase|topic)\b`), 0.8},
		},
		capability.CategoryCMS: {
			{regexp.MustCompile(`\bpublish\b`), 1.0},
			{regexp.MustCompile(`\b(wordpress|strapi|webflow|cms)\b`), 1.0},
		},
	}
}
