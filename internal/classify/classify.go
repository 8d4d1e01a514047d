// Package classify derives heuristic annotations from free text using fixed
// keyword tables. Every function is pure and safe for concurrent use; the
// tables are read-only after package initialization.
package classify

import "strings"

type categoryKeywords struct {
	category Category
	keywords []string
}

// Order matters: the first category with a matching keyword wins.
var categoryTable = []categoryKeywords{
	{CategoryBug, []string{"bug", "error", "issue", "problem", "broken", "fix"}},
	{CategoryFeature, []string{"feature", "add", "implement", "new", "create"}},
	{CategoryImprovement, []string{"improve", "optimize", "enhance", "better", "upgrade"}},
	{CategoryTask, []string{"task", "todo", "setup", "configure", "update"}},
}

var (
	highPriorityKeywords   = []string{"urgent", "critical", "crash", "down", "broken", "security"}
	mediumPriorityKeywords = []string{"important", "should", "needed", "required"}

	complexityKeywords = []string{"integration", "database", "api", "security", "performance", "architecture"}

	tagVocabulary = []Tag{TagFrontend, TagBackend, TagAPI, TagUI, TagDatabase, TagSecurity, TagPerformance}

	positiveKeywords = []string{"good", "great", "excellent", "perfect", "awesome", "love"}
	negativeKeywords = []string{"bad", "terrible", "awful", "hate", "problem", "issue"}
)

const (
	highComplexityWords   = 100
	mediumComplexityWords = 30
)

// Input carries the text fields of an event. Absent fields are empty strings.
type Input struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Comment     string `json:"comment,omitempty"`
	State       string `json:"state,omitempty"`
}

// Categorize returns the first category, in table order, whose keywords
// appear in text. GENERAL when none do.
func Categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, entry := range categoryTable {
		if containsAny(lower, entry.keywords) {
			return entry.category
		}
	}
	return CategoryGeneral
}

// SuggestPriority checks the HIGH keywords before the MEDIUM ones.
func SuggestPriority(title, description string) Priority {
	text := strings.ToLower(title + " " + description)
	switch {
	case containsAny(text, highPriorityKeywords):
		return PriorityHigh
	case containsAny(text, mediumPriorityKeywords):
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// EstimateComplexity combines keyword presence with a naive word count.
func EstimateComplexity(description string) Complexity {
	words := WordCount(description)
	hasKeyword := containsAny(strings.ToLower(description), complexityKeywords)

	switch {
	case hasKeyword || words > highComplexityWords:
		return ComplexityHigh
	case words > mediumComplexityWords:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// WordCount splits on single spaces without trimming, so "" counts as one
// word and runs of spaces produce empty words.
func WordCount(s string) int {
	return len(strings.Split(s, " "))
}

// ExtractTags returns every vocabulary tag found in text, in vocabulary order.
// The result is never nil.
func ExtractTags(text string) []Tag {
	lower := strings.ToLower(text)
	tags := make([]Tag, 0, len(tagVocabulary))
	for _, tag := range tagVocabulary {
		if strings.Contains(lower, string(tag)) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// AnalyzeSentiment is POSITIVE or NEGATIVE only when exactly one side of the
// vocabulary matches.
func AnalyzeSentiment(comment string) Sentiment {
	lower := strings.ToLower(comment)
	positive := containsAny(lower, positiveKeywords)
	negative := containsAny(lower, negativeKeywords)

	switch {
	case positive && !negative:
		return SentimentPositive
	case negative && !positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
