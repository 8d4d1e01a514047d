package classify

// Category is the coarse nature of an issue.
type Category string

const (
	CategoryBug         Category = "BUG"
	CategoryFeature     Category = "FEATURE"
	CategoryImprovement Category = "IMPROVEMENT"
	CategoryTask        Category = "TASK"
	CategoryGeneral     Category = "GENERAL"
)

// Priority is an urgency ranking. LOW < MEDIUM < HIGH.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank orders priorities; unknown values rank below LOW.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// ParsePriority accepts any casing and reports whether s named a priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(normalizeLabel(s))
	return p, p.Rank() > 0
}

// Complexity is a rough sizing of the work. LOW < MEDIUM < HIGH.
type Complexity string

const (
	ComplexityHigh   Complexity = "HIGH"
	ComplexityMedium Complexity = "MEDIUM"
	ComplexityLow    Complexity = "LOW"
)

// Rank orders complexities the same way Priority.Rank orders priorities.
func (c Complexity) Rank() int {
	switch c {
	case ComplexityLow:
		return 1
	case ComplexityMedium:
		return 2
	case ComplexityHigh:
		return 3
	default:
		return 0
	}
}

// Tag is a non-exclusive topical label.
type Tag string

const (
	TagFrontend    Tag = "frontend"
	TagBackend     Tag = "backend"
	TagAPI         Tag = "api"
	TagUI          Tag = "ui"
	TagDatabase    Tag = "database"
	TagSecurity    Tag = "security"
	TagPerformance Tag = "performance"
)

// Sentiment is the polarity of a comment.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)
