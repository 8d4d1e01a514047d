package classify

import "context"

const (
	unknownStage   = "unknown"
	normalVelocity = "normal"
)

// IssueAnalysis is the annotation attached to a newly created issue.
type IssueAnalysis struct {
	Category   Category   `json:"category"`
	Priority   Priority   `json:"priority"`
	Complexity Complexity `json:"complexity"`
	Tags       []Tag      `json:"tags"`
}

// ProgressAnalysis summarizes an issue update.
type ProgressAnalysis struct {
	Stage    string   `json:"stage"`
	Velocity string   `json:"velocity"`
	Blockers []string `json:"blockers"`
}

// CommentAnalysis summarizes a new comment.
type CommentAnalysis struct {
	Sentiment Sentiment `json:"sentiment"`
}

// AnalyzeIssue runs the category, priority, complexity and tag classifiers.
// Category and tags look at the title and description together.
func AnalyzeIssue(in Input) IssueAnalysis {
	text := in.Title + " " + in.Description
	return IssueAnalysis{
		Category:   Categorize(text),
		Priority:   SuggestPriority(in.Title, in.Description),
		Complexity: EstimateComplexity(in.Description),
		Tags:       ExtractTags(text),
	}
}

// AnalyzeProgress reports the issue state as the stage. Velocity and
// blockers are fixed placeholders.
func AnalyzeProgress(in Input) ProgressAnalysis {
	stage := in.State
	if stage == "" {
		stage = unknownStage
	}
	return ProgressAnalysis{
		Stage:    stage,
		Velocity: normalVelocity,
		Blockers: []string{},
	}
}

// AnalyzeComment classifies the sentiment of the comment text.
func AnalyzeComment(in Input) CommentAnalysis {
	return CommentAnalysis{Sentiment: AnalyzeSentiment(in.Comment)}
}

// AdvancedAnalyzer refines a keyword analysis. Implementations may consult
// external services; the default does nothing.
type AdvancedAnalyzer interface {
	AnalyzeIssue(ctx context.Context, in Input, base IssueAnalysis) (IssueAnalysis, error)
}

// NoopAnalyzer returns the keyword analysis unchanged.
type NoopAnalyzer struct{}

func (NoopAnalyzer) AnalyzeIssue(_ context.Context, _ Input, base IssueAnalysis) (IssueAnalysis, error) {
	return base, nil
}
