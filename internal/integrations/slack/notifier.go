package slackbot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"indigo/internal/classify"
	"indigo/internal/httpx"
	"indigo/internal/webhook"

	"github.com/slack-go/slack"
)

const splitHint = ":scissors: High complexity. Consider splitting this issue."

// Notifier posts issue analyses to a single Slack channel.
type Notifier struct {
	api       *slack.Client
	channelID string
}

type Option func(*options)

type options struct {
	apiURL string
}

// WithAPIURL points the client at a different Slack API base URL.
func WithAPIURL(url string) Option {
	return func(o *options) { o.apiURL = url }
}

func NewNotifier(token, channelID string, opts ...Option) *Notifier {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := []slack.Option{slack.OptionHTTPClient(httpx.ExternalHTTPClient())}
	if o.apiURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(o.apiURL))
	}
	return &Notifier{
		api:       slack.New(token, clientOpts...),
		channelID: channelID,
	}
}

var _ webhook.Notifier = (*Notifier)(nil)

func (n *Notifier) NotifyIssueAnalysis(ctx context.Context, event webhook.Event, analysis classify.IssueAnalysis) error {
	summary := formatIssueAnalysis(event, analysis)
	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(summary, false),
		slack.MsgOptionBlocks(issueAnalysisBlocks(event, analysis)...),
	)
	if err != nil {
		return fmt.Errorf("post issue analysis to %s: %w", n.channelID, err)
	}
	log.Printf("slack notified channel=%s ts=%s issue=%q priority=%s", n.channelID, ts, event.Input.Title, analysis.Priority)
	return nil
}

func issueTitle(event webhook.Event) string {
	if event.Input.Title == "" {
		return "(untitled issue)"
	}
	return event.Input.Title
}

func formatTags(tags []classify.Tag) string {
	if len(tags) == 0 {
		return "none"
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = string(tag)
	}
	return strings.Join(parts, ", ")
}

// formatIssueAnalysis is the plain-text fallback shown in notifications.
func formatIssueAnalysis(event webhook.Event, analysis classify.IssueAnalysis) string {
	return fmt.Sprintf("New issue: %s [%s, %s priority, %s complexity] tags: %s",
		issueTitle(event), analysis.Category, analysis.Priority, analysis.Complexity, formatTags(analysis.Tags))
}

func issueAnalysisBlocks(event webhook.Event, analysis classify.IssueAnalysis) []slack.Block {
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Category*\n"+string(analysis.Category), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Priority*\n"+string(analysis.Priority), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Complexity*\n"+string(analysis.Complexity), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Tags*\n"+formatTags(analysis.Tags), false, false),
	}
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, "New issue: "+issueTitle(event), false, false),
		),
		slack.NewSectionBlock(nil, fields, nil),
	}
	if analysis.Complexity.Rank() >= classify.ComplexityHigh.Rank() {
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, splitHint, false, false),
		))
	}
	return blocks
}
