package webhook

import (
	"fmt"

	"indigo/internal/classify"

	"github.com/tidwall/gjson"
)

// Event types routed by the dispatcher.
const (
	EventIssueCreated   = "issue.created"
	EventIssueUpdated   = "issue.updated"
	EventCommentCreated = "issue_comment.created"
	EventProjectCreated = "project.created"
	EventCycleCreated   = "cycle.created"
)

// Event is a webhook payload reduced to the fields the classifiers read.
type Event struct {
	Type  string
	ID    string
	Input classify.Input
}

// ParseEvent extracts an Event from a raw JSON body. Missing or non-string
// fields become empty strings; only a body that is not a JSON object is an
// error.
func ParseEvent(body []byte) (Event, error) {
	if !gjson.ValidBytes(body) {
		return Event{}, fmt.Errorf("%w: body is not valid JSON", ErrMalformedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Event{}, fmt.Errorf("%w: body must be a JSON object", ErrMalformedPayload)
	}
	data := root.Get("data")

	return Event{
		Type: eventType(root),
		ID:   firstString(data, "id"),
		Input: classify.Input{
			Title:       firstString(data, "name", "title"),
			Description: firstString(data, "description", "content", "description_stripped"),
			Comment:     firstString(data, "comment", "comment_stripped"),
			State:       firstString(data, "state", "state.name", "state_detail.name"),
		},
	}, nil
}

// eventType prefers an explicit event_type and falls back to Plane's
// event/action pair.
func eventType(root gjson.Result) string {
	if t := firstString(root, "event_type"); t != "" {
		return t
	}
	event := firstString(root, "event")
	action := firstString(root, "action")
	if event == "" || action == "" {
		return event
	}
	return event + "." + action
}

func firstString(obj gjson.Result, paths ...string) string {
	if !obj.IsObject() {
		return ""
	}
	for _, path := range paths {
		v := obj.Get(path)
		if v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}
