// Package webhook turns collaboration-tool webhook deliveries into
// classifier annotations.
package webhook

import (
	"context"
	"fmt"
	"log"
	"time"

	"indigo/internal/classify"
	"indigo/internal/domain"
	"indigo/internal/metrics"

	"github.com/google/uuid"
)

// Notifier publishes an issue analysis somewhere humans will see it.
type Notifier interface {
	NotifyIssueAnalysis(ctx context.Context, event Event, analysis classify.IssueAnalysis) error
}

// Journal records delivery metadata and reports whether a delivery id has
// been seen before.
type Journal interface {
	RecordDelivery(d domain.Delivery) error
	DeliveryExists(deliveryID string) (bool, error)
}

// Request is one webhook call as received by the transport.
type Request struct {
	DeliveryID string
	Signature  string
	Body       []byte
}

// Result is the structured annotation returned to the caller.
type Result struct {
	DeliveryID string                     `json:"delivery_id"`
	EventType  string                     `json:"event_type"`
	Handled    bool                       `json:"handled"`
	Issue      *classify.IssueAnalysis    `json:"issue,omitempty"`
	Progress   *classify.ProgressAnalysis `json:"progress,omitempty"`
	Comment    *classify.CommentAnalysis  `json:"comment,omitempty"`
	Redelivery bool                       `json:"redelivery,omitempty"`
}

type Dispatcher struct {
	secret      string
	analyzer    classify.AdvancedAnalyzer
	notifier    Notifier
	minPriority classify.Priority
	journal     Journal
	metrics     *metrics.WebhookMetrics
	now         func() time.Time
}

type Option func(*Dispatcher)

// WithSecret enables signature verification.
func WithSecret(secret string) Option {
	return func(d *Dispatcher) { d.secret = secret }
}

func WithAnalyzer(a classify.AdvancedAnalyzer) Option {
	return func(d *Dispatcher) {
		if a != nil {
			d.analyzer = a
		}
	}
}

// WithNotifier sends issue analyses whose priority is at least minPriority.
func WithNotifier(n Notifier, minPriority classify.Priority) Option {
	return func(d *Dispatcher) {
		d.notifier = n
		d.minPriority = minPriority
	}
}

func WithJournal(j Journal) Option {
	return func(d *Dispatcher) { d.journal = j }
}

func WithMetrics(m *metrics.WebhookMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		analyzer:    classify.NoopAnalyzer{},
		minPriority: classify.PriorityLow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch verifies, parses and routes one delivery. Side-effect failures
// are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	deliveryID := req.DeliveryID
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	receivedAt := d.now()

	if err := VerifySignature(d.secret, req.Body, req.Signature); err != nil {
		log.Printf("webhook rejected delivery=%s err=%v", deliveryID, err)
		d.record(domain.Delivery{DeliveryID: deliveryID, Outcome: domain.OutcomeRejected, Error: err.Error(), ReceivedAt: receivedAt})
		return Result{DeliveryID: deliveryID}, err
	}

	event, err := ParseEvent(req.Body)
	if err != nil {
		log.Printf("webhook rejected delivery=%s err=%v", deliveryID, err)
		d.record(domain.Delivery{DeliveryID: deliveryID, Outcome: domain.OutcomeRejected, Error: err.Error(), ReceivedAt: receivedAt})
		return Result{DeliveryID: deliveryID}, err
	}

	redelivery := req.DeliveryID != "" && d.seen(req.DeliveryID)
	log.Printf("webhook received delivery=%s event=%s name=%q redelivery=%t", deliveryID, event.Type, event.Input.Title, redelivery)

	result, err := d.route(ctx, event, redelivery)
	result.DeliveryID = deliveryID
	result.Redelivery = redelivery

	delivery := domain.Delivery{
		DeliveryID: deliveryID,
		EventType:  event.Type,
		EntityName: event.Input.Title,
		Outcome:    domain.OutcomeProcessed,
		ReceivedAt: receivedAt,
	}
	switch {
	case err != nil:
		delivery.Outcome = domain.OutcomeFailed
		delivery.Error = err.Error()
		log.Printf("webhook failed delivery=%s event=%s err=%v", deliveryID, event.Type, err)
	case !result.Handled:
		delivery.Outcome = domain.OutcomeUnhandled
		log.Printf("webhook unhandled event type=%q delivery=%s", event.Type, deliveryID)
	}
	d.record(delivery)

	return result, err
}

func (d *Dispatcher) route(ctx context.Context, event Event, redelivery bool) (Result, error) {
	result := Result{EventType: event.Type}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("dispatch %s: %w", event.Type, err)
	}

	switch event.Type {
	case EventIssueCreated:
		analysis := d.analyzeIssue(ctx, event, redelivery)
		result.Handled = true
		result.Issue = &analysis
	case EventIssueUpdated:
		progress := classify.AnalyzeProgress(event.Input)
		log.Printf("webhook progress issue=%q stage=%s velocity=%s", event.Input.Title, progress.Stage, progress.Velocity)
		result.Handled = true
		result.Progress = &progress
	case EventCommentCreated:
		comment := classify.AnalyzeComment(event.Input)
		d.metrics.ObserveLabel("sentiment", string(comment.Sentiment))
		log.Printf("webhook comment sentiment=%s", comment.Sentiment)
		result.Handled = true
		result.Comment = &comment
	case EventProjectCreated:
		log.Printf("webhook project created name=%q", event.Input.Title)
		result.Handled = true
	case EventCycleCreated:
		log.Printf("webhook cycle created name=%q", event.Input.Title)
		result.Handled = true
	}
	return result, nil
}

func (d *Dispatcher) analyzeIssue(ctx context.Context, event Event, redelivery bool) classify.IssueAnalysis {
	analysis := classify.AnalyzeIssue(event.Input)

	refined, err := d.analyzer.AnalyzeIssue(ctx, event.Input, analysis)
	if err != nil {
		log.Printf("webhook advanced analysis error (non-fatal) issue=%q err=%v", event.Input.Title, err)
	} else {
		analysis = refined
	}

	d.metrics.ObserveLabel("category", string(analysis.Category))
	d.metrics.ObserveLabel("priority", string(analysis.Priority))
	d.metrics.ObserveLabel("complexity", string(analysis.Complexity))
	for _, tag := range analysis.Tags {
		d.metrics.ObserveLabel("tag", string(tag))
	}
	log.Printf("webhook issue analysis issue=%q category=%s priority=%s complexity=%s tags=%v",
		event.Input.Title, analysis.Category, analysis.Priority, analysis.Complexity, analysis.Tags)

	if redelivery {
		log.Printf("webhook notify skipped issue=%q reason=redelivery", event.Input.Title)
		return analysis
	}
	d.notify(ctx, event, analysis)
	return analysis
}

func (d *Dispatcher) notify(ctx context.Context, event Event, analysis classify.IssueAnalysis) {
	if d.notifier == nil || analysis.Priority.Rank() < d.minPriority.Rank() {
		return
	}
	if err := d.notifier.NotifyIssueAnalysis(ctx, event, analysis); err != nil {
		d.metrics.ObserveNotification("failed")
		log.Printf("webhook notify error (non-fatal) issue=%q err=%v", event.Input.Title, err)
		return
	}
	d.metrics.ObserveNotification("sent")
}

// seen reports whether the journal already holds deliveryID. Lookup errors
// count as unseen.
func (d *Dispatcher) seen(deliveryID string) bool {
	if d.journal == nil {
		return false
	}
	exists, err := d.journal.DeliveryExists(deliveryID)
	if err != nil {
		log.Printf("webhook journal lookup error (non-fatal) delivery=%s err=%v", deliveryID, err)
		return false
	}
	return exists
}

func (d *Dispatcher) record(delivery domain.Delivery) {
	d.metrics.ObserveEvent(metricEventType(delivery.EventType), string(delivery.Outcome))

	if d.journal == nil {
		return
	}
	if err := d.journal.RecordDelivery(delivery); err != nil {
		log.Printf("webhook journal error (non-fatal) delivery=%s err=%v", delivery.DeliveryID, err)
	}
}

// metricEventType bounds label cardinality to the routed event types.
func metricEventType(eventType string) string {
	switch eventType {
	case EventIssueCreated, EventIssueUpdated, EventCommentCreated, EventProjectCreated, EventCycleCreated:
		return eventType
	case "":
		return "unknown"
	default:
		return "other"
	}
}
