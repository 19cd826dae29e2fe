// Package analytics provides a fire-and-forget NATS publisher for browse
// events (searches, detail views). Publishing never blocks or fails a request.
package analytics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectSearchPerformed    = "analytics.search.performed"
	SubjectCatalogAnimeViewed = "analytics.catalog.anime_viewed"
	SubjectBrowseListed       = "analytics.browse.listed"
)

// Event is the canonical envelope sent to all analytics.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Publisher publishes analytics events to NATS JetStream.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	js  nats.JetStreamContext
	log *zap.Logger
	now func() time.Time
}

// New creates a Publisher. Pass js=nil to get a no-op stub.
func New(js nats.JetStreamContext, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{js: js, log: log, now: time.Now}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.js != nil
}

// Publish sends an event asynchronously. Failures are logged as warnings.
func (p *Publisher) Publish(subject, eventName string, props map[string]any) {
	if !p.Enabled() {
		return
	}
	data, err := encode(eventName, p.now().UTC(), props)
	if err != nil {
		p.log.Warn("analytics: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if _, err := p.js.PublishAsync(subject, data); err != nil {
		p.log.Warn("analytics: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

func encode(eventName string, at time.Time, props map[string]any) ([]byte, error) {
	return json.Marshal(Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		OccurredAt: at,
		Properties: props,
	})
}
