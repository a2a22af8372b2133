package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/dulceria/api/internal/platform/textutil"
)

// Event names published on the orders topic.
const (
	EventOrderCreated          = "order.created"
	EventOrderStatusChanged    = "order.status.changed"
	EventOrderTotalsRecomputed = "order.totals.recomputed"
)

// OrderEvent is the envelope published for every order mutation.
type OrderEvent struct {
	Event      string         `json:"event"`
	OrderID    string         `json:"orderId"`
	UserID     string         `json:"userId,omitempty"`
	StatusID   string         `json:"statusId,omitempty"`
	Status     string         `json:"status,omitempty"`
	Subtotal   float64        `json:"subtotal,omitempty"`
	Total      float64        `json:"total,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// PubSubOrderPublisher publishes order domain events to a Pub/Sub topic.
type PubSubOrderPublisher struct {
	topic   *pubsub.Topic
	static  map[string]string
	marshal func(any) ([]byte, error)
}

// PublisherOption customises publisher behaviour.
type PublisherOption func(*PubSubOrderPublisher)

// WithStaticAttributes stamps every published message with the given
// attributes. Per-event attributes win on key collisions.
func WithStaticAttributes(attrs map[string]string) PublisherOption {
	return func(p *PubSubOrderPublisher) {
		p.static = textutil.NormalizeStringMap(attrs)
	}
}

// NewPubSubOrderPublisher constructs a Pub/Sub backed order event publisher.
func NewPubSubOrderPublisher(topic *pubsub.Topic, opts ...PublisherOption) (*PubSubOrderPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	p := &PubSubOrderPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// PublishOrderEvent enqueues an order event message on the configured topic.
func (p *PubSubOrderPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub order publisher: not initialised")
	}
	if strings.TrimSpace(event.Event) == "" {
		return "", errors.New("pubsub order publisher: event name is required")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal order event: %w", err)
	}

	attrs := make(map[string]string, len(p.static)+4)
	for key, value := range p.static {
		attrs[key] = value
	}
	setAttr(attrs, "event", event.Event)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "userId", event.UserID)
	setAttr(attrs, "statusId", event.StatusID)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish order event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
