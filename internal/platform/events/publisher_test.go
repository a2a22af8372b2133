package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPubSubOrderPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubOrderPublisher(topic,
		WithStaticAttributes(map[string]string{"source": " dulceria-api ", "": "dropped"}),
	)
	if err != nil {
		t.Fatalf("NewPubSubOrderPublisher: %v", err)
	}

	occurredAt := time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC)
	event := OrderEvent{
		Event:      EventOrderStatusChanged,
		OrderID:    "ord_test",
		UserID:     "usr_test",
		StatusID:   "sts_ordered",
		Status:     "ordered",
		OccurredAt: occurredAt,
	}

	if _, err := publisher.PublishOrderEvent(ctx, event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload OrderEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != event.OrderID || payload.Event != event.Event {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["statusId"]; attr != "sts_ordered" {
		t.Fatalf("expected status attribute, got %q", attr)
	}
	if attr := messages[0].Attributes["source"]; attr != "dulceria-api" {
		t.Fatalf("expected normalized source attribute, got %q", attr)
	}
}

func TestPubSubOrderPublisherRejectsMissingEvent(t *testing.T) {
	publisher := &PubSubOrderPublisher{topic: &pubsub.Topic{}, marshal: json.Marshal}
	if _, err := publisher.PublishOrderEvent(context.Background(), OrderEvent{OrderID: "ord_1"}); err == nil {
		t.Fatal("expected error for missing event name")
	}
}
