package events

import (
	"context"
	"testing"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishDispatched(context.Background(), &DispatchedEvent{
		Type: "ping",
		Ok:   true,
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *DispatchedEvent

	pub := NewCallbackPublisher(func(_ context.Context, event *DispatchedEvent) error {
		captured = event
		return nil
	})

	event := &DispatchedEvent{
		Type:          "ping",
		CorrelationID: "c-1",
		Ok:            false,
		Error:         "Unknown msg.type: ping",
		DurationMs:    3,
		Timestamp:     "2025-01-01T00:00:00Z",
	}

	err := pub.PublishDispatched(context.Background(), event)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if captured == nil {
		t.Fatal("expected callback to be called")
	}
	if captured.Type != "ping" {
		t.Errorf("expected type ping, got %s", captured.Type)
	}
	if captured.CorrelationID != "c-1" {
		t.Errorf("expected correlation c-1, got %s", captured.CorrelationID)
	}
	if captured.Ok {
		t.Error("expected ok=false")
	}
}
