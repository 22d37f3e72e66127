package events

import "context"

// Publisher is the interface for publishing dispatch events.
type Publisher interface {
	PublishDispatched(ctx context.Context, event *DispatchedEvent) error
}

// NoOpPublisher is a Publisher that does nothing (for in-process usage
// without events).
type NoOpPublisher struct{}

// PublishDispatched is a no-op.
func (p *NoOpPublisher) PublishDispatched(_ context.Context, _ *DispatchedEvent) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for
// testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *DispatchedEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *DispatchedEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishDispatched calls the callback.
func (p *CallbackPublisher) PublishDispatched(ctx context.Context, event *DispatchedEvent) error {
	return p.callback(ctx, event)
}
