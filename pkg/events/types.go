// Package events defines the dispatch event type and publisher interfaces.
package events

// DispatchedEvent is emitted after a dispatch settles.
type DispatchedEvent struct {
	Type          string `json:"type"`
	CorrelationID string `json:"correlationId,omitempty"`
	Ok            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"durationMs"`
	Timestamp     string `json:"timestamp"`
}
