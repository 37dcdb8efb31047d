package history

import (
	"context"
	"log/slog"
	"time"
)

// EventType defines the kind of launcher event.
type EventType string

const (
	EventServerStart     EventType = "server_start"
	EventServerStop      EventType = "server_stop"
	EventUpdateInstalled EventType = "update_installed"
	EventUpdateFailed    EventType = "update_failed"
)

// Event is one launcher event exported to a history backend.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	PID        int       `json:"pid,omitempty"`
	Version    string    `json:"version,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, pid int, version, message string) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC(), PID: pid, Version: version, Message: message}
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Emit sends e to sink if one is configured. Failures are logged and never
// propagated: history is advisory and must not fail a start, stop or update.
func Emit(ctx context.Context, sink Sink, e Event) {
	if sink == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := sink.Send(ctx, e); err != nil {
		slog.Warn("history sink send failed", "type", string(e.Type), "error", err)
	}
}
