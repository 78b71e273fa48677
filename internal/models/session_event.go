package models

import "time"

// Session event types.
const (
	EventStart      = "START"
	EventStop       = "STOP"
	EventRestart    = "RESTART"
	EventClear      = "CLEAR"
	EventFetchError = "FETCH_ERROR"
)

// SessionEvent is one entry of the live simulation history.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// RecordedSample is an accepted sample as stored in the history.
type RecordedSample struct {
	SessionID  string           `json:"session_id"`
	RecordedAt time.Time        `json:"recorded_at"`
	Sample     SimulationSample `json:"sample"`
}
