package signal

import "time"

// Known source modules. The module field is an open string: unknown modules
// are accepted and weighted at 1.0.
const (
	ModuleFinance = "finance"
	ModuleGame    = "game"
	ModuleGurukul = "gurukul"
	ModuleInsight = "insight"
)

const (
	// EventTypeNormalizedState tags ledger records produced by normalization.
	EventTypeNormalizedState = "normalized_state"
	// StatusProcessed marks a ledger record as fully processed on write.
	StatusProcessed = "processed"
)

// NormalizeRequest is a single state normalization request.
type NormalizeRequest struct {
	Module     string         `json:"module"      binding:"required"`
	ActionType string         `json:"action_type" binding:"required"`
	RawValue   float64        `json:"raw_value"`
	Context    map[string]any `json:"context,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NormalizeBatchRequest carries an ordered sequence of normalization requests.
type NormalizeBatchRequest struct {
	States []NormalizeRequest `json:"states" binding:"required"`
}

// NormalizedState is the unified karmic signal produced from a raw event.
// Immutable once created; ownership passes to the karma ledger on persist.
type NormalizedState struct {
	StateID       string  `json:"state_id"`
	Module        string  `json:"module"`
	ActionType    string  `json:"action_type"`
	Weight        float64 `json:"weight"`
	FeedbackValue float64 `json:"feedback_value"`
	Timestamp     string  `json:"timestamp"`
}

// EventData is the denormalized payload stored with each ledger record.
type EventData struct {
	Module          string         `json:"module"`
	ActionType      string         `json:"action_type"`
	RawValue        float64        `json:"raw_value"`
	NormalizedValue float64        `json:"normalized_value"`
	Weight          float64        `json:"weight"`
	Context         map[string]any `json:"context,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// EventRecord is one append-only entry in the karma ledger. EventID always
// equals the StateID of the normalized state it wraps.
type EventRecord struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Data      EventData `json:"data"`
	Timestamp string    `json:"timestamp"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
