package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// History entry actions that are not named after a target status.
const (
	ActionSubmitted  = "submitted"
	ActionCreated    = "created"
	ActionAssigned   = "assigned"
	ActionPostLinked = "post_linked"
)

// HistoryEntry is one immutable audit record. Entries are only ever appended
// to a record's history column, in commit order.
type HistoryEntry struct {
	Action    string    `json:"action"`
	ActorID   uuid.UUID `json:"actor_id"`
	Role      Role      `json:"role"`
	From      Status    `json:"from,omitempty"`
	To        Status    `json:"to,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHistory builds the initial history column for a freshly created record.
func NewHistory(action string, actorID uuid.UUID, role Role, now time.Time) datatypes.JSON {
	raw, _ := json.Marshal([]HistoryEntry{{
		Action:    action,
		ActorID:   actorID,
		Role:      role,
		Timestamp: now,
	}})
	return datatypes.JSON(raw)
}

// DecodeHistory parses a record's history column. An empty column decodes to
// an empty slice.
func DecodeHistory(raw datatypes.JSON) ([]HistoryEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

// AppendHistory returns a new history column with entry appended. The input
// column is never modified.
func AppendHistory(raw datatypes.JSON, entry HistoryEntry) (datatypes.JSON, error) {
	entries, err := DecodeHistory(raw)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)
	out, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return datatypes.JSON(out), nil
}
