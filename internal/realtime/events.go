package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client -> hub event names.
const (
	EventJoinProject     = "join:project"
	EventPresenceUpdate  = "presence:update"
	EventCardMove        = "card:move"
	EventCardUpdate      = "card:update"
	EventListUpdate      = "list:update"
	EventChecklistUpdate = "checklist:update"
)

// Hub -> client event names.
const (
	EventRoomUsers        = "room:users"
	EventJoinSuccess      = "join:success"
	EventUserJoined       = "user:joined"
	EventUserLeft         = "user:left"
	EventUserPresence     = "user:presence"
	EventCardMoved        = "card:moved"
	EventCardUpdated      = "card:updated"
	EventListUpdated      = "list:updated"
	EventChecklistUpdated = "checklist:updated"
	EventError            = "error"
)

// Presence is a participant's live state within a room.
type Presence string

const (
	PresenceViewing Presence = "viewing"
	PresenceEditing Presence = "editing"
)

// Envelope frames every message on the wire: an event name plus a
// JSON payload. The transport preserves per-connection send order, which
// is the only ordering the protocol relies on.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload in an Envelope for the given event.
func NewEnvelope(event string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("realtime.NewEnvelope: %s: %w", event, err)
	}
	return &Envelope{Event: event, Data: data}, nil
}

// Actor identifies the participant that caused a broadcast mutation.
type Actor struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// JoinProject is the join handshake payload.
type JoinProject struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
}

// PresenceUpdate mutates the sender's presence fields.
type PresenceUpdate struct {
	ProjectID   string   `json:"projectId"`
	Presence    Presence `json:"presence"`
	EditingCard string   `json:"editingCard,omitempty"`
}

// CardMove describes a card drag between lists.
type CardMove struct {
	ProjectID         string `json:"projectId"`
	CardID            string `json:"cardId"`
	SourceListID      string `json:"sourceListId"`
	DestinationListID string `json:"destinationListId"`
	Position          int    `json:"position"`
}

// CardUpdate carries a field delta for a card.
type CardUpdate struct {
	ProjectID string         `json:"projectId"`
	CardID    string         `json:"cardId"`
	Updates   map[string]any `json:"updates"`
}

// ListUpdate carries a field delta for a list.
type ListUpdate struct {
	ProjectID string         `json:"projectId"`
	ListID    string         `json:"listId"`
	Updates   map[string]any `json:"updates"`
}

// ChecklistUpdate carries a field delta for a checklist on a card.
type ChecklistUpdate struct {
	ProjectID   string         `json:"projectId"`
	ChecklistID string         `json:"checklistId"`
	CardID      string         `json:"cardId"`
	Updates     map[string]any `json:"updates"`
}

// RoomUser is one roster entry.
type RoomUser struct {
	UserID      string   `json:"userId"`
	UserName    string   `json:"userName"`
	Presence    Presence `json:"presence"`
	EditingCard string   `json:"editingCard,omitempty"`
}

// RoomUsers is the full roster snapshot sent to a joining participant,
// excluding the participant itself.
type RoomUsers struct {
	ProjectID string     `json:"projectId"`
	Users     []RoomUser `json:"users"`
}

// JoinSuccess acknowledges a completed join handshake.
type JoinSuccess struct {
	ProjectID string `json:"projectId"`
}

// UserJoined announces a new participant to the rest of the room.
type UserJoined struct {
	ProjectID string    `json:"projectId"`
	User      RoomUser  `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// UserLeft announces a departed participant.
type UserLeft struct {
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// UserPresence announces a participant's presence change.
type UserPresence struct {
	ProjectID   string    `json:"projectId"`
	UserID      string    `json:"userId"`
	Presence    Presence  `json:"presence"`
	EditingCard string    `json:"editingCard,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// CardMoved is the broadcast form of CardMove with actor attribution.
type CardMoved struct {
	CardMove
	MovedBy   Actor     `json:"movedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// CardUpdated is the broadcast form of CardUpdate with actor attribution.
type CardUpdated struct {
	CardUpdate
	UpdatedBy Actor     `json:"updatedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// ListUpdated is the broadcast form of ListUpdate with actor attribution.
type ListUpdated struct {
	ListUpdate
	UpdatedBy Actor     `json:"updatedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// ChecklistUpdated is the broadcast form of ChecklistUpdate with actor attribution.
type ChecklistUpdated struct {
	ChecklistUpdate
	UpdatedBy Actor     `json:"updatedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent reports a malformed request back to the offending connection only.
type ErrorEvent struct {
	Message string `json:"message"`
}
