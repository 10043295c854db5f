package realtime

import (
	"encoding/json"
	"time"
)

type Operation string

const (
	OpCreate Operation = "CREATE"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

func (o Operation) Valid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

const (
	EntityItems      = "ITEMS"
	EntityCategories = "CATEGORIES"
)

// ChangeEvent is the message pushed to subscribers after a successful mutation.
// Its JSON shape is a stable contract for clients.
type ChangeEvent struct {
	Entity    string    `json:"entity"`
	Type      Operation `json:"type"`
	Data      any       `json:"data"`
	CreatedAt string    `json:"createdAt"`
}

func NewChangeEvent(entity string, op Operation, data any, at time.Time) ChangeEvent {
	return ChangeEvent{
		Entity:    entity,
		Type:      op,
		Data:      data,
		CreatedAt: at.UTC().Format(time.RFC3339Nano),
	}
}

func (e ChangeEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
