package domain

import (
	"time"

	"github.com/samvad-hq/marketplace-items/pkg/items"
)

// Action names a successful item mutation.
type Action string

const (
	ActionCreated Action = "item.created"
	ActionUpdated Action = "item.updated"
	ActionDeleted Action = "item.deleted"
)

// Change records a successful mutation of a remote item. Item is nil for deletes.
type Change struct {
	Action     Action      `json:"action"`
	ItemID     string      `json:"item_id"`
	Item       *items.Item `json:"item,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewChange stamps a Change with the current UTC time.
func NewChange(action Action, id string, item *items.Item) Change {
	return Change{
		Action:     action,
		ItemID:     id,
		Item:       item,
		OccurredAt: time.Now().UTC(),
	}
}
