package publishers

import (
	"time"

	"github.com/samvad-hq/marketplace-items/internal/domain"
	"github.com/samvad-hq/marketplace-items/pkg/items"
)

// Event represents the payload published downstream.
type Event struct {
	Source     string        `json:"source"`
	Action     domain.Action `json:"action"`
	ItemID     string        `json:"item_id"`
	Item       *items.Item   `json:"item,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewEvent constructs an Event for a change made against the API at source.
func NewEvent(source string, change domain.Change) Event {
	occurred := change.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	return Event{
		Source:     source,
		Action:     change.Action,
		ItemID:     change.ItemID,
		Item:       change.Item,
		OccurredAt: occurred,
	}
}

// attributes are the routing attributes attached by message brokers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"action":  string(e.Action),
		"item_id": e.ItemID,
	}
}
