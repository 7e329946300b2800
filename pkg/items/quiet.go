package items

import "context"

// Quiet wraps a Client for callers that only want a result: failures are
// logged and reported as a nil result (or false for deletes) instead of an
// error. Use Client when a failure must be told apart from an empty result.
type Quiet struct {
	client *Client
	log    Logger
}

// NewQuiet wraps client. Failures are reported to log at error level.
func NewQuiet(client *Client, log Logger) *Quiet {
	return &Quiet{client: client, log: ensureLogger(log)}
}

// ListItems returns the items, or nil if the request failed.
func (q *Quiet) ListItems(ctx context.Context) []Item {
	out, err := q.client.ListItems(ctx)
	if err != nil {
		q.report("could not get items", "", err)
		return nil
	}
	return out
}

// GetItem returns the item, or nil if it could not be fetched.
func (q *Quiet) GetItem(ctx context.Context, id string) *Item {
	item, err := q.client.GetItem(ctx, id)
	if err != nil {
		q.report("could not get item", id, err)
		return nil
	}
	return &item
}

// CreateItem returns the created item, or nil if the request failed.
func (q *Quiet) CreateItem(ctx context.Context, item Item) *Item {
	created, err := q.client.CreateItem(ctx, item)
	if err != nil {
		q.report("could not create item", "", err)
		return nil
	}
	return &created
}

// UpdateItem returns the updated item, or nil if the request failed.
func (q *Quiet) UpdateItem(ctx context.Context, id string, item Item) *Item {
	updated, err := q.client.UpdateItem(ctx, id, item)
	if err != nil {
		q.report("could not update item", id, err)
		return nil
	}
	return &updated
}

// DeleteItem reports whether the item was deleted.
func (q *Quiet) DeleteItem(ctx context.Context, id string) bool {
	if err := q.client.DeleteItem(ctx, id); err != nil {
		q.report("could not delete item", id, err)
		return false
	}
	return true
}

func (q *Quiet) report(msg, id string, err error) {
	fields := map[string]any{
		"outcome": Classify(err).String(),
		"error":   err.Error(),
	}
	if id != "" {
		fields["item_id"] = id
	}
	if status, ok := StatusCode(err); ok {
		fields["status"] = status
	}
	q.log.ErrorObj(msg, "items_error", fields)
}
