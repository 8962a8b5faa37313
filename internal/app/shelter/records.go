package shelter

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// UpdateResult reports how many records an Update matched and changed.
// Matched is always >= Modified.
type UpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// DeleteResult reports how many records a Delete removed.
type DeleteResult struct {
	Deleted int64 `json:"deleted"`
}

// Create inserts one record and reports whether the store assigned it an
// identifier. data must be non-empty.
func (c *Client) Create(ctx context.Context, data bson.M) (bool, error) {
	if len(data) == 0 {
		return false, invalidArgument("nothing to save, data is empty")
	}
	id, err := c.animals.Insert(ctx, data)
	if err != nil {
		return false, &StoreError{Op: "create", Err: err}
	}
	c.logger.Debug("animal record created", zap.Any("id", id))
	return id != nil, nil
}

// Read returns every record matching filter, in store-native order, with the
// identifier field still present. An empty (non-nil) filter matches all
// records; a nil filter is rejected. Callers that display records strip the
// identifier themselves (see recordview.StripIDs).
func (c *Client) Read(ctx context.Context, filter bson.M) ([]bson.M, error) {
	if filter == nil {
		return nil, invalidArgument("nothing to find, filter is absent")
	}
	docs, err := c.animals.Find(ctx, filter)
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	return docs, nil
}

// Update merges changes into every record matching filter. Fields not named
// in changes are left as they were. Both arguments must be non-empty.
func (c *Client) Update(ctx context.Context, filter, changes bson.M) (UpdateResult, error) {
	if len(filter) == 0 || len(changes) == 0 {
		return UpdateResult{}, invalidArgument("both filter and changes are required")
	}
	matched, modified, err := c.animals.SetMany(ctx, filter, changes)
	if err != nil {
		return UpdateResult{}, &StoreError{Op: "update", Err: err}
	}
	c.logger.Debug("animal records updated",
		zap.Int64("matched", matched),
		zap.Int64("modified", modified))
	return UpdateResult{Matched: matched, Modified: modified}, nil
}

// Delete removes every record matching filter. filter must be non-empty.
func (c *Client) Delete(ctx context.Context, filter bson.M) (DeleteResult, error) {
	if len(filter) == 0 {
		return DeleteResult{}, invalidArgument("nothing to delete, filter is empty")
	}
	n, err := c.animals.DeleteMany(ctx, filter)
	if err != nil {
		return DeleteResult{}, &StoreError{Op: "delete", Err: err}
	}
	c.logger.Debug("animal records deleted", zap.Int64("deleted", n))
	return DeleteResult{Deleted: n}, nil
}
