package store

import (
	"context"
	"fmt"
	"time"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// ShopList stores the entries of the active shopping list.
type ShopList struct {
	entries *Collection[model.ShopListItem]
	now     func() time.Time
}

// Collection exposes the underlying persisted collection.
func (l *ShopList) Collection() *Collection[model.ShopListItem] {
	return l.entries
}

// AddItem puts a copy of fields on the list as a new, not completed entry.
func (l *ShopList) AddItem(ctx context.Context, fields model.ItemFields) (*model.ShopListItem, error) {
	now := l.now()
	entry := model.ShopListItem{
		Item: model.Item{
			ID:           generateID(now),
			Name:         fields.Name,
			ImagePath:    fields.ImagePath,
			Quantity:     fields.Quantity,
			QuantityType: fields.QuantityType,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		Completed: false,
	}
	if err := l.entries.Append(ctx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns all entries in insertion order.
func (l *ShopList) List(ctx context.Context) ([]model.ShopListItem, error) {
	return l.entries.GetAll(ctx)
}

// Get returns the entry with the given id, or ErrNotFound.
func (l *ShopList) Get(ctx context.Context, id string) (*model.ShopListItem, error) {
	entry, err := l.entries.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Update applies patch to the entry and refreshes its updatedAt.
func (l *ShopList) Update(ctx context.Context, id string, patch model.ListItemPatch) (*model.ShopListItem, error) {
	entry, err := l.entries.Update(ctx, id, func(e *model.ShopListItem) {
		patch.Apply(e)
		e.UpdatedAt = nextTimestamp(l.now(), e.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ToggleComplete flips the completed flag of the entry.
func (l *ShopList) ToggleComplete(ctx context.Context, id string) (*model.ShopListItem, error) {
	entry, err := l.entries.Update(ctx, id, func(e *model.ShopListItem) {
		e.Completed = !e.Completed
		e.UpdatedAt = nextTimestamp(l.now(), e.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete removes the entry and returns it. Deleting an unknown id is not an
// error and returns nil.
func (l *ShopList) Delete(ctx context.Context, id string) (*model.ShopListItem, error) {
	return l.entries.Remove(ctx, id)
}

// ClearAll deletes every entry one at a time. The first failure stops the
// loop; entries removed before it stay removed. The removed entries are
// returned in both cases.
func (l *ShopList) ClearAll(ctx context.Context) ([]model.ShopListItem, error) {
	entries, err := l.entries.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	removed := make([]model.ShopListItem, 0, len(entries))
	for _, e := range entries {
		gone, err := l.Delete(ctx, e.ID)
		if err != nil {
			return removed, fmt.Errorf("clearing list after %d of %d entries: %w", len(removed), len(entries), err)
		}
		if gone != nil {
			removed = append(removed, *gone)
		}
	}
	return removed, nil
}
