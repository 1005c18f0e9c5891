package store

import (
	"context"
	"strings"
	"time"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// Catalog stores the reusable grocery item definitions.
type Catalog struct {
	items *Collection[model.Item]
	now   func() time.Time
}

// Collection exposes the underlying persisted collection.
func (c *Catalog) Collection() *Collection[model.Item] {
	return c.items
}

// Create stores a new item with a generated id and returns it.
func (c *Catalog) Create(ctx context.Context, fields model.ItemFields) (*model.Item, error) {
	now := c.now()
	item := model.Item{
		ID:           generateID(now),
		Name:         fields.Name,
		ImagePath:    fields.ImagePath,
		Quantity:     fields.Quantity,
		QuantityType: fields.QuantityType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.items.Append(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns all items in insertion order.
func (c *Catalog) List(ctx context.Context) ([]model.Item, error) {
	return c.items.GetAll(ctx)
}

// Get returns the item with the given id, or ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (*model.Item, error) {
	item, err := c.items.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies patch to the item and refreshes its updatedAt.
func (c *Catalog) Update(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	item, err := c.items.Update(ctx, id, func(it *model.Item) {
		patch.Apply(it)
		it.UpdatedAt = nextTimestamp(c.now(), it.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes the item and returns it. Deleting an unknown id is not an
// error and returns nil.
func (c *Catalog) Delete(ctx context.Context, id string) (*model.Item, error) {
	return c.items.Remove(ctx, id)
}

// Search returns the items whose name contains query, ignoring case.
func (c *Catalog) Search(ctx context.Context, query string) ([]model.Item, error) {
	items, err := c.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	matches := []model.Item{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), query) {
			matches = append(matches, item)
		}
	}
	return matches, nil
}
