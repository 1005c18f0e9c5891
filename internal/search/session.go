package search

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// ErrNoCreateOffer is returned when a new item is requested while the current
// result does not offer one, e.g. because an identical item already exists.
var ErrNoCreateOffer = errors.New("query does not offer a new item")

// Catalog is the part of the catalog store a Session needs.
type Catalog interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, fields model.ItemFields) (*model.Item, error)
}

// ListAdder puts items on the shopping list.
type ListAdder interface {
	AddItem(ctx context.Context, fields model.ItemFields) (*model.ShopListItem, error)
}

// Session holds an in-memory copy of the catalog for repeated queries.
// Items created through the session are appended locally without reloading;
// the next Load reconciles with the store.
type Session struct {
	catalog Catalog
	list    ListAdder

	items  []model.Item
	result Result
}

// NewSession returns a session over catalog. list may be nil when created
// items never go on the shopping list.
func NewSession(catalog Catalog, list ListAdder) *Session {
	return &Session{catalog: catalog, list: list}
}

// Load replaces the in-memory catalog with the stored one and resets the query.
func (s *Session) Load(ctx context.Context) error {
	items, err := s.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	s.items = items
	s.result = Filter(s.items, "")
	return nil
}

// Items returns the in-memory catalog.
func (s *Session) Items() []model.Item {
	return s.items
}

// Result returns the result of the last query.
func (s *Session) Result() Result {
	return s.result
}

// Query filters the in-memory catalog.
func (s *Session) Query(query string) Result {
	s.result = Filter(s.items, query)
	return s.result
}

// Create stores fields as a new catalog item and, if addToList is set, puts
// it on the shopping list as well. The item is appended to the catalog and
// the current result, and the create offer is withdrawn.
//
// When the list add fails the created item is still returned with the error.
func (s *Session) Create(ctx context.Context, fields model.ItemFields, addToList bool) (*model.Item, *model.ShopListItem, error) {
	if !s.result.OfferCreate {
		return nil, nil, ErrNoCreateOffer
	}

	item, err := s.catalog.Create(ctx, fields.Trimmed())
	if err != nil {
		return nil, nil, fmt.Errorf("creating item: %w", err)
	}

	s.items = append(s.items, *item)
	s.result.Items = append(s.result.Items, *item)
	s.result.OfferCreate = false
	s.result.Candidate = nil

	if !addToList || s.list == nil {
		return item, nil, nil
	}

	entry, err := s.list.AddItem(ctx, item.Fields())
	if err != nil {
		return item, nil, fmt.Errorf("adding %q to list: %w", item.Name, err)
	}
	return item, entry, nil
}

// Remove drops the item from the in-memory catalog and the current result.
func (s *Session) Remove(id string) {
	match := func(it model.Item) bool { return it.ID == id }
	s.items = slices.DeleteFunc(s.items, match)
	s.result.Items = slices.DeleteFunc(s.result.Items, match)
}
