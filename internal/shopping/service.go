// Package shopping combines the catalog, the shopping list and the media
// directory so that every stored image stays owned by exactly one record.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/swamy3697/Shop-Mate/internal/media"
	"github.com/swamy3697/Shop-Mate/internal/model"
	"github.com/swamy3697/Shop-Mate/internal/search"
	"github.com/swamy3697/Shop-Mate/internal/store"
)

var errManagedImage = &model.ValidationError{Field: "imagePath", Message: "is set through the image operations"}

// Service runs catalog and list operations together with their image
// bookkeeping. Input is validated here; the store layer trusts its callers.
type Service struct {
	store   *store.Store
	catalog *store.Catalog
	list    *store.ShopList
	media   *media.Manager
}

// New returns a Service over st storing images with m.
func New(st *store.Store, m *media.Manager) *Service {
	return &Service{
		store:   st,
		catalog: st.Catalog(),
		list:    st.ShopList(),
		media:   m,
	}
}

// Media returns the image manager.
func (s *Service) Media() *media.Manager {
	return s.media
}

// Items returns the catalog in insertion order.
func (s *Service) Items(ctx context.Context) ([]model.Item, error) {
	return s.catalog.List(ctx)
}

// Item returns one catalog item.
func (s *Service) Item(ctx context.Context, id string) (*model.Item, error) {
	return s.catalog.Get(ctx, id)
}

// Search filters the catalog with the exact, partial, offer-create policy.
func (s *Service) Search(ctx context.Context, query string) (search.Result, error) {
	items, err := s.catalog.List(ctx)
	if err != nil {
		return search.Result{}, err
	}
	return search.Filter(items, query), nil
}

// NewSearchSession returns a search session over the catalog that adds
// created items to the shopping list on request.
func (s *Service) NewSearchSession() *search.Session {
	return search.NewSession(s.catalog, s.list)
}

// CreateItem validates fields and stores a new catalog item. When image is
// not nil it is saved as the item's photo first.
func (s *Service) CreateItem(ctx context.Context, fields model.ItemFields, image io.Reader) (*model.Item, error) {
	if fields.ImagePath != "" {
		return nil, errManagedImage
	}
	fields = fields.Trimmed()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	if image != nil {
		path, err := s.media.SaveImageFrom(ctx, image)
		if err != nil {
			return nil, err
		}
		fields.ImagePath = path
	}

	item, err := s.catalog.Create(ctx, fields)
	if err != nil {
		s.discardImage(ctx, fields.ImagePath)
		return nil, err
	}
	return item, nil
}

// UpdateItem applies patch to a catalog item. Photos change only through
// SetItemImage and ClearItemImage.
func (s *Service) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if patch.ImagePath != nil {
		return nil, errManagedImage
	}
	patch = patch.Trimmed()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.catalog.Update(ctx, id, patch)
}

// DeleteItem removes a catalog item and then its photo. Deleting an unknown
// id returns nil and no error.
func (s *Service) DeleteItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := s.catalog.Delete(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	s.discardImage(ctx, item.ImagePath)
	return item, nil
}

// SetItemImage stores the image read from r as the item's photo and deletes
// the photo it replaces.
func (s *Service) SetItemImage(ctx context.Context, id string, r io.Reader) (*model.Item, error) {
	current, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := s.media.SaveImageFrom(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.attachImage(ctx, current, path)
}

// PickItemImage lets the user choose a photo with p and attaches it to the
// item. When the user cancels the item is returned unchanged.
func (s *Service) PickItemImage(ctx context.Context, id string, p media.Picker, useCamera bool) (*model.Item, error) {
	current, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := s.media.PickAndSave(ctx, p, useCamera)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return current, nil
	}
	return s.attachImage(ctx, current, path)
}

// attachImage points the item at a freshly saved image and deletes the one
// it replaces.
func (s *Service) attachImage(ctx context.Context, current *model.Item, path string) (*model.Item, error) {
	item, err := s.catalog.Update(ctx, current.ID, model.ItemPatch{ImagePath: &path})
	if err != nil {
		s.discardImage(ctx, path)
		return nil, err
	}
	if current.ImagePath != "" && current.ImagePath != path {
		s.discardImage(ctx, current.ImagePath)
	}
	return item, nil
}

// ClearItemImage removes the item's photo reference and then the file.
func (s *Service) ClearItemImage(ctx context.Context, id string) (*model.Item, error) {
	current, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.ImagePath == "" {
		return current, nil
	}

	none := ""
	item, err := s.catalog.Update(ctx, id, model.ItemPatch{ImagePath: &none})
	if err != nil {
		return nil, err
	}
	s.discardImage(ctx, current.ImagePath)
	return item, nil
}

// List returns the shopping list in insertion order.
func (s *Service) List(ctx context.Context) ([]model.ShopListItem, error) {
	return s.list.List(ctx)
}

// AddFromCatalog puts a copy of the catalog item on the shopping list. The
// patch may adjust quantity, unit or name for this entry only. A catalog
// photo is duplicated so the entry owns its own file.
func (s *Service) AddFromCatalog(ctx context.Context, id string, patch model.ItemPatch) (*model.ShopListItem, error) {
	if patch.ImagePath != nil {
		return nil, errManagedImage
	}
	patch = patch.Trimmed()
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	item, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(item)
	fields := item.Fields()

	if fields.ImagePath != "" {
		dup, err := s.media.CopyImage(ctx, fields.ImagePath)
		if err != nil {
			slog.Warn("failed to copy item image for list entry", "item", id, "error", err)
			dup = ""
		}
		fields.ImagePath = dup
	}

	entry, err := s.list.AddItem(ctx, fields)
	if err != nil {
		s.discardImage(ctx, fields.ImagePath)
		return nil, err
	}
	return entry, nil
}

// AddToList validates fields and puts a new entry on the shopping list
// without touching the catalog.
func (s *Service) AddToList(ctx context.Context, fields model.ItemFields) (*model.ShopListItem, error) {
	if fields.ImagePath != "" {
		return nil, errManagedImage
	}
	fields = fields.Trimmed()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return s.list.AddItem(ctx, fields)
}

// UpdateListEntry applies patch to a shopping-list entry.
func (s *Service) UpdateListEntry(ctx context.Context, id string, patch model.ListItemPatch) (*model.ShopListItem, error) {
	if patch.ImagePath != nil {
		return nil, errManagedImage
	}
	patch.ItemPatch = patch.ItemPatch.Trimmed()
	if err := patch.ItemPatch.Validate(); err != nil {
		return nil, err
	}
	return s.list.Update(ctx, id, patch)
}

// ToggleListEntry flips the completed flag of an entry.
func (s *Service) ToggleListEntry(ctx context.Context, id string) (*model.ShopListItem, error) {
	return s.list.ToggleComplete(ctx, id)
}

// DeleteListEntry removes an entry and then its photo.
func (s *Service) DeleteListEntry(ctx context.Context, id string) (*model.ShopListItem, error) {
	entry, err := s.list.Delete(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	s.discardImage(ctx, entry.ImagePath)
	return entry, nil
}

// ClearList removes every entry, then the photos of the removed entries. On
// a partial failure the photos of the entries already removed are deleted
// and the error is returned.
func (s *Service) ClearList(ctx context.Context) ([]model.ShopListItem, error) {
	removed, err := s.list.ClearAll(ctx)
	for _, e := range removed {
		s.discardImage(ctx, e.ImagePath)
	}
	return removed, err
}

// ResetAll deletes the catalog, the shopping list and every stored image.
func (s *Service) ResetAll(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	if err := s.media.Purge(ctx); err != nil {
		return fmt.Errorf("data cleared but images remain: %w", err)
	}
	return nil
}

// discardImage deletes an image the records no longer reference. Failures
// leave an orphaned file behind and are only logged.
func (s *Service) discardImage(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.media.DeleteImage(ctx, path); err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, media.ErrNotOwned) {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "failed to delete image", "path", path, "error", err)
	}
}
