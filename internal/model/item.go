package model

import (
	"strings"
	"time"
)

// Item is a catalog entry: a reusable grocery product with a suggested
// quantity and unit.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ImagePath    string    `json:"imagePath,omitempty"`
	Quantity     float64   `json:"quantity"`
	QuantityType string    `json:"quantityType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ShopListItem is an entry on the shopping list. It is a copy of the catalog
// item taken when the entry was added, not a reference to it.
type ShopListItem struct {
	Item
	Completed bool `json:"completed"`
}

// Quantity bounds and defaults.
const (
	MinQuantity         = 0.01
	MaxQuantity         = 99.99
	DefaultQuantity     = 1
	DefaultQuantityType = "Pieces"
	MaxNameLength       = 255
)

// QuantityTypes lists the suggested unit labels. Stored units are free-form.
var QuantityTypes = []string{
	"Kg", "Liters", "Rupees", "Packets", "Pieces", "Grams", "Units", "Dozens", "Boxes",
}

// ItemFields holds the caller-supplied fields of a new item or list entry.
type ItemFields struct {
	Name         string  `json:"name"`
	ImagePath    string  `json:"imagePath,omitempty"`
	Quantity     float64 `json:"quantity"`
	QuantityType string  `json:"quantityType"`
}

// Fields returns the caller-editable fields of the item.
func (i Item) Fields() ItemFields {
	return ItemFields{
		Name:         i.Name,
		ImagePath:    i.ImagePath,
		Quantity:     i.Quantity,
		QuantityType: i.QuantityType,
	}
}

// Trimmed returns the fields with surrounding whitespace removed from the
// name and unit.
func (f ItemFields) Trimmed() ItemFields {
	f.Name = strings.TrimSpace(f.Name)
	f.QuantityType = strings.TrimSpace(f.QuantityType)
	return f
}

// Validate checks the fields against the name and quantity rules.
func (f ItemFields) Validate() error {
	if err := validateName(f.Name); err != nil {
		return err
	}
	if err := validateQuantity(f.Quantity); err != nil {
		return err
	}
	return validateQuantityType(f.QuantityType)
}

// ItemPatch lists the item fields an update may change. Nil fields are left as is.
// An empty ImagePath clears the image reference.
type ItemPatch struct {
	Name         *string  `json:"name,omitempty"`
	ImagePath    *string  `json:"imagePath,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	QuantityType *string  `json:"quantityType,omitempty"`
}

// Trimmed returns the patch with surrounding whitespace removed from the
// name and unit, if present.
func (p ItemPatch) Trimmed() ItemPatch {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	if p.QuantityType != nil {
		unit := strings.TrimSpace(*p.QuantityType)
		p.QuantityType = &unit
	}
	return p
}

// Validate checks the fields that are present.
func (p ItemPatch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Quantity != nil {
		if err := validateQuantity(*p.Quantity); err != nil {
			return err
		}
	}
	if p.QuantityType != nil {
		return validateQuantityType(*p.QuantityType)
	}
	return nil
}

// Apply copies the present fields onto item. Timestamps are not touched.
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.ImagePath != nil {
		item.ImagePath = *p.ImagePath
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
	}
	if p.QuantityType != nil {
		item.QuantityType = *p.QuantityType
	}
}

// ListItemPatch is an ItemPatch for shopping-list entries, which may also
// change the completed flag.
type ListItemPatch struct {
	ItemPatch
	Completed *bool `json:"completed,omitempty"`
}

// Apply copies the present fields onto entry.
func (p ListItemPatch) Apply(entry *ShopListItem) {
	p.ItemPatch.Apply(&entry.Item)
	if p.Completed != nil {
		entry.Completed = *p.Completed
	}
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: "cannot exceed 255 characters"}
	}
	return nil
}

func validateQuantity(q float64) error {
	if !(q >= MinQuantity && q <= MaxQuantity) {
		return &ValidationError{Field: "quantity", Message: "must be between 0.01 and 99.99"}
	}
	return nil
}

func validateQuantityType(unit string) error {
	if strings.TrimSpace(unit) == "" {
		return &ValidationError{Field: "quantityType", Message: "cannot be empty"}
	}
	return nil
}
