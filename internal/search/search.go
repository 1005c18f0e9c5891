// Package search filters the catalog for the search screen and decides when a
// new item may be created from the query.
package search

import (
	"strings"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// Result is the outcome of filtering the catalog with a query.
type Result struct {
	Query       string            `json:"query"`
	Items       []model.Item      `json:"items"`
	OfferCreate bool              `json:"offerCreate"`
	Candidate   *model.ItemFields `json:"candidate,omitempty"`
}

// Filter matches query against the item names.
//
// A blank query returns the whole catalog. Otherwise exact name matches
// (ignoring case) win and suppress the create offer; without an exact match
// the substring matches are returned, possibly none, together with a
// candidate item named after the query.
func Filter(items []model.Item, query string) Result {
	trimmed := strings.TrimSpace(query)
	needle := strings.ToLower(trimmed)

	if needle == "" {
		return Result{Query: query, Items: append([]model.Item{}, items...)}
	}

	exact := []model.Item{}
	for _, item := range items {
		if strings.ToLower(item.Name) == needle {
			exact = append(exact, item)
		}
	}
	if len(exact) > 0 {
		return Result{Query: query, Items: exact}
	}

	partial := []model.Item{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) {
			partial = append(partial, item)
		}
	}

	return Result{
		Query:       query,
		Items:       partial,
		OfferCreate: true,
		Candidate: &model.ItemFields{
			Name:         trimmed,
			Quantity:     model.DefaultQuantity,
			QuantityType: model.DefaultQuantityType,
		},
	}
}
