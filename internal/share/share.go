// Package share renders the shopping list for people: plain text, a PDF
// table and the system clipboard.
package share

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/swamy3697/Shop-Mate/internal/model"
)

// Title heads shared documents.
const Title = "Shopping List"

// ErrClipboardUnavailable is returned when the system has no clipboard
// utility to talk to.
var ErrClipboardUnavailable = errors.New("clipboard is not available on this system")

// Replaced in tests.
var (
	clipboardUnsupported = func() bool { return clipboard.Unsupported }
	writeClipboard       = clipboard.WriteAll
)

// Text renders one line per entry as "name quantity quantityType".
func Text(entries []model.ShopListItem) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Name + " " + Quantity(e.Item)
	}
	return strings.Join(lines, "\n")
}

// Quantity formats the quantity and unit of an item, e.g. "1.5 Kg".
func Quantity(item model.Item) string {
	return strconv.FormatFloat(item.Quantity, 'f', -1, 64) + " " + item.QuantityType
}

// WhatsAppURL returns a link that opens WhatsApp with text as the message.
// Spaces are encoded as %20 since WhatsApp keeps a literal '+'.
func WhatsAppURL(text string) string {
	return "whatsapp://send?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// CopyToClipboard puts the text rendering of entries on the system clipboard.
func CopyToClipboard(entries []model.ShopListItem) error {
	if clipboardUnsupported() {
		return ErrClipboardUnavailable
	}
	if err := writeClipboard(Text(entries)); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}
