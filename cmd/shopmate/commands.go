package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/swamy3697/Shop-Mate/internal/media"
	"github.com/swamy3697/Shop-Mate/internal/model"
	"github.com/swamy3697/Shop-Mate/internal/share"
)

const commonHelp = `
Common flags:
  -c, -config <path>      YAML config file
  -s, -storage <driver>   storage driver: sqlite, redis, memory (default: sqlite)
  -d, -db <path>          SQLite database path (default: shopmate.sqlite3)
  -m, -media <dir>        media directory (default: media)
  -l, -log <path>         log file path
`

func cmdList(args []string) int {
	var common commonFlags
	fs := newFlagSet("list", "Usage: shopmate list [flags]\n"+commonHelp, &common)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	a, done, code := startCommand(&common, false)
	if a == nil {
		return code
	}
	defer done()

	entries, err := a.service.List(context.Background())
	if err != nil {
		slog.Error("failed to load list", "error", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Println("The shopping list is empty.")
		return 0
	}
	for _, e := range entries {
		mark := " "
		if e.Completed {
			mark = "x"
		}
		fmt.Printf("[%s] %-40s %-14s %s\n", mark, e.Name, share.Quantity(e.Item), e.ID)
	}
	return 0
}

func cmdSearch(args []string) int {
	var common commonFlags
	fs := newFlagSet("search", "Usage: shopmate search [flags] <query>\n"+commonHelp, &common)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	a, done, code := startCommand(&common, false)
	if a == nil {
		return code
	}
	defer done()

	result, err := a.service.Search(context.Background(), strings.Join(fs.Args(), " "))
	if err != nil {
		slog.Error("failed to search catalog", "error", err)
		return 1
	}
	for _, item := range result.Items {
		fmt.Printf("%-40s %-14s %s\n", item.Name, share.Quantity(item), item.ID)
	}
	if result.OfferCreate {
		if len(result.Items) == 0 {
			fmt.Println("No items found.")
		}
		fmt.Printf("Create it with: shopmate add %q\n", result.Candidate.Name)
	}
	return 0
}

func cmdAdd(args []string) int {
	var common commonFlags
	fs := newFlagSet("add", `Usage: shopmate add [flags] <name>

Creates a catalog item named after the search query when no item has that
exact name.

Flags:
  -q, -quantity <n>       quantity (default: 1)
  -u, -unit <unit>        quantity type (default: Pieces)
  -list                   also put the item on the shopping list
`+commonHelp, &common)

	var quantity float64
	fs.Float64Var(&quantity, "quantity", model.DefaultQuantity, "")
	fs.Float64Var(&quantity, "q", model.DefaultQuantity, "")

	var unit string
	fs.StringVar(&unit, "unit", model.DefaultQuantityType, "")
	fs.StringVar(&unit, "u", model.DefaultQuantityType, "")

	var addToList bool
	fs.BoolVar(&addToList, "list", false, "")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(os.Stderr, "error: item name required")
		return 1
	}

	a, done, code := startCommand(&common, false)
	if a == nil {
		return code
	}
	defer done()

	ctx := context.Background()
	session := a.service.NewSearchSession()
	if err := session.Load(ctx); err != nil {
		slog.Error("failed to load catalog", "error", err)
		return 1
	}

	result := session.Query(query)
	if !result.OfferCreate {
		fmt.Fprintf(os.Stderr, "error: an item named %q already exists\n", strings.TrimSpace(query))
		return 1
	}

	fields := *result.Candidate
	fields.Quantity = quantity
	fields.QuantityType = unit
	if err := fields.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	item, entry, err := session.Create(ctx, fields, addToList)
	if item == nil {
		slog.Error("failed to create item", "error", err)
		return 1
	}
	fmt.Printf("Created %s (%s) %s\n", item.Name, share.Quantity(*item), item.ID)
	if err != nil {
		slog.Error("failed to add item to list", "error", err)
		return 1
	}
	if entry != nil {
		fmt.Printf("Added to the shopping list as %s\n", entry.ID)
	}
	return 0
}

func cmdToggle(args []string) int {
	var common commonFlags
	fs := newFlagSet("toggle", "Usage: shopmate toggle [flags] <entry-id>\n"+commonHelp, &common)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "error: exactly one entry id required")
		return 1
	}

	a, done, code := startCommand(&common, false)
	if a == nil {
		return code
	}
	defer done()

	entry, err := a.service.ToggleListEntry(context.Background(), fs.Arg(0))
	if err != nil {
		slog.Error("failed to toggle entry", "id", fs.Arg(0), "error", err)
		return 1
	}
	state := "not done"
	if entry.Completed {
		state = "done"
	}
	fmt.Printf("%s is %s\n", entry.Name, state)
	return 0
}

func cmdImage(args []string) int {
	var common commonFlags
	fs := newFlagSet("image", `Usage: shopmate image [flags] <item-id> [file]

Attaches the photo in file to a catalog item, replacing the previous one.
Without a file nothing changes.

Flags:
  -clear                  remove the item's photo
`+commonHelp, &common)

	var clearImage bool
	fs.BoolVar(&clearImage, "clear", false, "")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "error: item id and optional file required")
		return 1
	}

	a, done, code := startCommand(&common, false)
	if a == nil {
		return code
	}
	defer done()

	ctx := context.Background()
	id := fs.Arg(0)

	if clearImage {
		if _, err := a.service.ClearItemImage(ctx, id); err != nil {
			slog.Error("failed to clear image", "id", id, "error", err)
			return 1
		}
		fmt.Println("Photo removed.")
		return 0
	}

	item, err := a.service.PickItemImage(ctx, id, media.FilePicker{Path: fs.Arg(1)}, false)
	if errors.Is(err, media.ErrPermissionDenied) {
		fmt.Fprintf(os.Stderr, "error: cannot read %s\n", fs.Arg(1))
		return 1
	}
	if err != nil {
		slog.Error("failed to set image", "id", id, "error", err)
		return 1
	}
	if item.ImagePath == "" {
		fmt.Println("No photo selected.")
		return 0
	}
	fmt.Printf("Photo stored at %s\n", item.ImagePath)
	return 0
}

func cmdShare(args []string) int {
	var common commonFlags
	fs := newFlagSet("share", `Usage: shopmate share [flags]

Flags:
  -f, -format <format>    text, pdf, clipboard or whatsapp (default: text)
  -o, -out <path>         PDF output path (default: shopping-list.pdf)
`+commonHelp, &common)

	var format string
	fs.StringVar(&format, "format", "text", "")
	fs.StringVar(&format, "f", "text", "")

	var out string
	fs.StringVar(&out, "out", "shopping-list.pdf", "")
	fs.StringVar(&out, "o", "shopping-list.pdf", "")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	a, done, code := startCommand(&common, false)
	if a == nil {
		return code
	}
	defer done()

	entries, err := a.service.List(context.Background())
	if err != nil {
		slog.Error("failed to load list", "error", err)
		return 1
	}

	switch format {
	case "text":
		fmt.Println(share.Text(entries))
	case "whatsapp":
		fmt.Println(share.WhatsAppURL(share.Text(entries)))
	case "clipboard":
		if err := share.CopyToClipboard(entries); err != nil {
			slog.Error("failed to copy list", "error", err)
			return 1
		}
		fmt.Printf("Copied %d entries to the clipboard.\n", len(entries))
	case "pdf":
		if err := writePDF(out, entries, a.font); err != nil {
			slog.Error("failed to write pdf", "path", out, "error", err)
			return 1
		}
		fmt.Printf("Wrote %s\n", out)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown format %q\n", format)
		return 1
	}
	return 0
}

func writePDF(path string, entries []model.ShopListItem, font share.Font) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := share.PDF(f, entries, font); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func cmdReset(args []string) int {
	var common commonFlags
	fs := newFlagSet("reset", `Usage: shopmate reset [flags]

Deletes every catalog item, every list entry and every stored photo. The
account is kept.

Flags:
  -y, -yes                confirm the reset
`+commonHelp, &common)

	var yes bool
	fs.BoolVar(&yes, "yes", false, "")
	fs.BoolVar(&yes, "y", false, "")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if !yes {
		fmt.Fprintln(os.Stderr, "This deletes all items, the shopping list and all photos. Re-run with -yes to confirm.")
		return 1
	}

	a, done, code := startCommand(&common, false)
	if a == nil {
		return code
	}
	defer done()

	if err := a.service.ResetAll(context.Background()); err != nil {
		slog.Error("failed to reset data", "error", err)
		return 1
	}
	fmt.Println("All data cleared.")
	return 0
}
