package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/swamy3697/Shop-Mate/internal/kv"
	"github.com/swamy3697/Shop-Mate/internal/model"
)

func TestGetAllAbsentKeyIsEmpty(t *testing.T) {
	s := New(kv.NewMemory())

	items, err := s.Catalog().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", items)
	}
}

func TestGetAllMalformedValueFails(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	mem.Set(ctx, ItemsKey, `[{"id": "1", "name": `)

	_, err := New(mem).Catalog().List(ctx)
	if !errors.Is(err, ErrStorageRead) {
		t.Fatalf("expected ErrStorageRead, got %v", err)
	}

	// The stored value must not be replaced by a failed read.
	raw, _, _ := mem.Get(ctx, ItemsKey)
	if raw != `[{"id": "1", "name": ` {
		t.Errorf("stored value was modified: %q", raw)
	}
}

func TestSaveAndGetAllRoundTrip(t *testing.T) {
	s := New(kv.NewMemory())
	ctx := context.Background()

	zone := time.FixedZone("IST", 5*3600+1800)
	created := time.Date(2024, 1, 15, 18, 30, 0, 123000000, zone)
	records := []model.ShopListItem{
		{Item: model.Item{ID: "1", Name: "Milk", ImagePath: "/media/images/1.jpg", Quantity: 1.5, QuantityType: "Liters", CreatedAt: created, UpdatedAt: created.Add(time.Minute)}},
		{Item: model.Item{ID: "2", Name: "Bread", Quantity: 2, QuantityType: "Pieces", CreatedAt: created, UpdatedAt: created}, Completed: true},
	}

	list := s.ShopList().Collection()
	if err := list.Save(ctx, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := list.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(got))
	}
	for i := range records {
		want, have := records[i], got[i]
		if have.ID != want.ID || have.Name != want.Name || have.ImagePath != want.ImagePath ||
			have.Quantity != want.Quantity || have.QuantityType != want.QuantityType || have.Completed != want.Completed {
			t.Errorf("record %d: expected %+v, got %+v", i, want, have)
		}
		if !have.CreatedAt.Equal(want.CreatedAt) || !have.UpdatedAt.Equal(want.UpdatedAt) {
			t.Errorf("record %d: timestamps differ as instants: %v/%v vs %v/%v",
				i, have.CreatedAt, have.UpdatedAt, want.CreatedAt, want.UpdatedAt)
		}
	}
}

func TestGetAllReadsLegacyDocuments(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()
	mem.Set(ctx, ShopListKey, `[
  {
    "id": "1714550400000482913",
    "name": "Eggs",
    "imagePath": null,
    "quantity": 12,
    "quantityType": "piece",
    "completed": false,
    "createdAt": "2024-05-01T08:00:00.000Z",
    "updatedAt": "2024-05-01T08:05:30.250Z"
  }
]`)

	entries, err := New(mem).ShopList().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ImagePath != "" {
		t.Errorf("expected null imagePath to read as empty, got %q", e.ImagePath)
	}
	want := time.Date(2024, 5, 1, 8, 5, 30, 250000000, time.UTC)
	if !e.UpdatedAt.Equal(want) {
		t.Errorf("expected updatedAt %v, got %v", want, e.UpdatedAt)
	}
}

func TestSaveEmptyWritesEmptyArray(t *testing.T) {
	mem := kv.NewMemory()
	ctx := context.Background()

	if err := New(mem).Catalog().Collection().Save(ctx, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, ok, _ := mem.Get(ctx, ItemsKey)
	if !ok || raw != "[]" {
		t.Errorf("expected [] to be stored, got %q", raw)
	}
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	s := New(kv.NewMemory())
	catalog := s.Catalog()
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := catalog.Create(ctx, model.ItemFields{Name: fmt.Sprintf("Item %d", i), Quantity: 1, QuantityType: "Units"})
			if err != nil {
				t.Errorf("Create: %v", err)
			}
		}(i)
	}
	wg.Wait()

	items, err := catalog.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != n {
		t.Errorf("expected %d items after concurrent creates, got %d", n, len(items))
	}
}

func TestWriteFailureIsStorageWriteError(t *testing.T) {
	s := New(&flakyKV{Memory: kv.NewMemory(), okSets: 0})

	_, err := s.Catalog().Create(context.Background(), model.ItemFields{Name: "Milk", Quantity: 1, QuantityType: "Liters"})
	if !errors.Is(err, ErrStorageWrite) {
		t.Fatalf("expected ErrStorageWrite, got %v", err)
	}
	if !errors.Is(err, errDiskFull) {
		t.Errorf("expected the underlying cause to be wrapped, got %v", err)
	}
}
