package repos

import (
	"context"
	"errors"
	"testing"

	"maisonaurore/internal/domain"
)

func TestProductRepo_GetAndSearch(t *testing.T) {
	db := memDB(t)
	prods := NewProductRepo(db)

	p, err := prods.Get("watch-007")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Price != 64.99 || p.CollectionID != "montres" || !p.Active {
		t.Fatalf("unexpected product %+v", p)
	}
	if _, err := prods.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	jewels, err := prods.ListByCollection("bijoux", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jewels) != 2 {
		t.Fatalf("expected 2 bijoux, got %d", len(jewels))
	}

	hits, err := prods.Search("minuit", "", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].SKU != "watch-002" {
		t.Fatalf("unexpected hits %+v", hits)
	}
	hits, _ = prods.Search("aurore", "bijoux", 10, 0)
	if len(hits) != 2 {
		t.Fatalf("expected collection filter to apply, got %d", len(hits))
	}

	urls, err := prods.URLs()
	if err != nil {
		t.Fatalf("urls: %v", err)
	}
	if urls["jewel-001"] != "/product/jewel-001" {
		t.Fatalf("unexpected url map %v", urls)
	}
}

func TestCollectionRepo_List(t *testing.T) {
	cols, err := NewCollectionRepo(memDB(t)).List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected 2 collections, got %d", len(cols))
	}
}

func TestPriceCorrectionRepo(t *testing.T) {
	repo := NewPriceCorrectionRepo(memDB(t))
	ctx := context.Background()

	table, err := repo.Corrections(ctx)
	if err != nil {
		t.Fatalf("corrections: %v", err)
	}
	if table["watch-007"] != 64.99 {
		t.Fatalf("seeded correction missing: %v", table)
	}

	if err := repo.Upsert(ctx, "watch-001", 85); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, "watch-001", 84.5); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if err := repo.Delete(ctx, "watch-007"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].SKU != "watch-001" || rows[0].Price != 84.5 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}
