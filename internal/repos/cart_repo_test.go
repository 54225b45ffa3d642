package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"maisonaurore/internal/domain"
)

func memDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCartRepo_ReadWriteClear(t *testing.T) {
	repo := NewCartRepo(memDB(t))
	ctx := context.Background()

	if _, err := repo.Read(ctx, "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Write(ctx, "s1", []byte(`[{"sku":"a","qty":1}]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := repo.Write(ctx, "s1", []byte(`[{"sku":"b","qty":2}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	blob, err := repo.Read(ctx, "s1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(blob) != `[{"sku":"b","qty":2}]` {
		t.Fatalf("unexpected blob %s", blob)
	}
	if _, err := repo.Read(ctx, "s2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("sessions leaked: %v", err)
	}
	if err := repo.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := repo.Read(ctx, "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestCartRepo_MarkerExpiry(t *testing.T) {
	repo := NewCartRepo(memDB(t))
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	// no ttl: survives any amount of time
	if err := repo.WriteMarker(ctx, "s1", []byte(`{"sku":"a"}`), 0); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	now = now.Add(24 * time.Hour)
	if _, err := repo.ReadMarker(ctx, "s1"); err != nil {
		t.Fatalf("marker without ttl expired: %v", err)
	}

	if err := repo.WriteMarker(ctx, "s1", []byte(`{"sku":"a"}`), 2*time.Second); err != nil {
		t.Fatalf("write marker ttl: %v", err)
	}
	now = now.Add(time.Second)
	if _, err := repo.ReadMarker(ctx, "s1"); err != nil {
		t.Fatalf("marker expired early: %v", err)
	}
	now = now.Add(time.Second)
	if _, err := repo.ReadMarker(ctx, "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired marker, got %v", err)
	}
}

func TestOpenDB_SeedsCatalogOnce(t *testing.T) {
	db := memDB(t)
	if err := seedCatalog(db); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 9 {
		t.Fatalf("expected 9 seeded products, got %d", n)
	}
	if err := migrateUp(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
