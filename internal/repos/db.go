package repos

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; a single connection also keeps
	// ":memory:" databases from splitting across pool connections.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, err
	}

	if err := migrateUp(db); err != nil {
		return nil, err
	}
	// Catalog and price corrections (idempotent; safe to run every start)
	if err := seedCatalog(db); err != nil {
		return nil, err
	}
	if err := seedPriceCorrections(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrateUp(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}
	drv, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	// m.Close is not called: it would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting catalog collections/products")

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO collections(id,name) VALUES
	  ('montres','Montres'),
	  ('bijoux','Bijoux')
	  ON CONFLICT(id) DO NOTHING`); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO products(sku,collection_id,name,description,price,image,url) VALUES
	  ('watch-001','montres','Montre Aurore Classique','Boîtier acier, bracelet cuir',89.00,'/static/img/watch-001.jpg','/product/watch-001'),
	  ('watch-002','montres','Montre Aurore Minuit','Cadran bleu nuit',94.00,'/static/img/watch-002.jpg','/product/watch-002'),
	  ('watch-003','montres','Montre Aurore Rosée','Boîtier or rose',99.00,'/static/img/watch-003.jpg','/product/watch-003'),
	  ('watch-004','montres','Montre Aurore Sport','Bracelet silicone',79.00,'/static/img/watch-004.jpg','/product/watch-004'),
	  ('watch-005','montres','Montre Aurore Squelette','Mouvement apparent',129.00,'/static/img/watch-005.jpg','/product/watch-005'),
	  ('watch-006','montres','Montre Aurore Mini','Boîtier 28 mm',69.00,'/static/img/watch-006.jpg','/product/watch-006'),
	  ('watch-007','montres','Montre Aurore Gravée','Gravure d''initiale offerte',64.99,'/static/img/watch-007.jpg','/product/watch-007'),
	  ('jewel-001','bijoux','Bracelet Aurore','Maille fine, argent 925',39.00,'/static/img/jewel-001.jpg','/product/jewel-001'),
	  ('jewel-002','bijoux','Collier Aurore','Pendentif soleil levant',49.00,'/static/img/jewel-002.jpg','/product/jewel-002')`); err != nil {
		return err
	}

	return tx.Commit()
}

// seedPriceCorrections installs corrections for carts persisted before a
// price change. Existing rows (possibly edited by an admin) are kept.
func seedPriceCorrections(db *sqlx.DB) error {
	_, err := db.Exec(`
		INSERT INTO price_corrections(sku, price)
		VALUES ('watch-007', 64.99)
		ON CONFLICT(sku) DO NOTHING
	`)
	return err
}
