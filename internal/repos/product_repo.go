package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"maisonaurore/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `sku, collection_id, name, description, price, image, url, active`

func (r *ProductRepo) ListByCollection(collectionID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
  SELECT `+productCols+`
  FROM products
  WHERE collection_id = ? AND active = 1
  ORDER BY sku
  LIMIT ? OFFSET ?
`, collectionID, limit, offset)
	return out, err
}

// Get returns domain.ErrNotFound for unknown skus.
func (r *ProductRepo) Get(sku string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE sku = ?`, sku)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, err
}

func (r *ProductRepo) Search(q, collectionID string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if collectionID != "" {
		where += ` AND collection_id = ?`
		args = append(args, collectionID)
	}

	query := `
  SELECT ` + productCols + `
  FROM products
  WHERE ` + where + `
  ORDER BY sku
  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, query, args...)
	return out, err
}

// URLs maps sku -> product page for every product, active or not. Used for
// cart links when a persisted item carries no url.
func (r *ProductRepo) URLs() (map[string]string, error) {
	var rows []struct {
		SKU string `db:"sku"`
		URL string `db:"url"`
	}
	if err := r.db.Select(&rows, `SELECT sku, url FROM products WHERE url != ''`); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.SKU] = row.URL
	}
	return out, nil
}
