package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"maisonaurore/internal/domain"
)

type PriceCorrectionRepo struct{ db *sqlx.DB }

func NewPriceCorrectionRepo(db *sqlx.DB) *PriceCorrectionRepo { return &PriceCorrectionRepo{db: db} }

func (r *PriceCorrectionRepo) List(ctx context.Context) ([]domain.PriceCorrection, error) {
	out := []domain.PriceCorrection{}
	err := r.db.SelectContext(ctx, &out, `SELECT sku, price FROM price_corrections ORDER BY sku`)
	return out, err
}

// Corrections returns the table as sku -> price.
func (r *PriceCorrectionRepo) Corrections(ctx context.Context) (map[string]float64, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, pc := range rows {
		out[pc.SKU] = pc.Price
	}
	return out, nil
}

func (r *PriceCorrectionRepo) Upsert(ctx context.Context, sku string, price float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_corrections(sku, price, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(sku) DO UPDATE SET price = excluded.price, updated_at = CURRENT_TIMESTAMP
	`, sku, price)
	return err
}

func (r *PriceCorrectionRepo) Delete(ctx context.Context, sku string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM price_corrections WHERE sku = ?`, sku)
	return err
}
