package repos

import (
	"github.com/jmoiron/sqlx"

	"maisonaurore/internal/domain"
)

type CollectionRepo struct{ db *sqlx.DB }

func NewCollectionRepo(db *sqlx.DB) *CollectionRepo { return &CollectionRepo{db: db} }

func (r *CollectionRepo) List() ([]domain.Collection, error) {
	var out []domain.Collection
	err := r.db.Select(&out, `SELECT id, name FROM collections ORDER BY name`)
	return out, err
}
