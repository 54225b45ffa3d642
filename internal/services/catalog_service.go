package services

import (
	"maisonaurore/internal/domain"
	"maisonaurore/internal/repos"
)

type CatalogService struct {
	Collections *repos.CollectionRepo
	Prods       *repos.ProductRepo
}

func NewCatalogService(cols *repos.CollectionRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Collections: cols, Prods: prods}
}

func (s *CatalogService) ListCollections() ([]domain.Collection, error) {
	return s.Collections.List()
}

func (s *CatalogService) GetProduct(sku string) (domain.Product, error) {
	return s.Prods.Get(sku)
}

// Search lists active products, optionally filtered by a lower-cased
// keyword and a collection.
func (s *CatalogService) Search(q, collection string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 24
	}
	offset := (page - 1) * pageSize
	if q == "" && collection != "" {
		return s.Prods.ListByCollection(collection, pageSize, offset)
	}
	return s.Prods.Search(q, collection, pageSize, offset)
}
