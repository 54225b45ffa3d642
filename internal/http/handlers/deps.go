package handlers

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"maisonaurore/internal/config"
	"maisonaurore/internal/repos"
	"maisonaurore/internal/services"
)

// redisCartTTL bounds how long an idle cart survives in redis.
const redisCartTTL = 30 * 24 * time.Hour

type Deps struct {
	ShopHandler     *ShopHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	AdminHandler    *AdminHandler
}

// CartStore is a cart blob backend that also keeps the last-added marker.
type CartStore interface {
	services.CartRepository
	services.MarkerRepository
}

// NewCartStore picks the cart backend named by cfg.CartBackend.
func NewCartStore(cfg config.Config, db *sqlx.DB, rdb *redis.Client) (CartStore, error) {
	switch cfg.CartBackend {
	case config.BackendSQLite, "":
		return repos.NewCartRepo(db), nil
	case config.BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("cart backend redis: no client")
		}
		return repos.NewRedisCartRepo(rdb, redisCartTTL), nil
	case config.BackendMemory:
		return repos.NewMemoryCartRepo(), nil
	}
	return nil, fmt.Errorf("unknown cart backend %q", cfg.CartBackend)
}

func NewDeps(db *sqlx.DB, cfg config.Config, store CartStore, provider services.PaymentProvider) (*Deps, error) {
	colRepo := repos.NewCollectionRepo(db)
	prodRepo := repos.NewProductRepo(db)
	priceRepo := repos.NewPriceCorrectionRepo(db)

	builder, err := services.NewCheckoutBuilder(cfg)
	if err != nil {
		return nil, err
	}
	catalogSvc := services.NewCatalogService(colRepo, prodRepo)
	cartSvc := services.NewCartService(store, store, priceRepo, prodRepo)
	checkoutSvc := services.NewCheckoutService(builder, provider)

	return &Deps{
		ShopHandler:     &ShopHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Cart: cartSvc},
		CartHandler:     &CartHandler{Cart: cartSvc, Catalog: catalogSvc, Sessions: checkoutSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc, CollectProfile: cfg.CollectProfile},
		AdminHandler:    &AdminHandler{Repo: priceRepo},
	}, nil
}
