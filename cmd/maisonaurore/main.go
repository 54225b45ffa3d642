package main

import (
	"context"
	"log"
	"time"

	html "github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"

	"maisonaurore/internal/config"
	"maisonaurore/internal/http/handlers"
	applog "maisonaurore/internal/log"
	"maisonaurore/internal/payments"
	"maisonaurore/internal/repos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	closer := applog.Setup(cfg.LogFile)
	defer closer.Close()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.CartBackend == config.BackendRedis {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis %s: %v", cfg.RedisAddr, err)
		}
		defer rdb.Close()
	}

	store, err := handlers.NewCartStore(cfg, db, rdb)
	if err != nil {
		log.Fatal(err)
	}
	deps, err := handlers.NewDeps(db, cfg, store, payments.NewStripe(cfg.StripeSecretKey))
	if err != nil {
		log.Fatal(err)
	}

	engine := html.New(cfg.TemplatesDir, ".html")
	app := handlers.NewApp(cfg, deps, engine)

	log.Printf("[http] listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[http] %v", err)
	}
}
