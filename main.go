package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	cfg := loadConfig()

	ctx := context.Background()

	kv, closeKV, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("opening storage: %v", err)
	}
	defer closeKV()

	seed, err := loadSeed(cfg.BcryptCost, time.Now())
	if err != nil {
		log.Fatalf("loading seed: %v", err)
	}

	repo := NewRepository(ctx, kv, seed)
	api := NewAPI(repo, cfg)
	store := NewStore(ctx, api, kv)

	if err := store.RestoreSession(ctx).Wait(); err != nil {
		log.Printf("restoring session: %v", err)
	}

	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		for now := range ticker.C {
			store.ExpireSession(ctx, now)
		}
	}()

	blog := NewBlog(store, cfg)

	log.Printf("Server starting on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, logRequests(blog.routes())))
}

// openStorage opens the configured durable store and returns a function
// that releases it.
func openStorage(ctx context.Context, cfg Config) (KeyValueStore, func(), error) {
	if cfg.Storage == "redis" {
		rs := newRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, err
		}
		log.Printf("using redis storage at %s", cfg.RedisAddr)
		return rs, func() { rs.Close() }, nil
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := initDB(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Printf("using sqlite storage at %s", cfg.DBPath)
	return newSQLiteStore(db), func() { db.Close() }, nil
}
