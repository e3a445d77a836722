package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Storage keys.
const (
	usersKey    = "mockUsers"
	postsKey    = "mockPosts"
	commentsKey = "mockComments"
	tokenKey    = "token"
	themeKey    = "theme"
)

// KeyValueStore is the durable store that backs the simulated API.
type KeyValueStore interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	// SetItems writes every pair or none of them.
	SetItems(ctx context.Context, items map[string]string) error
	RemoveItem(ctx context.Context, key string) error
}

type sqliteStore struct {
	db *sql.DB
}

func newSQLiteStore(db *sql.DB) *sqliteStore {
	return &sqliteStore{db: db}
}

const upsertItem = `
	INSERT INTO storage (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *sqliteStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM storage WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting item %q: %w", key, err)
	}
	return value, true, nil
}

func (s *sqliteStore) SetItem(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertItem, key, value); err != nil {
		return fmt.Errorf("setting item %q: %w", key, err)
	}
	return nil
}

func (s *sqliteStore) SetItems(ctx context.Context, items map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range items {
		if _, err := tx.ExecContext(ctx, upsertItem, key, value); err != nil {
			return fmt.Errorf("setting item %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing items: %w", err)
	}
	return nil
}

func (s *sqliteStore) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM storage WHERE key = ?", key); err != nil {
		return fmt.Errorf("removing item %q: %w", key, err)
	}
	return nil
}

type redisStore struct {
	client *redis.Client
	prefix string
}

func newRedisStore(addr, password, prefix string) *redisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) key(k string) string {
	return s.prefix + k
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting item %q: %w", key, err)
	}
	return value, true, nil
}

func (s *redisStore) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("setting item %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) SetItems(ctx context.Context, items map[string]string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, value := range items {
			pipe.Set(ctx, s.key(key), value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("committing items: %w", err)
	}
	return nil
}

func (s *redisStore) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("removing item %q: %w", key, err)
	}
	return nil
}
