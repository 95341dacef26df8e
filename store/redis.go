package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores documents as plain redis strings under a common prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to the redis server at addr and checks it answers.
func OpenRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cannot reach redis at %s: %w", addr, err)
	}
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string { return r.prefix + key }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	doc, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", key, err)
	}
	return doc, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("cannot write %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("cannot delete %q: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.client.Close() }
