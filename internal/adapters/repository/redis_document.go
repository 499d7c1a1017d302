package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/infrastructure/config"
	"github.com/stockmanager/core/internal/ports"
)

// RedisDocumentStore keeps the item document as a single Redis string value
type RedisDocumentStore struct {
	client *redis.Client
}

// NewRedisDocumentStore wraps an existing client
func NewRedisDocumentStore(client *redis.Client) ports.DocumentStore {
	return &RedisDocumentStore{client: client}
}

// NewRedisClient opens and pings a Redis connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.GetAddr(), err)
	}

	return client, nil
}

func (s *RedisDocumentStore) EnsureExists(ctx context.Context, key string) error {
	// SETNX leaves an existing document untouched
	if err := s.client.SetNX(ctx, key, emptyDocument, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis setnx %s: %v", entities.ErrStorage, key, err)
	}
	return nil
}

func (s *RedisDocumentStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: redis get %s: %v", entities.ErrStorage, key, err)
	}
	return data, nil
}

func (s *RedisDocumentStore) Write(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", entities.ErrStorage, key, err)
	}
	return nil
}

func (s *RedisDocumentStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", entities.ErrStorage, err)
	}
	return nil
}
