// Package repository persists the whole-collection snapshots of the
// in-memory state. Each collection (students, payments, logs) is stored as
// one serialized document; loading at startup returns exactly what was last
// saved.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kcattaeva-hash/Oplata/internal/clients"
	"github.com/kcattaeva-hash/Oplata/internal/domain"
)

const (
	keyStudents = "state:students"
	keyPayments = "state:payments"
	keyLogs     = "state:logs"
)

// RedisStateRepository mirrors the three collections into redis under
// prefixed keys, one JSON document each. Snapshots have no TTL.
type RedisStateRepository struct {
	redis *clients.RedisClient
}

func NewRedisStateRepository(redis *clients.RedisClient) *RedisStateRepository {
	return &RedisStateRepository{redis: redis}
}

func (r *RedisStateRepository) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return r.redis.Set(ctx, key, string(data), 0)
}

func loadJSON[T any](ctx context.Context, r *clients.RedisClient, key string) ([]T, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var out []T
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return out, nil
}

func (r *RedisStateRepository) SaveStudents(ctx context.Context, students []domain.Student) error {
	return r.saveJSON(ctx, keyStudents, students)
}

func (r *RedisStateRepository) SavePayments(ctx context.Context, payments []domain.Payment) error {
	return r.saveJSON(ctx, keyPayments, payments)
}

func (r *RedisStateRepository) SaveLogs(ctx context.Context, logs []domain.LogEntry) error {
	return r.saveJSON(ctx, keyLogs, logs)
}

func (r *RedisStateRepository) LoadAll(ctx context.Context) ([]domain.Student, []domain.Payment, []domain.LogEntry, error) {
	students, err := loadJSON[domain.Student](ctx, r.redis, keyStudents)
	if err != nil {
		return nil, nil, nil, err
	}
	payments, err := loadJSON[domain.Payment](ctx, r.redis, keyPayments)
	if err != nil {
		return nil, nil, nil, err
	}
	logs, err := loadJSON[domain.LogEntry](ctx, r.redis, keyLogs)
	if err != nil {
		return nil, nil, nil, err
	}
	return students, payments, logs, nil
}
