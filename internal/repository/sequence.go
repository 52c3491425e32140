package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemorySequence keeps counters in process memory.
type MemorySequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[string]int64)}
}

func (s *MemorySequence) Next(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name]++
	return s.counters[name], nil
}

// RedisSequence uses INCR, which is atomic on the server.
type RedisSequence struct {
	client *redis.Client
	prefix string
}

func NewRedisSequence(client *redis.Client, prefix string) *RedisSequence {
	return &RedisSequence{client: client, prefix: prefix}
}

func (s *RedisSequence) Next(ctx context.Context, name string) (int64, error) {
	v, err := s.client.Incr(ctx, s.prefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", name, err)
	}
	return v, nil
}

// MySQLSequence increments a row of the sequences table. LAST_INSERT_ID is
// per connection, so both statements run on one pinned connection.
type MySQLSequence struct {
	db *sql.DB
}

func NewMySQLSequence(db *sql.DB) *MySQLSequence {
	return &MySQLSequence{db: db}
}

const (
	sequenceUpsert = `INSERT INTO sequences (name, value) VALUES (?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)`
	sequenceRead = `SELECT LAST_INSERT_ID()`
)

func (s *MySQLSequence) Next(ctx context.Context, name string) (int64, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("sequence conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, sequenceUpsert, name); err != nil {
		return 0, fmt.Errorf("sequence upsert %s: %w", name, err)
	}

	var v int64
	if err := conn.QueryRowContext(ctx, sequenceRead).Scan(&v); err != nil {
		return 0, fmt.Errorf("sequence read %s: %w", name, err)
	}
	return v, nil
}
