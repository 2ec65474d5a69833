package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suhasdasari/S4D5/store"
)

// RedisAuditStore implements store.AuditStore using Redis. Records are JSON
// strings; each workflow has a sorted-set index scored by creation time.
type RedisAuditStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"` // Key prefix, default "s4d5:"
	TTL      time.Duration `mapstructure:"ttl"`    // Expiration for records, default 0 (no expiration)
}

// NewRedisAuditStore creates a new Redis audit store
func NewRedisAuditStore(opts RedisOptions) *RedisAuditStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisAuditStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisAuditStoreWithClient creates a store on an existing client
func NewRedisAuditStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisAuditStore {
	if prefix == "" {
		prefix = "s4d5:"
	}
	return &RedisAuditStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Close closes the underlying client
func (s *RedisAuditStore) Close() error {
	return s.client.Close()
}

func (s *RedisAuditStore) recordKey(runID string) string {
	return fmt.Sprintf("%srecord:%s", s.prefix, runID)
}

// indexKey returns the sorted set holding the run IDs of workflow. The empty
// workflow names the index of every run.
func (s *RedisAuditStore) indexKey(workflow string) string {
	if workflow == "" {
		return s.prefix + "runs"
	}
	return fmt.Sprintf("%sworkflow:%s:runs", s.prefix, workflow)
}

// Save stores a record
func (s *RedisAuditStore) Save(ctx context.Context, record *store.Record) error {
	if record == nil || record.RunID == "" {
		return fmt.Errorf("record must have a run id")
	}

	// A replaced record may have moved to another workflow.
	if prev, err := s.Load(ctx, record.RunID); err == nil && prev.Workflow != record.Workflow {
		s.client.ZRem(ctx, s.indexKey(prev.Workflow), record.RunID)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	score := float64(record.CreatedAt.UnixMilli())
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.recordKey(record.RunID), data, s.ttl)
	for _, key := range []string{s.indexKey(""), s.indexKey(record.Workflow)} {
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: record.RunID})
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save record to redis: %w", err)
	}
	return nil
}

// Load retrieves a record by run ID
func (s *RedisAuditStore) Load(ctx context.Context, runID string) (*store.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, runID)
		}
		return nil, fmt.Errorf("failed to load record from redis: %w", err)
	}

	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// List returns the records of a workflow. Index members whose record has
// expired are skipped.
func (s *RedisAuditStore) List(ctx context.Context, workflow string) ([]*store.Record, error) {
	runIDs, err := s.client.ZRange(ctx, s.indexKey(workflow), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list records for workflow %q: %w", workflow, err)
	}

	records := []*store.Record{}
	if len(runIDs) == 0 {
		return records, nil
	}

	keys := make([]string, 0, len(runIDs))
	for _, id := range runIDs {
		keys = append(keys, s.recordKey(id))
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	for i, result := range results {
		str, ok := result.(string)
		if !ok {
			continue
		}
		var rec store.Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", runIDs[i], err)
		}
		records = append(records, &rec)
	}

	store.SortRecords(records)
	return records, nil
}

// Delete removes a record and its index entries
func (s *RedisAuditStore) Delete(ctx context.Context, runID string) error {
	rec, err := s.Load(ctx, runID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recordKey(runID))
	pipe.ZRem(ctx, s.indexKey(""), runID)
	pipe.ZRem(ctx, s.indexKey(rec.Workflow), runID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
