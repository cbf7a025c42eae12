// Package redis provides a checkpoint store backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/agentcore/checkpoint"
)

// RedisStore implements checkpoint.Store using Redis. Checkpoints are
// stored as JSON values and indexed per workflow with a set.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ checkpoint.Store = (*RedisStore)(nil)

// RedisOptions configuration for the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "agentcore:"
	TTL      time.Duration // Expiration for checkpoints, default 0 (no expiration)
}

// NewRedisStore creates a new Redis checkpoint store
func NewRedisStore(opts RedisOptions) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "agentcore:"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

func (s *RedisStore) checkpointKey(id string) string {
	return fmt.Sprintf("%scheckpoint:%s", s.prefix, id)
}

func (s *RedisStore) workflowKey(id string) string {
	return fmt.Sprintf("%sworkflow:%s:checkpoints", s.prefix, id)
}

// Save stores a checkpoint and indexes it under its workflow
func (s *RedisStore) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.checkpointKey(cp.ID), data, s.ttl)

	if cp.WorkflowID != "" {
		wfKey := s.workflowKey(cp.WorkflowID)
		pipe.SAdd(ctx, wfKey, cp.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, wfKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint to redis: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID
func (s *RedisStore) Load(ctx context.Context, id string) (*checkpoint.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.checkpointKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", checkpoint.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load checkpoint from redis: %w", err)
	}

	var cp checkpoint.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// Latest returns the most recent checkpoint for a workflow
func (s *RedisStore) Latest(ctx context.Context, workflowID string) (*checkpoint.Checkpoint, error) {
	checkpoints, err := s.List(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("%w: workflow %s", checkpoint.ErrNotFound, workflowID)
	}
	return checkpoints[len(checkpoints)-1], nil
}

// List returns all checkpoints for a workflow, oldest first
func (s *RedisStore) List(ctx context.Context, workflowID string) ([]*checkpoint.Checkpoint, error) {
	ids, err := s.client.SMembers(ctx, s.workflowKey(workflowID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints for workflow %s: %w", workflowID, err)
	}
	if len(ids) == 0 {
		return []*checkpoint.Checkpoint{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.checkpointKey(id)
	}

	// MGet returns nil for keys that have expired; those are skipped
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
	}

	checkpoints := make([]*checkpoint.Checkpoint, 0, len(values))
	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}
		var cp checkpoint.Checkpoint
		if err := json.Unmarshal([]byte(data), &cp); err != nil {
			continue
		}
		checkpoints = append(checkpoints, &cp)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].Timestamp.Before(checkpoints[j].Timestamp)
	})
	return checkpoints, nil
}

// Delete removes a checkpoint and its workflow index entry
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	cp, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.checkpointKey(id))
	if cp.WorkflowID != "" {
		pipe.SRem(ctx, s.workflowKey(cp.WorkflowID), id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

// Clear removes all checkpoints for a workflow
func (s *RedisStore) Clear(ctx context.Context, workflowID string) error {
	wfKey := s.workflowKey(workflowID)
	ids, err := s.client.SMembers(ctx, wfKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get checkpoints for clearing: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.checkpointKey(id))
	}
	pipe.Del(ctx, wfKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
