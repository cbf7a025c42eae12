package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/agentcore/checkpoint"
	"github.com/stretchr/testify/assert"
)

func TestRedisStore(t *testing.T) {
	// Start miniredis
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{
		Addr: mr.Addr(),
	})
	defer store.Close()

	ctx := context.Background()
	workflowID := "wf-123"

	cp := &checkpoint.Checkpoint{
		ID:         "cp-1",
		WorkflowID: workflowID,
		Step:       "validate",
		State:      map[string]any{"foo": "bar"},
		Timestamp:  time.Now(),
		Version:    1,
	}

	// Test Save
	err = store.Save(ctx, cp)
	assert.NoError(t, err)

	// Test Load
	loaded, err := store.Load(ctx, "cp-1")
	assert.NoError(t, err)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, cp.Step, loaded.Step)
	assert.Equal(t, "bar", loaded.State["foo"])

	// Test List
	list, err := store.List(ctx, workflowID)
	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, cp.ID, list[0].ID)

	// Test Latest
	cp2 := &checkpoint.Checkpoint{
		ID:         "cp-2",
		WorkflowID: workflowID,
		Step:       "charge",
		State:      map[string]any{},
		Timestamp:  cp.Timestamp.Add(time.Second),
		Version:    2,
	}
	assert.NoError(t, store.Save(ctx, cp2))

	latest, err := store.Latest(ctx, workflowID)
	assert.NoError(t, err)
	assert.Equal(t, "cp-2", latest.ID)

	// Test Delete
	err = store.Delete(ctx, "cp-1")
	assert.NoError(t, err)

	_, err = store.Load(ctx, "cp-1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)

	list, err = store.List(ctx, workflowID)
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	// Test Clear
	cp3 := &checkpoint.Checkpoint{ID: "cp-3", WorkflowID: workflowID, State: map[string]any{}}
	assert.NoError(t, store.Save(ctx, cp3))

	err = store.Clear(ctx, workflowID)
	assert.NoError(t, err)

	list, err = store.List(ctx, workflowID)
	assert.NoError(t, err)
	assert.Len(t, list, 0)

	_, err = store.Latest(ctx, workflowID)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	store := NewRedisStore(RedisOptions{
		Addr: mr.Addr(),
		TTL:  time.Minute,
	})
	defer store.Close()

	ctx := context.Background()
	cp := &checkpoint.Checkpoint{
		ID:         "cp-ttl",
		WorkflowID: "wf-ttl",
		State:      map[string]any{},
		Timestamp:  time.Now(),
	}
	assert.NoError(t, store.Save(ctx, cp))

	// Expired checkpoints disappear from Load and List
	mr.FastForward(2 * time.Minute)

	_, err = store.Load(ctx, "cp-ttl")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}
