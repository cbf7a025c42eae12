package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/smallnest/agentcore/checkpoint"
	"github.com/stretchr/testify/assert"
)

const selectColumns = "SELECT id, workflow_id, step, state, metadata, timestamp, version, completed FROM checkpoints"

func TestPostgresStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	cp := &checkpoint.Checkpoint{
		ID:         "cp-1",
		WorkflowID: "wf-1",
		Step:       "validate",
		State:      map[string]any{"foo": "bar"},
		Metadata:   map[string]any{"attempt": "1"},
		Timestamp:  time.Now(),
		Version:    1,
	}

	stateJSON, _ := json.Marshal(cp.State)
	metadataJSON, _ := json.Marshal(cp.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checkpoints")).
		WithArgs(
			cp.ID,
			cp.WorkflowID,
			cp.Step,
			stateJSON,
			metadataJSON,
			cp.Timestamp,
			cp.Version,
			cp.Completed,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.Save(context.Background(), cp)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_MarshalError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	// channels cannot be marshaled to JSON
	cp := &checkpoint.Checkpoint{
		ID:        "cp-1",
		State:     map[string]any{"bad": make(chan int)},
		Timestamp: time.Now(),
	}

	err = store.Save(context.Background(), cp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal state")
}

func TestPostgresStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	timestamp := time.Now()
	stateJSON, _ := json.Marshal(map[string]any{"foo": "bar"})
	metadataJSON, _ := json.Marshal(map[string]any{"attempt": "1"})

	rows := pgxmock.NewRows([]string{"id", "workflow_id", "step", "state", "metadata", "timestamp", "version", "completed"}).
		AddRow("cp-1", "wf-1", "validate", stateJSON, metadataJSON, timestamp, 1, false)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+" WHERE id = $1")).
		WithArgs("cp-1").
		WillReturnRows(rows)

	loaded, err := store.Load(context.Background(), "cp-1")
	assert.NoError(t, err)
	assert.Equal(t, "cp-1", loaded.ID)
	assert.Equal(t, "wf-1", loaded.WorkflowID)
	assert.Equal(t, "validate", loaded.Step)
	assert.Equal(t, "bar", loaded.State["foo"])
	assert.False(t, loaded.Completed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+" WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	loaded, err := store.Load(context.Background(), "missing")
	assert.Error(t, err)
	assert.Nil(t, loaded)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load_InvalidStateJSON(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	rows := pgxmock.NewRows([]string{"id", "workflow_id", "step", "state", "metadata", "timestamp", "version", "completed"}).
		AddRow("cp-1", "wf-1", "validate", []byte("{invalid json"), []byte("{}"), time.Now(), 1, false)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+" WHERE id = $1")).
		WithArgs("cp-1").
		WillReturnRows(rows)

	loaded, err := store.Load(context.Background(), "cp-1")
	assert.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "failed to unmarshal state")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Latest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	stateJSON, _ := json.Marshal(map[string]any{"step": 2})

	rows := pgxmock.NewRows([]string{"id", "workflow_id", "step", "state", "metadata", "timestamp", "version", "completed"}).
		AddRow("cp-2", "wf-1", "charge", stateJSON, nil, time.Now(), 2, false)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+" WHERE workflow_id = $1 ORDER BY timestamp DESC LIMIT 1")).
		WithArgs("wf-1").
		WillReturnRows(rows)

	latest, err := store.Latest(context.Background(), "wf-1")
	assert.NoError(t, err)
	assert.Equal(t, "cp-2", latest.ID)
	assert.Nil(t, latest.Metadata)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	timestamp := time.Now()
	state1, _ := json.Marshal(map[string]any{"step": 1})
	state2, _ := json.Marshal(map[string]any{"step": 2})

	rows := pgxmock.NewRows([]string{"id", "workflow_id", "step", "state", "metadata", "timestamp", "version", "completed"}).
		AddRow("cp-1", "wf-1", "validate", state1, []byte("{}"), timestamp, 1, false).
		AddRow("cp-2", "wf-1", "charge", state2, []byte("{}"), timestamp, 2, true)

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+" WHERE workflow_id = $1 ORDER BY timestamp ASC")).
		WithArgs("wf-1").
		WillReturnRows(rows)

	loaded, err := store.List(context.Background(), "wf-1")
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "cp-1", loaded[0].ID)
	assert.Equal(t, "cp-2", loaded[1].ID)
	assert.True(t, loaded[1].Completed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List_DatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	mock.ExpectQuery(regexp.QuoteMeta(selectColumns+" WHERE workflow_id = $1 ORDER BY timestamp ASC")).
		WithArgs("wf-1").
		WillReturnError(errors.New("database connection failed"))

	loaded, err := store.List(context.Background(), "wf-1")
	assert.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "failed to list checkpoints")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE id = $1")).
		WithArgs("cp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err = store.Delete(context.Background(), "cp-1")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Clear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE workflow_id = $1")).
		WithArgs("wf-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err = store.Clear(context.Background(), "wf-1")
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InitSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS checkpoints")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err = store.InitSchema(context.Background())
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStoreWithPool_DefaultTableName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStoreWithPool(mock, "")
	assert.NotNil(t, store)
	assert.Equal(t, "checkpoints", store.tableName)
}

func TestNewPostgresStore_InvalidConnection(t *testing.T) {
	_, err := NewPostgresStore(context.Background(), PostgresOptions{
		ConnString: "invalid://connection-string",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unable to create connection pool")
}
