package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskLifecycle(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		task := NewTask("check_trade_compliance", map[string]any{"symbol": "AAPL"})
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, TaskSubmitted, task.CurrentStatus())

		assert.NoError(t, task.Start())
		assert.Equal(t, TaskWorking, task.CurrentStatus())

		assert.NoError(t, task.Complete(map[string]any{"approved": true}))
		assert.Equal(t, TaskCompleted, task.CurrentStatus())
		assert.Equal(t, true, task.Result["approved"])
	})

	t.Run("failure records the error", func(t *testing.T) {
		task := NewTask("check_trade_compliance", nil)
		assert.NoError(t, task.Start())
		assert.NoError(t, task.Fail("upstream timeout"))
		assert.Equal(t, TaskFailed, task.CurrentStatus())
		assert.Equal(t, "upstream timeout", task.Error)
	})

	t.Run("cancellation", func(t *testing.T) {
		task := NewTask("check_trade_compliance", nil)
		assert.NoError(t, task.Cancel())
		assert.Equal(t, TaskCancelled, task.CurrentStatus())
	})

	t.Run("pause for input and resume", func(t *testing.T) {
		task := NewTask("generate_compliance_report", nil)
		assert.NoError(t, task.Start())
		assert.NoError(t, task.RequireInput())
		assert.Equal(t, TaskInputRequired, task.CurrentStatus())

		// Cannot finish while waiting on the caller
		assert.Error(t, task.Complete(nil))

		assert.NoError(t, task.Resume())
		assert.NoError(t, task.Complete(nil))
	})

	t.Run("history records every move", func(t *testing.T) {
		task := NewTask("check_trade_compliance", nil)
		assert.NoError(t, task.Start())
		assert.NoError(t, task.Complete(nil))

		history := task.StatusHistory()
		assert.Len(t, history, 3)
		assert.Equal(t, TaskSubmitted, history[0].Status)
		assert.Equal(t, TaskWorking, history[1].Status)
		assert.Equal(t, TaskCompleted, history[2].Status)
	})

	t.Run("invalid transitions rejected", func(t *testing.T) {
		task := NewTask("check_trade_compliance", nil)

		// Cannot complete without starting
		assert.Error(t, task.Complete(nil))
		assert.Equal(t, TaskSubmitted, task.CurrentStatus())

		// Terminal states have no exits
		assert.NoError(t, task.Start())
		assert.NoError(t, task.Complete(nil))
		assert.Error(t, task.Start())
		assert.Error(t, task.Cancel())
	})
}
