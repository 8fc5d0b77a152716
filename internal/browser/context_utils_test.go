// internal/browser/context_utils_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "target"

	t.Run("InheritsValuesFromSession", func(t *testing.T) {
		sessionCtx := context.WithValue(context.Background(), key, "tab-1")

		combined, cancel := CombineContext(sessionCtx, context.Background())
		defer cancel()

		assert.Equal(t, "tab-1", combined.Value(key))
		assert.NoError(t, combined.Err())
	})

	t.Run("CancelledBySession", func(t *testing.T) {
		sessionCtx, cancelSession := context.WithCancel(context.Background())
		combined, cancel := CombineContext(sessionCtx, context.Background())
		defer cancel()

		cancelSession()

		assert.Eventually(t, func() bool { return combined.Err() != nil }, 100*time.Millisecond, 5*time.Millisecond)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("CancelledByOperation", func(t *testing.T) {
		opCtx, cancelOp := context.WithCancel(context.Background())
		combined, cancel := CombineContext(context.Background(), opCtx)
		defer cancel()

		cancelOp()

		assert.Eventually(t, func() bool { return combined.Err() != nil }, 100*time.Millisecond, 5*time.Millisecond)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("AdoptsOperationDeadline", func(t *testing.T) {
		deadline := time.Now().Add(time.Minute)
		opCtx, cancelOp := context.WithDeadline(context.Background(), deadline)
		defer cancelOp()

		combined, cancel := CombineContext(context.Background(), opCtx)
		defer cancel()

		got, ok := combined.Deadline()
		require.True(t, ok, "the operation deadline should be visible on the combined context")
		assert.WithinDuration(t, deadline, got, time.Millisecond)
	})

	t.Run("CancelFuncStopsCombined", func(t *testing.T) {
		combined, cancel := CombineContext(context.Background(), context.Background())
		cancel()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	type ctxKey string
	const key ctxKey = "target"

	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), key, "tab-1"), time.Millisecond)
	defer cancel()
	<-parent.Done()

	detached := Detach(parent)

	assert.Equal(t, "tab-1", detached.Value(key))
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, ok := detached.Deadline()
	assert.False(t, ok)
}
