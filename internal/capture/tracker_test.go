package capture_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jack23912/webscrapbook/internal/capture"
)

func TestTracker_FinalizesImmediatelyWhenIdle(t *testing.T) {
	tr := capture.NewTracker(zaptest.NewLogger(t))

	calls := 0
	require.NoError(t, tr.Join(func() { calls++ }))

	assert.Equal(t, 1, calls)
	assert.Zero(t, tr.Scheduled())
}

func TestTracker_AppliesOnOwnerBeforeFinalize(t *testing.T) {
	tr := capture.NewTracker(zaptest.NewLogger(t))

	// 1. Schedule operations whose applies write without locking.
	var applied []int
	for i := range 10 {
		tr.Go(func() func() {
			return func() { applied = append(applied, i) }
		})
	}
	assert.Equal(t, 10, tr.Pending())

	// 2. Join drains every completion before finalizing.
	var seen int
	require.NoError(t, tr.Join(func() { seen = len(applied) }))

	assert.Equal(t, 10, seen)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, applied)
	assert.Zero(t, tr.Pending())
}

func TestTracker_NestedSchedulingFinalizesOnce(t *testing.T) {
	tr := capture.NewTracker(zaptest.NewLogger(t))

	var ran atomic.Int32
	leaves := 0
	tr.Go(func() func() {
		ran.Add(1)
		return func() {
			for range 3 {
				tr.Go(func() func() {
					ran.Add(1)
					return func() { leaves++ }
				})
			}
		}
	})

	finalized := 0
	require.NoError(t, tr.Join(func() { finalized++ }))

	assert.Equal(t, 1, finalized)
	assert.Equal(t, 3, leaves)
	assert.Equal(t, int32(4), ran.Load())
	assert.Equal(t, 4, tr.Scheduled())
}

func TestTracker_RecoversPanics(t *testing.T) {
	tr := capture.NewTracker(zaptest.NewLogger(t))

	tr.Go(func() func() { panic("boom") })
	tr.Go(func() func() { return func() { panic("apply boom") } })
	tr.Go(func() func() { return nil })

	done := false
	require.NoError(t, tr.Join(func() { done = true }))
	assert.True(t, done)
}

func TestTracker_SecondJoinFails(t *testing.T) {
	tr := capture.NewTracker(nil)
	require.NoError(t, tr.Join(func() {}))

	err := tr.Join(func() { t.Fatal("finalize ran twice") })
	assert.ErrorIs(t, err, capture.ErrAlreadyFinalized)
}

func TestTracker_GoAfterFinalizePanics(t *testing.T) {
	tr := capture.NewTracker(nil)
	require.NoError(t, tr.Join(func() {}))

	assert.Panics(t, func() {
		tr.Go(func() func() { return nil })
	})
}
