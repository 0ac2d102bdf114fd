package capture

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrAlreadyFinalized is returned by a second Join.
var ErrAlreadyFinalized = errors.New("capture: tracker already finalized")

// Operation performs I/O off the owning goroutine and returns the mutation to
// apply on it. A nil apply means there is nothing to apply.
type Operation func() (apply func())

// Tracker is the fan-in of one capture invocation. Operations run
// concurrently, while their applies and the finalizer run one at a time on
// the goroutine that calls Join. Applies may schedule further operations.
//
// Go and Join must only be called from the owning goroutine.
type Tracker struct {
	pending   int
	scheduled int
	finalized bool
	completed chan func()
	logger    *zap.Logger
}

// NewTracker returns an empty tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		completed: make(chan func()),
		logger:    logger,
	}
}

// Go counts op as pending and starts it. Scheduling after the finalizer ran
// is a programming error and panics.
func (t *Tracker) Go(op Operation) {
	if t.finalized {
		panic("capture: operation scheduled after finalization")
	}
	t.pending++
	t.scheduled++
	go func() {
		var apply func()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("sub-operation panicked", zap.String("panic", fmt.Sprint(r)))
				apply = nil
			}
			t.completed <- apply
		}()
		apply = op()
	}()
}

// Pending returns the number of operations whose apply has not run yet.
func (t *Tracker) Pending() int { return t.pending }

// Scheduled returns the number of operations ever started.
func (t *Tracker) Scheduled() int { return t.scheduled }

// Join applies completions until nothing is pending and then runs finalize,
// exactly once. With nothing scheduled, finalize runs immediately.
func (t *Tracker) Join(finalize func()) error {
	if t.finalized {
		return ErrAlreadyFinalized
	}
	for t.pending > 0 {
		apply := <-t.completed
		if apply != nil {
			t.runApply(apply)
		}
		t.pending--
	}
	t.finalized = true
	finalize()
	return nil
}

func (t *Tracker) runApply(apply func()) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("sub-operation completion panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	apply()
}
