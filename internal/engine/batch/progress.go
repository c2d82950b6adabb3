package batch

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress is a point-in-time view of a batch run.
// It is passed by value, so a callback can keep it without seeing later updates.
type Progress struct {
	// Total is the number of items to process after duplicate removal.
	Total int

	// Completed is the number of items that succeeded.
	Completed int

	// Failed is the number of items that failed permanently.
	Failed int

	// Percentage is round((Completed+Failed)/Total*100).
	Percentage int

	// TotalBatches is the number of batches in the run.
	TotalBatches int

	// CurrentBatch is the 1-based index of the batch in progress.
	CurrentBatch int

	// EstimatedTimeRemaining is only set while 0 < Percentage < 100.
	EstimatedTimeRemaining time.Duration

	// Elapsed is the time since the run started.
	Elapsed time.Duration
}

// Settled returns the number of items that reached a final state.
func (p Progress) Settled() int {
	return p.Completed + p.Failed
}

// Pending returns the number of items that have not settled yet.
func (p Progress) Pending() int {
	return p.Total - p.Settled()
}

// IsComplete returns true if all items have settled.
func (p Progress) IsComplete() bool {
	return p.Settled() >= p.Total
}

// String renders progress for log lines and terminals.
func (p Progress) String() string {
	s := fmt.Sprintf("%d%% (%d/%d, %d failed, batch %d/%d)",
		p.Percentage, p.Settled(), p.Total, p.Failed, p.CurrentBatch, p.TotalBatches)
	if p.EstimatedTimeRemaining > 0 {
		s += fmt.Sprintf(", ETA %s", p.EstimatedTimeRemaining.Round(time.Second))
	}
	return s
}

// Tracker aggregates item outcomes into Progress and notifies a callback.
// It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	state    Progress
	start    time.Time
	now      func() time.Time
	callback ProgressCallback
}

// NewTracker creates a tracker for total items split into totalBatches batches.
func NewTracker(total, totalBatches int, callback ProgressCallback) *Tracker {
	return newTrackerWithClock(total, totalBatches, callback, time.Now)
}

func newTrackerWithClock(total, totalBatches int, callback ProgressCallback, now func() time.Time) *Tracker {
	return &Tracker{
		state: Progress{
			Total:        total,
			TotalBatches: totalBatches,
		},
		start:    now(),
		now:      now,
		callback: callback,
	}
}

// StartBatch records the 1-based index of the batch about to run.
func (t *Tracker) StartBatch(index int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.CurrentBatch = index
}

// RecordSuccess counts one successful item and notifies the callback.
func (t *Tracker) RecordSuccess() {
	t.record(true)
}

// RecordFailure counts one failed item and notifies the callback.
func (t *Tracker) RecordFailure() {
	t.record(false)
}

// record updates the counters and invokes the callback while holding the lock,
// so callbacks observe updates one at a time and in order.
func (t *Tracker) record(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if success {
		t.state.Completed++
	} else {
		t.state.Failed++
	}
	t.recompute()

	if t.callback != nil {
		t.callback(t.state)
	}
}

// Snapshot returns a copy of the current progress state.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.state
	snap.Elapsed = t.now().Sub(t.start)
	return snap
}

// recompute derives percentage, elapsed time and ETA. Must be called with mu held.
func (t *Tracker) recompute() {
	elapsed := t.now().Sub(t.start)
	t.state.Elapsed = elapsed

	if t.state.Total == 0 {
		t.state.Percentage = 0
		t.state.EstimatedTimeRemaining = 0
		return
	}

	ratio := float64(t.state.Settled()) / float64(t.state.Total)
	t.state.Percentage = int(math.Round(ratio * percentMultiplier))

	if t.state.Percentage > 0 && t.state.Percentage < percentMultiplier {
		estimatedTotal := time.Duration(float64(elapsed) / ratio)
		t.state.EstimatedTimeRemaining = estimatedTotal - elapsed
	} else {
		t.state.EstimatedTimeRemaining = 0
	}
}
