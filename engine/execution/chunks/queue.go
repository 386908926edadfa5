package chunks

import (
	"fmt"
	"sync"

	"github.com/ef-ds/deque"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/module/accumulator"
)

// CommitQueue tracks chunks through the two pipeline stages — awaiting ledger
// update and awaiting commit — together with the authoritative state and
// accumulator watermarks used to validate new input.
//
// Every mutation is a short critical section under one lock; no execution,
// hashing or I/O happens while holding it. Callers snapshot what they need,
// release, compute, then re-acquire to mutate.
type CommitQueue struct {
	mu sync.Mutex

	// persistedState tracks the committed watermark: its next version is the
	// version after the last persisted chunk.
	persistedState *delta.Snapshot
	// latestState is the state after the most recently staged chunk,
	// regardless of commit progress.
	latestState *delta.Snapshot
	// latestAccumulator authenticates history up to the last chunk that
	// passed ledger update.
	latestAccumulator *accumulator.Accumulator

	// toUpdateLedger holds *execution.StagedChunk, oldest first.
	toUpdateLedger deque.Deque
	// toCommit holds *execution.ExecutedChunk, oldest first.
	toCommit deque.Deque
}

// NewCommitQueue creates a commit queue from the store's persisted state.
func NewCommitQueue(persisted *delta.Snapshot, acc *accumulator.Accumulator) *CommitQueue {
	return &CommitQueue{
		persistedState:    persisted,
		latestState:       persisted,
		latestAccumulator: acc,
	}
}

// LatestState returns the state after the most recently staged chunk. Its
// next version is what producers validate new input against.
func (q *CommitQueue) LatestState() *delta.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.latestState
}

// PersistedState returns the state at the committed watermark.
func (q *CommitQueue) PersistedState() *delta.Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.persistedState
}

// LatestView returns the latest staged state together with its accumulator.
// It errors while chunks are awaiting ledger update, because the accumulator
// has not caught up with the staged state yet.
func (q *CommitQueue) LatestView() (*delta.Snapshot, *accumulator.Accumulator, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.toUpdateLedger.Len() > 0 {
		return nil, nil, fmt.Errorf("%d chunk(s) awaiting ledger update", q.toUpdateLedger.Len())
	}
	return q.latestState, q.latestAccumulator, nil
}

// EnqueueForLedgerUpdate appends a chunk to stage one and advances the staged
// state watermark. Continuity was validated by the caller before execution;
// the queue only maintains FIFO order.
func (q *CommitQueue) EnqueueForLedgerUpdate(chunk *execution.StagedChunk) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.toUpdateLedger.PushBack(chunk)
	q.latestState = chunk.ResultState
	return nil
}

// NextChunkToUpdateLedger pops the oldest stage-one chunk together with the
// accumulator snapshot needed to finalize it.
func (q *CommitQueue) NextChunkToUpdateLedger() (*accumulator.Accumulator, *execution.StagedChunk, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.toUpdateLedger.PopFront()
	if !ok {
		return nil, nil, fmt.Errorf("no chunk staged for ledger update")
	}
	return q.latestAccumulator, v.(*execution.StagedChunk), nil
}

// SaveLedgerUpdateOutput pushes a finalized chunk into stage two and advances
// the accumulator watermark.
func (q *CommitQueue) SaveLedgerUpdateOutput(chunk *execution.ExecutedChunk) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.toCommit.PushBack(chunk)
	q.latestAccumulator = chunk.LedgerUpdate.Accumulator
	return nil
}

// NextChunkToCommit returns the oldest stage-two chunk together with the
// persisted-state snapshot needed to write it. The chunk stays in stage two
// until DequeueCommitted, so a failed persistence can be retried.
func (q *CommitQueue) NextChunkToCommit() (*delta.Snapshot, *execution.ExecutedChunk, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.toCommit.Front()
	if !ok {
		return nil, nil, fmt.Errorf("no chunk ready for commit")
	}
	return q.persistedState, v.(*execution.ExecutedChunk), nil
}

// DequeueCommitted advances the committed watermark after a successful store
// write, removing the committed chunk from stage two. The overlay of the new
// persisted state is dropped, since all of it is now in the store.
func (q *CommitQueue) DequeueCommitted(newPersisted *delta.Snapshot) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.toCommit.PopFront()
	if !ok {
		return fmt.Errorf("no committed chunk to dequeue")
	}
	q.persistedState = newPersisted.Compact()
	return nil
}

// EnqueueChunkToCommitDirectly pushes a chunk straight into stage two,
// bypassing the ledger-update stage. Used by replay, whose batches finalize
// their ledger update inline. Stage one must be empty, otherwise version
// ordering across the stages would break.
func (q *CommitQueue) EnqueueChunkToCommitDirectly(chunk *execution.ExecutedChunk) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.toUpdateLedger.Len() > 0 {
		return NewConsistencyErrorf("cannot enqueue directly while %d chunk(s) await ledger update",
			q.toUpdateLedger.Len())
	}
	q.toCommit.PushBack(chunk)
	q.latestState = chunk.ResultState
	q.latestAccumulator = chunk.LedgerUpdate.Accumulator
	return nil
}
