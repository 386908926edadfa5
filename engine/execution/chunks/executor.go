// Package chunks implements the chunk-based ledger execution and replay
// pipeline: chunks of transactions (or pre-computed transaction outputs) are
// validated, executed, staged through a ledger-update phase and persisted in
// strict version order.
package chunks

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/metrics"
	"github.com/meridianledger/meridian-go/module/signature"
	"github.com/meridianledger/meridian-go/storage"
)

// Executor is the pipeline facade. It holds an optional inner pipeline
// instance behind one exclusive/shared lock: Reset and Finish take the lock
// exclusively to swap the instance, all pipeline and replay operations take
// it in shared mode and forward to the active instance.
//
// Lifecycle: Uninitialized (no instance yet, built lazily on first call) →
// Active → Finished (calls other than Reset fail with ErrNotInitialized,
// Reset re-enters Active).
type Executor struct {
	log        zerolog.Logger
	metrics    metrics.ChunkExecutionMetrics
	db         storage.Ledger
	vm         execution.TransactionExecutor
	verifier   execution.ProofVerifier
	calculator execution.CheckpointCalculator
	sigPool    *signature.Pool

	mu       sync.RWMutex
	inner    *core
	finished bool
}

var _ execution.ChunkExecutor = (*Executor)(nil)
var _ execution.TransactionReplayer = (*Executor)(nil)

// NewExecutor creates a pipeline facade over the given store and
// collaborators. The inner pipeline is built from the store's persisted state
// on the first call.
func NewExecutor(
	log zerolog.Logger,
	collector metrics.ChunkExecutionMetrics,
	db storage.Ledger,
	vm execution.TransactionExecutor,
	verifier execution.ProofVerifier,
	calculator execution.CheckpointCalculator,
	sigPool *signature.Pool,
) *Executor {
	return &Executor{
		log:        log.With().Str("component", "chunk_executor").Logger(),
		metrics:    collector,
		db:         db,
		vm:         vm,
		verifier:   verifier,
		calculator: calculator,
		sigPool:    sigPool,
	}
}

// maybeInitialize builds the inner pipeline if it does not exist yet. After
// Finish, initialization is refused until Reset.
func (e *Executor) maybeInitialize() error {
	e.mu.RLock()
	inner, finished := e.inner, e.finished
	e.mu.RUnlock()

	if inner != nil {
		return nil
	}
	if finished {
		return ErrNotInitialized
	}
	return e.Reset()
}

// acquire ensures an active inner instance and returns it together with the
// shared-mode release function. The instance is stable for the duration of
// the operation; only Reset/Finish swap it, and they need the exclusive lock.
func (e *Executor) acquire() (*core, func(), error) {
	err := e.maybeInitialize()
	if err != nil {
		return nil, nil, err
	}

	e.mu.RLock()
	if e.inner == nil {
		// finished between maybeInitialize and the read lock
		e.mu.RUnlock()
		return nil, nil, ErrNotInitialized
	}
	return e.inner, e.mu.RUnlock, nil
}

// EnqueueChunkByExecution verifies, executes and stages a chunk of
// transactions for ledger update.
func (e *Executor) EnqueueChunkByExecution(chunk *ledger.ChunkWithProof, target *ledger.SignedCheckpoint, epochChange *ledger.SignedCheckpoint) error {
	inner, release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()
	return inner.enqueueChunkByExecution(chunk, target, epochChange)
}

// EnqueueChunkByOutputs verifies and stages a chunk of pre-computed
// transaction outputs for ledger update.
func (e *Executor) EnqueueChunkByOutputs(chunk *ledger.OutputChunkWithProof, target *ledger.SignedCheckpoint, epochChange *ledger.SignedCheckpoint) error {
	inner, release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()
	return inner.enqueueChunkByOutputs(chunk, target, epochChange)
}

// UpdateLedger finalizes the ledger update of the oldest staged chunk.
func (e *Executor) UpdateLedger() error {
	inner, release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()
	return inner.updateLedger()
}

// CommitChunk persists the oldest commit-ready chunk.
func (e *Executor) CommitChunk() (*ledger.CommitNotification, error) {
	inner, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return inner.commitChunk()
}

// Replay applies raw per-version records through the replay engine.
func (e *Executor) Replay(
	transactions []ledger.Transaction,
	transactionInfos []ledger.TransactionInfo,
	writeSets []ledger.WriteSet,
	eventLists []ledger.EventList,
	mode *execution.VerifyMode,
) error {
	inner, release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()
	return inner.replay(transactions, transactionInfos, writeSets, eventLists, mode)
}

// Commit persists the chunk staged by previous Replay calls.
func (e *Executor) Commit() (*execution.ExecutedChunk, error) {
	inner, release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()
	return inner.commitChunkImpl()
}

// Reset discards the inner pipeline, losing all unpersisted progress, and
// rebuilds it from the store's persisted state.
func (e *Executor) Reset() error {
	inner, err := newCore(e.log, e.metrics, e.db, e.vm, e.verifier, e.calculator, e.sigPool)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inner = inner
	e.finished = false
	return nil
}

// Finish discards the inner pipeline without rebuilding it. Subsequent calls
// other than Reset fail with ErrNotInitialized.
func (e *Executor) Finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inner = nil
	e.finished = true
}
