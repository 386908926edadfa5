package execution

import (
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
)

// ChunkExecutor is the chunk commit pipeline: it takes chunks of transactions
// (or pre-computed transaction outputs) in an already-agreed order, applies
// them against ledger state in strict version order, stages the results
// through a ledger-update phase, and finally persists them.
//
// The three pipeline stages are driven by separate calls so they can run on
// independent threads: the enqueue calls produce staged chunks, UpdateLedger
// finalizes the accumulator extension of the oldest staged chunk, and
// CommitChunk persists the oldest finalized chunk.
type ChunkExecutor interface {

	// EnqueueChunkByExecution verifies the chunk proof, executes the
	// transactions against the latest staged state and stages the result for
	// ledger update. The chunk's first version must equal the pipeline's
	// current next version.
	EnqueueChunkByExecution(chunk *ledger.ChunkWithProof, target *ledger.SignedCheckpoint, epochChange *ledger.SignedCheckpoint) error

	// EnqueueChunkByOutputs is EnqueueChunkByExecution for chunks carrying
	// trusted pre-computed outputs; no execution takes place.
	EnqueueChunkByOutputs(chunk *ledger.OutputChunkWithProof, target *ledger.SignedCheckpoint, epochChange *ledger.SignedCheckpoint) error

	// UpdateLedger finalizes the ledger-update computation of the oldest
	// staged chunk and stages it for commit.
	UpdateLedger() error

	// CommitChunk persists the oldest commit-ready chunk and returns a
	// notification for external subscribers. On a storage error the chunk
	// remains staged and the call may be retried.
	CommitChunk() (*ledger.CommitNotification, error)

	// Reset discards the inner pipeline instance, losing all unpersisted
	// progress, and rebuilds it from the store's persisted state.
	Reset() error

	// Finish discards the inner pipeline instance without rebuilding it.
	// Subsequent calls other than Reset fail with a not-initialized error.
	Finish()
}

// TransactionReplayer reconstructs ledger history from raw transaction
// records, feeding results through the same staging/commit path as the chunk
// pipeline.
type TransactionReplayer interface {

	// Replay applies the given per-version records, which must cover a
	// contiguous version range starting at the pipeline's next version. The
	// four lists are parallel, one entry per version. Depending on the verify
	// mode, batches are re-executed and compared against the recorded
	// outcomes before being applied.
	Replay(
		transactions []ledger.Transaction,
		transactionInfos []ledger.TransactionInfo,
		writeSets []ledger.WriteSet,
		eventLists []ledger.EventList,
		mode *VerifyMode,
	) error

	// Commit persists the replayed chunk staged by previous Replay calls and
	// returns it.
	Commit() (*ExecutedChunk, error)
}

// TransactionExecutor executes transactions against a state view, returning
// per-transaction outputs in input order. Implementations must be
// deterministic: the same transactions against the same state produce the
// same outputs.
type TransactionExecutor interface {
	Execute(transactions []SignatureVerifiedTransaction, view *delta.View, gasLimit *uint64) (*ExecutionOutput, error)
}

// ProofVerifier validates a transaction info list proof against a signed
// target checkpoint. A permissive implementation that always accepts exists
// for trusted or offline execution contexts and is selected at construction
// time.
type ProofVerifier interface {
	Verify(proof *ledger.TransactionInfoListProof, target *ledger.SignedCheckpoint, firstVersion *ledger.Version) error
}

// CheckpointCalculator turns raw execution output into a state snapshot plus
// a staged ledger-update computation, and later finalizes that computation
// against the parent accumulator.
type CheckpointCalculator interface {

	// Stage computes the result state snapshot of the execution output on top
	// of the parent snapshot, detects a next-epoch marker in the emitted
	// events, and assembles the staged ledger-update record.
	// knownCheckpoints optionally carries per-version state checkpoint hashes
	// from a proof; if nil, no state checkpoints are recorded for the chunk.
	Stage(output *ExecutionOutput, parent *delta.Snapshot, knownCheckpoints []*ledger.Hash) (*delta.Snapshot, *ledger.EpochState, *StagedLedgerUpdate, error)

	// Finalize extends the parent accumulator with the staged update,
	// producing the finalized ledger-update output together with the
	// transactions to discard and to retry.
	Finalize(staged *StagedLedgerUpdate, parent *accumulator.Accumulator) (*LedgerUpdateOutput, []ledger.Transaction, []ledger.Transaction, error)
}
