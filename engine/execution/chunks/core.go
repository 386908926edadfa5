package chunks

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/metrics"
	"github.com/meridianledger/meridian-go/module/signature"
	"github.com/meridianledger/meridian-go/storage"
)

// core is one incarnation of the pipeline: a commit queue initialized from
// the store's persisted state, plus the collaborators needed to drive chunks
// through it. The facade discards and recreates cores on reset.
type core struct {
	log        zerolog.Logger
	metrics    metrics.ChunkExecutionMetrics
	db         storage.Ledger
	vm         execution.TransactionExecutor
	verifier   execution.ProofVerifier
	calculator execution.CheckpointCalculator
	sigPool    *signature.Pool

	queue *CommitQueue
}

func newCore(
	log zerolog.Logger,
	collector metrics.ChunkExecutionMetrics,
	db storage.Ledger,
	vm execution.TransactionExecutor,
	verifier execution.ProofVerifier,
	calculator execution.CheckpointCalculator,
	sigPool *signature.Pool,
) (*core, error) {

	persisted, acc, err := db.CurrentState()
	if err != nil {
		return nil, fmt.Errorf("could not load persisted state: %w", err)
	}

	return &core{
		log:        log,
		metrics:    collector,
		db:         db,
		vm:         vm,
		verifier:   verifier,
		calculator: calculator,
		sigPool:    sigPool,
		queue:      NewCommitQueue(persisted, acc),
	}, nil
}

// latestStateView derives a read-only execution view from the given
// snapshot, reading through to the persisted store.
func (c *core) latestStateView(snapshot *delta.Snapshot) *delta.View {
	return delta.NewView(snapshot.ReadFunc(c.db.GetState))
}

func (c *core) enqueueChunkByExecution(chunk *ledger.ChunkWithProof, target *ledger.SignedCheckpoint, epochChange *ledger.SignedCheckpoint) error {
	start := time.Now()

	numTxns := len(chunk.Transactions)
	if numTxns == 0 {
		return NewInvalidChunkErrorf("empty transaction list")
	}
	if chunk.FirstVersion == nil {
		return NewInvalidChunkErrorf("non-empty chunk with no first version")
	}
	firstVersion := *chunk.FirstVersion

	parentState := c.queue.LatestState()
	if firstVersion != parentState.NextVersion() {
		return NewInvalidChunkErrorf("version in request: %d, current next version: %d",
			firstVersion, parentState.NextVersion())
	}

	err := c.verifier.Verify(&chunk.Proof, target, &firstVersion)
	if err != nil {
		return NewInvalidChunkErrorf("chunk proof rejected: %v", err)
	}
	knownCheckpoints := chunk.Proof.StateCheckpointHashes()

	// pre-check signatures in parallel, preserving order
	sigVerified := c.sigPool.VerifyTransactions(chunk.Transactions)

	// execute against a view over the latest staged state
	view := c.latestStateView(parentState)
	chunkOutput, err := c.vm.Execute(sigVerified, view, nil)
	if err != nil {
		return fmt.Errorf("could not execute chunk: %w", err)
	}

	err = c.stageChunk(chunkOutput, parentState, knownCheckpoints, chunk.Proof, target, epochChange)
	if err != nil {
		return err
	}

	c.metrics.ChunkExecuted(time.Since(start), numTxns)
	c.log.Info().
		Uint64("first_version_in_request", uint64(firstVersion)).
		Int("num_txns_in_request", numTxns).
		Msg("executed transaction chunk")

	return nil
}

func (c *core) enqueueChunkByOutputs(chunk *ledger.OutputChunkWithProof, target *ledger.SignedCheckpoint, epochChange *ledger.SignedCheckpoint) error {
	start := time.Now()

	numTxns := len(chunk.TransactionsAndOutputs)
	if numTxns == 0 {
		return NewInvalidChunkErrorf("empty transaction and output list")
	}
	if chunk.FirstVersion == nil {
		return NewInvalidChunkErrorf("non-empty chunk with no first version")
	}
	firstVersion := *chunk.FirstVersion

	parentState := c.queue.LatestState()
	if firstVersion != parentState.NextVersion() {
		return NewInvalidChunkErrorf("version in request: %d, current next version: %d",
			firstVersion, parentState.NextVersion())
	}

	err := c.verifier.Verify(&chunk.Proof, target, &firstVersion)
	if err != nil {
		return NewInvalidChunkErrorf("chunk proof rejected: %v", err)
	}
	knownCheckpoints := chunk.Proof.StateCheckpointHashes()

	// outputs are trusted; apply them without execution
	chunkOutput := execution.OutputByApply(chunk.TransactionsAndOutputs)

	err = c.stageChunk(chunkOutput, parentState, knownCheckpoints, chunk.Proof, target, epochChange)
	if err != nil {
		return err
	}

	c.metrics.ChunkApplied(time.Since(start), numTxns)
	c.log.Info().
		Uint64("first_version_in_request", uint64(firstVersion)).
		Int("num_txns_in_request", numTxns).
		Msg("applied transaction output chunk")

	return nil
}

// stageChunk runs the checkpoint calculation on raw chunk output and pushes
// the result into stage one.
func (c *core) stageChunk(
	chunkOutput *execution.ExecutionOutput,
	parentState *delta.Snapshot,
	knownCheckpoints []*ledger.Hash,
	proof ledger.TransactionInfoListProof,
	target *ledger.SignedCheckpoint,
	epochChange *ledger.SignedCheckpoint,
) error {

	resultState, nextEpochState, stagedUpdate, err := c.calculator.Stage(chunkOutput, parentState, knownCheckpoints)
	if err != nil {
		return fmt.Errorf("could not calculate state checkpoint: %w", err)
	}

	return c.queue.EnqueueForLedgerUpdate(&execution.StagedChunk{
		ResultState:    resultState,
		StagedUpdate:   stagedUpdate,
		NextEpochState: nextEpochState,
		Target:         target,
		EpochChange:    epochChange,
		Proof:          proof,
	})
}

func (c *core) updateLedger() error {
	start := time.Now()

	parentAccumulator, chunk, err := c.queue.NextChunkToUpdateLedger()
	if err != nil {
		return err
	}

	firstVersion := parentAccumulator.NumLeaves()
	overlap, err := chunk.Proof.VerifyExtendsLedger(firstVersion, parentAccumulator.RootHash())
	if err != nil {
		return NewConsistencyErrorf("chunk does not extend the accumulator: %v", err)
	}
	if overlap != 0 {
		return NewConsistencyErrorf("overlapped chunks: %d version(s) already accumulated", overlap)
	}

	ledgerUpdate, toDiscard, toRetry, err := c.calculator.Finalize(chunk.StagedUpdate, parentAccumulator)
	if err != nil {
		return fmt.Errorf("could not calculate ledger update: %w", err)
	}
	if len(toDiscard) != 0 {
		return NewConsistencyErrorf("unexpected discard of %d transaction(s)", len(toDiscard))
	}
	if len(toRetry) != 0 {
		return NewConsistencyErrorf("unexpected retry of %d transaction(s)", len(toRetry))
	}

	err = ledgerUpdate.EnsureTransactionInfosMatch(chunk.Proof.TransactionInfos)
	if err != nil {
		return NewConsistencyErrorf("execution diverged from canonical result: %v", err)
	}

	endingCheckpoint, err := ledgerUpdate.SelectChunkEndingCheckpoint(chunk.Target, chunk.EpochChange, chunk.NextEpochState)
	if err != nil {
		return NewConsistencyErrorf("could not select chunk ending checkpoint: %v", err)
	}

	executedChunk := &execution.ExecutedChunk{
		ResultState:    chunk.ResultState,
		Checkpoint:     endingCheckpoint,
		NextEpochState: chunk.NextEpochState,
		LedgerUpdate:   ledgerUpdate,
	}
	numTxns := len(executedChunk.TransactionsToCommit())

	err = c.queue.SaveLedgerUpdateOutput(executedChunk)
	if err != nil {
		return err
	}

	c.metrics.ChunkLedgerUpdated(time.Since(start), numTxns)
	c.log.Info().
		Uint64("first_version_in_request", uint64(firstVersion)).
		Int("num_txns_in_request", numTxns).
		Msg("calculated ledger update")

	return nil
}

// commitChunkImpl persists the oldest commit-ready chunk. On a storage error
// the chunk stays in stage two and the call can be retried.
func (c *core) commitChunkImpl() (*execution.ExecutedChunk, error) {
	persistedState, chunk, err := c.queue.NextChunkToCommit()
	if err != nil {
		return nil, err
	}

	if chunk.Checkpoint != nil || len(chunk.TransactionsToCommit()) != 0 {
		raw := &storage.RawChunk{
			FirstVersion:     persistedState.NextVersion(),
			Transactions:     chunk.LedgerUpdate.Transactions,
			TransactionInfos: chunk.LedgerUpdate.TransactionInfos,
			WriteSets:        chunk.WriteSets(),
			EventLists:       chunk.EventLists(),
		}
		err = c.db.WriteChunk(raw, chunk.Checkpoint, chunk.ResultState)
		if err != nil {
			return nil, fmt.Errorf("could not persist chunk starting at version %d: %w",
				persistedState.NextVersion(), err)
		}
	}

	err = c.queue.DequeueCommitted(chunk.ResultState)
	if err != nil {
		return nil, err
	}

	return chunk, nil
}

func (c *core) commitChunk() (*ledger.CommitNotification, error) {
	start := time.Now()

	executedChunk, err := c.commitChunkImpl()
	if err != nil {
		return nil, err
	}

	numTxns := len(executedChunk.TransactionsToCommit())
	c.metrics.ChunkCommitted(time.Since(start), numTxns)
	c.log.Info().
		Uint64("next_version", uint64(executedChunk.ResultState.NextVersion())).
		Int("num_txns", numTxns).
		Msg("committed chunk")

	return executedChunk.CommitNotification(), nil
}
