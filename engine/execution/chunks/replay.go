package chunks

import (
	"fmt"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
)

// replayRecord is the composite per-version record consumed by the replay
// engine. Zipping the caller's four parallel lists into one sequence removes
// any chance of them desynchronizing mid-replay.
type replayRecord struct {
	transaction ledger.Transaction
	info        ledger.TransactionInfo
	writeSet    ledger.WriteSet
	events      ledger.EventList
}

// replayCursor addresses replay records by ledger version.
type replayCursor struct {
	firstVersion ledger.Version
	records      []replayRecord
}

func (c *replayCursor) slice(begin, end ledger.Version) []replayRecord {
	return c.records[begin-c.firstVersion : end-c.firstVersion]
}

// replayView tracks the state snapshot and accumulator after the last
// applied batch.
type replayView struct {
	state *delta.Snapshot
	acc   *accumulator.Accumulator
}

// versionRange is a right-exclusive version interval.
type versionRange struct {
	begin ledger.Version
	end   ledger.Version
}

// partitionEpochs splits [begin, end) into contiguous epoch sub-ranges: a
// version whose event list carries a reconfiguration closes its epoch
// immediately after it.
func partitionEpochs(begin, end ledger.Version, eventLists []ledger.EventList) []versionRange {
	var epochs []versionRange
	epochBegin := begin
	for version := begin; version < end; version++ {
		if eventLists[version-begin].HasReconfiguration() {
			epochs = append(epochs, versionRange{begin: epochBegin, end: version + 1})
			epochBegin = version + 1
		}
	}
	if epochBegin < end {
		epochs = append(epochs, versionRange{begin: epochBegin, end: end})
	}
	return epochs
}

// replay applies the given per-version records against the latest staged
// state, re-verifying them per the verify mode, and stages the combined
// result directly for commit.
func (c *core) replay(
	transactions []ledger.Transaction,
	transactionInfos []ledger.TransactionInfo,
	writeSets []ledger.WriteSet,
	eventLists []ledger.EventList,
	mode *execution.VerifyMode,
) error {

	numTxns := len(transactions)
	if numTxns == 0 {
		return NewInvalidChunkErrorf("empty replay input")
	}
	if len(transactionInfos) != numTxns || len(writeSets) != numTxns || len(eventLists) != numTxns {
		return NewInvalidChunkErrorf("parallel input lists out of sync: %d txns, %d infos, %d write sets, %d event lists",
			numTxns, len(transactionInfos), len(writeSets), len(eventLists))
	}
	if mode == nil {
		mode = execution.NewVerifyModeDisabled()
	}

	latestState, latestAccumulator, err := c.queue.LatestView()
	if err != nil {
		return fmt.Errorf("replay requires an idle pipeline: %w", err)
	}

	chunkBegin := latestAccumulator.NumLeaves()
	chunkEnd := chunkBegin + ledger.Version(numTxns) // right-exclusive

	cursor := &replayCursor{
		firstVersion: chunkBegin,
		records:      make([]replayRecord, numTxns),
	}
	for i := 0; i < numTxns; i++ {
		cursor.records[i] = replayRecord{
			transaction: transactions[i],
			info:        transactionInfos[i],
			writeSet:    writeSets[i],
			events:      eventLists[i],
		}
	}

	view := &replayView{state: latestState, acc: latestAccumulator}

	var combined *execution.ExecutedChunk
	for _, epoch := range partitionEpochs(chunkBegin, chunkEnd, eventLists) {
		err = c.replayEpoch(&combined, view, cursor, epoch.begin, epoch.end, mode)
		if err != nil {
			return err
		}
	}

	return c.queue.EnqueueChunkToCommitDirectly(combined)
}

// replayEpoch replays [beginVersion, endVersion), which is guaranteed not to
// cross epoch boundaries. Batches are split at every skip-marked version:
// each of those is applied directly from its recorded output as an isolated
// single-transaction batch, everything in between is verified (per the
// verify mode) and applied.
func (c *core) replayEpoch(
	combined **execution.ExecutedChunk,
	view *replayView,
	cursor *replayCursor,
	beginVersion ledger.Version,
	endVersion ledger.Version,
	mode *execution.VerifyMode,
) error {

	skips := mode.SkipsInRange(beginVersion, endVersion)
	batchEnds := make([]ledger.Version, 0, len(skips)+1)
	batchEnds = append(batchEnds, skips...)
	batchEnds = append(batchEnds, endVersion)

	batchBegin := beginVersion
	nextEnd := 0
	batchEnd := batchEnds[nextEnd]
	for batchBegin < endVersion {
		if batchBegin == batchEnd {
			// batchEnd is a known broken version that won't pass execution
			// verification; apply its recorded output directly
			err := c.applyBatch(combined, view, cursor.slice(batchBegin, batchBegin+1))
			if err != nil {
				return err
			}
			c.log.Info().
				Uint64("version_skipped", uint64(batchBegin)).
				Msg("skipped known broken transaction, applied recorded output directly")
			batchBegin++
			nextEnd++
			batchEnd = batchEnds[nextEnd]
			continue
		}

		nextBegin := batchEnd
		if mode.ShouldVerify() {
			var err error
			nextBegin, err = c.verifyExecution(view, cursor.slice(batchBegin, batchEnd), batchBegin, mode)
			if err != nil {
				return err
			}
		}
		err := c.applyBatch(combined, view, cursor.slice(batchBegin, nextBegin))
		if err != nil {
			return err
		}
		batchBegin = nextBegin
	}

	return nil
}

// verifyExecution re-executes the given records against the current view and
// compares every produced output with the recorded outcome. It returns the
// version up to which the batch verified: the full batch end, or, in lazy
// mode after a mismatch, one version past the mismatch.
func (c *core) verifyExecution(
	view *replayView,
	records []replayRecord,
	beginVersion ledger.Version,
	mode *execution.VerifyMode,
) (ledger.Version, error) {

	transactions := make([]ledger.Transaction, len(records))
	for i := range records {
		transactions[i] = records[i].transaction
	}

	stateView := c.latestStateView(view.state)
	chunkOutput, err := c.vm.Execute(execution.IntoSignatureVerified(transactions), stateView, nil)
	if err != nil {
		return 0, fmt.Errorf("could not re-execute batch at version %d: %w", beginVersion, err)
	}

	for i := range records {
		version := beginVersion + ledger.Version(i)
		err = ensureMatchesRecorded(version, chunkOutput.Outputs[i], &records[i])
		if err != nil {
			if !mode.IsLazy() {
				return 0, err
			}
			c.log.Error().Err(err).Msg("not quitting right away on replay mismatch")
			mode.MarkError(err)
			c.metrics.ReplayMismatch()
			return version + 1, nil
		}
	}
	return beginVersion + ledger.Version(len(records)), nil
}

// ensureMatchesRecorded checks a re-executed output against the recorded
// outcome at the given version.
func ensureMatchesRecorded(version ledger.Version, out ledger.TransactionOutput, rec *replayRecord) error {
	computed := ledger.TransactionInfo{
		TransactionHash: rec.transaction.Hash(),
		WriteSetHash:    out.WriteSet.Hash(),
		EventRootHash:   out.Events.RootHash(),
		// execution does not produce state checkpoints; carry the recorded one
		StateCheckpointHash: rec.info.StateCheckpointHash,
		GasUsed:             out.GasUsed,
		Status:              out.Status,
	}
	err := computed.Matches(&rec.info)
	if err != nil {
		return fmt.Errorf("replayed outcome at version %d diverges from recorded: %w", version, err)
	}
	return nil
}

// applyBatch applies the recorded outputs of the given records on top of the
// replay view and merges the finalized batch into the accumulating result.
func (c *core) applyBatch(
	combined **execution.ExecutedChunk,
	view *replayView,
	records []replayRecord,
) error {

	pairs := make([]ledger.TransactionAndOutput, len(records))
	knownCheckpoints := make([]*ledger.Hash, len(records))
	claimedInfos := make([]ledger.TransactionInfo, len(records))
	for i, rec := range records {
		pairs[i] = ledger.TransactionAndOutput{
			Transaction: rec.transaction,
			Output: ledger.TransactionOutput{
				WriteSet: rec.writeSet,
				Events:   rec.events,
				GasUsed:  rec.info.GasUsed,
				Status:   rec.info.Status,
			},
		}
		knownCheckpoints[i] = rec.info.StateCheckpointHash
		claimedInfos[i] = rec.info
	}

	chunkOutput := execution.OutputByApply(pairs)
	resultState, nextEpochState, stagedUpdate, err := c.calculator.Stage(chunkOutput, view.state, knownCheckpoints)
	if err != nil {
		return fmt.Errorf("could not calculate state checkpoint for replayed batch: %w", err)
	}

	ledgerUpdate, toDiscard, toRetry, err := c.calculator.Finalize(stagedUpdate, view.acc)
	if err != nil {
		return fmt.Errorf("could not calculate ledger update for replayed batch: %w", err)
	}
	if len(toDiscard) != 0 {
		return NewConsistencyErrorf("unexpected discard of %d replayed transaction(s)", len(toDiscard))
	}
	if len(toRetry) != 0 {
		return NewConsistencyErrorf("unexpected retry of %d replayed transaction(s)", len(toRetry))
	}

	err = ledgerUpdate.EnsureTransactionInfosMatch(claimedInfos)
	if err != nil {
		return NewConsistencyErrorf("replayed batch diverged from recorded infos: %v", err)
	}

	batch := &execution.ExecutedChunk{
		ResultState:    resultState,
		NextEpochState: nextEpochState,
		LedgerUpdate:   ledgerUpdate,
	}

	if *combined == nil {
		*combined = batch
	} else {
		err = (*combined).Combine(batch)
		if err != nil {
			return NewConsistencyErrorf("could not combine replayed batches: %v", err)
		}
	}
	view.state = resultState
	view.acc = ledgerUpdate.Accumulator

	return nil
}
