package execution

import (
	"fmt"

	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
)

// SignatureVerifiedTransaction is a transaction annotated with the result of
// the signature pre-check. Invalid transactions are still handed to the
// executor, which discards them.
type SignatureVerifiedTransaction struct {
	Transaction ledger.Transaction
	Valid       bool
}

// IntoSignatureVerified marks the given transactions as signature-verified
// without checking, for contexts where signatures are trusted (replay of
// recorded history).
func IntoSignatureVerified(transactions []ledger.Transaction) []SignatureVerifiedTransaction {
	verified := make([]SignatureVerifiedTransaction, len(transactions))
	for i, tx := range transactions {
		verified[i] = SignatureVerifiedTransaction{Transaction: tx, Valid: true}
	}
	return verified
}

// ExecutionOutput is the raw result of executing (or directly applying) a
// chunk of transactions: the transactions plus their outputs, in order.
type ExecutionOutput struct {
	Transactions []ledger.Transaction
	Outputs      []ledger.TransactionOutput
}

// OutputByApply wraps pre-computed transaction outputs into an execution
// output, as if the transactions had just been executed.
func OutputByApply(pairs []ledger.TransactionAndOutput) *ExecutionOutput {
	out := &ExecutionOutput{
		Transactions: make([]ledger.Transaction, len(pairs)),
		Outputs:      make([]ledger.TransactionOutput, len(pairs)),
	}
	for i, pair := range pairs {
		out.Transactions[i] = pair.Transaction
		out.Outputs[i] = pair.Output
	}
	return out
}

// StagedLedgerUpdate is the staged checkpoint computation produced by stage
// one of the pipeline: the to-keep transactions with their outputs and state
// checkpoint hashes, plus the transactions to surface as discarded or
// retry-needed during finalization.
type StagedLedgerUpdate struct {
	Transactions          []ledger.Transaction
	Outputs               []ledger.TransactionOutput
	StateCheckpointHashes []*ledger.Hash
	ToDiscard             []ledger.Transaction
	ToRetry               []ledger.Transaction
}

// LedgerUpdateOutput is the finalized ledger-update result of a chunk: the
// canonical transaction infos, the accumulator extended by them, and the raw
// records to persist.
type LedgerUpdateOutput struct {
	FirstVersion     ledger.Version
	Transactions     []ledger.Transaction
	Outputs          []ledger.TransactionOutput
	TransactionInfos []ledger.TransactionInfo
	// Accumulator authenticates the ledger history up to and including this
	// chunk.
	Accumulator *accumulator.Accumulator
}

// NextVersion returns the version following the last transaction of this
// output.
func (o *LedgerUpdateOutput) NextVersion() ledger.Version {
	return o.FirstVersion + ledger.Version(len(o.Transactions))
}

// EnsureTransactionInfosMatch checks the computed infos against the claimed
// canonical infos carried by a proof. A mismatch signals non-determinism
// between execution and the claimed result and is fatal for the chunk.
func (o *LedgerUpdateOutput) EnsureTransactionInfosMatch(claimed []ledger.TransactionInfo) error {
	if len(o.TransactionInfos) != len(claimed) {
		return fmt.Errorf("transaction info count mismatch: computed %d, claimed %d",
			len(o.TransactionInfos), len(claimed))
	}
	for i := range o.TransactionInfos {
		err := o.TransactionInfos[i].Matches(&claimed[i])
		if err != nil {
			return fmt.Errorf("transaction info mismatch at version %d: %w",
				o.FirstVersion+ledger.Version(i), err)
		}
	}
	return nil
}

// SelectChunkEndingCheckpoint determines the checkpoint concluding this
// chunk, if any: the verified target if the chunk reaches its version, else
// the epoch-change checkpoint if one was supplied, nil otherwise. The
// selected checkpoint's accumulator root must match the chunk's computed
// root.
func (o *LedgerUpdateOutput) SelectChunkEndingCheckpoint(
	target *ledger.SignedCheckpoint,
	epochChange *ledger.SignedCheckpoint,
	nextEpochState *ledger.EpochState,
) (*ledger.SignedCheckpoint, error) {

	lastVersion := o.NextVersion() - 1

	if target.Checkpoint.Version == lastVersion {
		// the chunk reaches the verified target, which concludes it whether
		// or not the chunk also ends an epoch
		if target.Checkpoint.AccumulatorRoot != o.Accumulator.RootHash() {
			return nil, fmt.Errorf("target checkpoint root %s does not match computed accumulator root %s",
				target.Checkpoint.AccumulatorRoot, o.Accumulator.RootHash())
		}
		return target, nil
	}

	if epochChange != nil {
		if epochChange.Checkpoint.AccumulatorRoot != o.Accumulator.RootHash() {
			return nil, fmt.Errorf("epoch change checkpoint root %s does not match computed accumulator root %s",
				epochChange.Checkpoint.AccumulatorRoot, o.Accumulator.RootHash())
		}
		if epochChange.Checkpoint.Version != lastVersion {
			return nil, fmt.Errorf("epoch change checkpoint at version %d cannot conclude chunk ending at version %d",
				epochChange.Checkpoint.Version, lastVersion)
		}
		if !epochChange.Checkpoint.EndsEpoch() {
			return nil, fmt.Errorf("epoch change checkpoint %s does not end an epoch", epochChange)
		}
		if nextEpochState == nil || *epochChange.Checkpoint.NextEpochState != *nextEpochState {
			return nil, fmt.Errorf("epoch change checkpoint next epoch state does not match the computed one")
		}
		return epochChange, nil
	}

	if nextEpochState != nil {
		return nil, fmt.Errorf("chunk ends an epoch but no concluding checkpoint was provided")
	}
	return nil, nil
}
