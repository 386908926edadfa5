package execution

import (
	"fmt"

	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
)

// StagedChunk is the result of pipeline stage one: an executed (or directly
// applied) chunk awaiting ledger-update finalization. Owned solely by the
// commit queue until consumed by stage two.
type StagedChunk struct {
	// ResultState is the state snapshot after applying the chunk.
	ResultState *delta.Snapshot
	// StagedUpdate is the checkpoint computation to finalize in stage two.
	StagedUpdate *StagedLedgerUpdate
	// NextEpochState is set iff the chunk ends an epoch.
	NextEpochState *ledger.EpochState
	// Target is the caller's verified target checkpoint.
	Target *ledger.SignedCheckpoint
	// EpochChange is the caller's epoch-change checkpoint, if any.
	EpochChange *ledger.SignedCheckpoint
	// Proof carries the claimed canonical transaction infos.
	Proof ledger.TransactionInfoListProof
}

// ExecutedChunk is the result of pipeline stage two: a chunk with its
// ledger-update finalized, awaiting persistence.
type ExecutedChunk struct {
	// ResultState is the state snapshot after applying the chunk.
	ResultState *delta.Snapshot
	// Checkpoint is set iff this chunk ends an epoch or reaches the caller's
	// verified target.
	Checkpoint *ledger.SignedCheckpoint
	// NextEpochState is set iff the chunk ends an epoch.
	NextEpochState *ledger.EpochState
	// LedgerUpdate is the finalized ledger-update output.
	LedgerUpdate *LedgerUpdateOutput
}

// Combine merges an adjacent executed chunk into this one, extending it to
// cover the union of the two version ranges. The other chunk must start
// exactly where this one ends.
func (c *ExecutedChunk) Combine(other *ExecutedChunk) error {
	if other.LedgerUpdate.FirstVersion != c.LedgerUpdate.NextVersion() {
		return fmt.Errorf("cannot combine chunk starting at version %d onto chunk ending at version %d",
			other.LedgerUpdate.FirstVersion, c.LedgerUpdate.NextVersion())
	}
	c.ResultState = other.ResultState
	c.Checkpoint = other.Checkpoint
	c.NextEpochState = other.NextEpochState
	c.LedgerUpdate.Transactions = append(c.LedgerUpdate.Transactions, other.LedgerUpdate.Transactions...)
	c.LedgerUpdate.Outputs = append(c.LedgerUpdate.Outputs, other.LedgerUpdate.Outputs...)
	c.LedgerUpdate.TransactionInfos = append(c.LedgerUpdate.TransactionInfos, other.LedgerUpdate.TransactionInfos...)
	c.LedgerUpdate.Accumulator = other.LedgerUpdate.Accumulator
	return nil
}

// TransactionsToCommit returns the transactions persisted by this chunk.
func (c *ExecutedChunk) TransactionsToCommit() []ledger.Transaction {
	return c.LedgerUpdate.Transactions
}

// WriteSets returns the per-transaction write sets of this chunk.
func (c *ExecutedChunk) WriteSets() []ledger.WriteSet {
	writeSets := make([]ledger.WriteSet, len(c.LedgerUpdate.Outputs))
	for i := range c.LedgerUpdate.Outputs {
		writeSets[i] = c.LedgerUpdate.Outputs[i].WriteSet
	}
	return writeSets
}

// EventLists returns the per-transaction event lists of this chunk.
func (c *ExecutedChunk) EventLists() []ledger.EventList {
	eventLists := make([]ledger.EventList, len(c.LedgerUpdate.Outputs))
	for i := range c.LedgerUpdate.Outputs {
		eventLists[i] = c.LedgerUpdate.Outputs[i].Events
	}
	return eventLists
}

// CommitNotification assembles the notification returned to subscribers after
// this chunk is persisted.
func (c *ExecutedChunk) CommitNotification() *ledger.CommitNotification {
	var reconfigs ledger.EventList
	for i := range c.LedgerUpdate.Outputs {
		reconfigs = append(reconfigs, c.LedgerUpdate.Outputs[i].Events.Reconfigurations()...)
	}
	return &ledger.CommitNotification{
		CommittedTransactions: c.LedgerUpdate.Transactions,
		ReconfigEvents:        reconfigs,
	}
}
