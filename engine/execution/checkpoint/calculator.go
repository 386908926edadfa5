// Package checkpoint implements the reference checkpoint calculator: it
// turns raw chunk execution output into a staged state snapshot, and later
// finalizes the staged computation into accumulator-backed transaction infos.
package checkpoint

import (
	"fmt"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
)

type Calculator struct{}

var _ execution.CheckpointCalculator = (*Calculator)(nil)

func NewCalculator() *Calculator {
	return &Calculator{}
}

// Stage computes the result snapshot of the given execution output on top of
// the parent snapshot and assembles the staged ledger-update record.
// Transactions whose status is discard or retry are excluded from the result
// state and surfaced during finalization.
func (c *Calculator) Stage(
	output *execution.ExecutionOutput,
	parent *delta.Snapshot,
	knownCheckpoints []*ledger.Hash,
) (*delta.Snapshot, *ledger.EpochState, *execution.StagedLedgerUpdate, error) {

	if len(output.Transactions) != len(output.Outputs) {
		return nil, nil, nil, fmt.Errorf("output count mismatch: %d transactions, %d outputs",
			len(output.Transactions), len(output.Outputs))
	}

	staged := &execution.StagedLedgerUpdate{}
	var keptWriteSets []ledger.WriteSet
	var nextEpochState *ledger.EpochState

	for i := range output.Transactions {
		out := output.Outputs[i]
		switch out.Status {
		case ledger.StatusDiscard:
			staged.ToDiscard = append(staged.ToDiscard, output.Transactions[i])
			continue
		case ledger.StatusRetry:
			staged.ToRetry = append(staged.ToRetry, output.Transactions[i])
			continue
		}

		staged.Transactions = append(staged.Transactions, output.Transactions[i])
		staged.Outputs = append(staged.Outputs, out)
		keptWriteSets = append(keptWriteSets, out.WriteSet)

		for _, event := range out.Events.Reconfigurations() {
			next, err := ledger.EpochStateFromEvent(event)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("could not parse epoch change event: %w", err)
			}
			nextEpochState = next
		}
	}

	if knownCheckpoints != nil {
		if len(knownCheckpoints) != len(staged.Transactions) {
			return nil, nil, nil, fmt.Errorf("known checkpoint count mismatch: %d checkpoints, %d kept transactions",
				len(knownCheckpoints), len(staged.Transactions))
		}
		staged.StateCheckpointHashes = knownCheckpoints
	} else {
		staged.StateCheckpointHashes = make([]*ledger.Hash, len(staged.Transactions))
	}

	resultState := parent.Advance(keptWriteSets)

	return resultState, nextEpochState, staged, nil
}

// Finalize extends the parent accumulator with the staged update, producing
// the canonical transaction infos and the finalized ledger-update output.
func (c *Calculator) Finalize(
	staged *execution.StagedLedgerUpdate,
	parent *accumulator.Accumulator,
) (*execution.LedgerUpdateOutput, []ledger.Transaction, []ledger.Transaction, error) {

	infos := make([]ledger.TransactionInfo, len(staged.Transactions))
	leaves := make([]ledger.Hash, len(staged.Transactions))
	for i := range staged.Transactions {
		out := staged.Outputs[i]
		infos[i] = ledger.TransactionInfo{
			TransactionHash:     staged.Transactions[i].Hash(),
			WriteSetHash:        out.WriteSet.Hash(),
			EventRootHash:       out.Events.RootHash(),
			StateCheckpointHash: staged.StateCheckpointHashes[i],
			GasUsed:             out.GasUsed,
			Status:              out.Status,
		}
		leaves[i] = infos[i].Hash()
	}

	output := &execution.LedgerUpdateOutput{
		FirstVersion:     parent.NumLeaves(),
		Transactions:     staged.Transactions,
		Outputs:          staged.Outputs,
		TransactionInfos: infos,
		Accumulator:      parent.Append(leaves),
	}

	return output, staged.ToDiscard, staged.ToRetry, nil
}
