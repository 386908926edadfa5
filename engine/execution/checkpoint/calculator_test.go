package checkpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/checkpoint"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
	"github.com/meridianledger/meridian-go/utils/unittest"
)

func executionOutputFixture(t *testing.T) *execution.ExecutionOutput {
	reconfig, err := ledger.EpochChangeEvent(ledger.EpochState{
		Epoch:            2,
		ValidatorSetHash: ledger.MakeHash("validators"),
	})
	require.NoError(t, err)

	txs := unittest.TransactionFixtures(t, 0, 4)
	return &execution.ExecutionOutput{
		Transactions: txs,
		Outputs: []ledger.TransactionOutput{
			{
				WriteSet: ledger.WriteSet{{Key: "acct/0", Value: []byte{1}}},
				GasUsed:  11,
				Status:   ledger.StatusExecuted,
			},
			{Status: ledger.StatusDiscard},
			{Status: ledger.StatusRetry},
			{
				WriteSet: ledger.WriteSet{{Key: "acct/3", Value: []byte{3}}},
				Events:   ledger.EventList{reconfig},
				GasUsed:  13,
				Status:   ledger.StatusExecuted,
			},
		},
	}
}

func TestCalculatorStage(t *testing.T) {
	calc := checkpoint.NewCalculator()
	parent := delta.NewSnapshot(10)
	output := executionOutputFixture(t)

	resultState, nextEpochState, staged, err := calc.Stage(output, parent, nil)
	require.NoError(t, err)

	// discard and retry are excluded from the kept set and surfaced separately
	require.Len(t, staged.Transactions, 2)
	assert.Equal(t, output.Transactions[0], staged.Transactions[0])
	assert.Equal(t, output.Transactions[3], staged.Transactions[1])
	require.Len(t, staged.ToDiscard, 1)
	assert.Equal(t, output.Transactions[1], staged.ToDiscard[0])
	require.Len(t, staged.ToRetry, 1)
	assert.Equal(t, output.Transactions[2], staged.ToRetry[0])

	// without known checkpoints, every kept transaction gets a nil hash
	require.Len(t, staged.StateCheckpointHashes, 2)
	assert.Nil(t, staged.StateCheckpointHashes[0])
	assert.Nil(t, staged.StateCheckpointHashes[1])

	// only kept write sets advance the state
	assert.Equal(t, ledger.Version(12), resultState.NextVersion())
	op, ok := resultState.Lookup("acct/0")
	require.True(t, ok)
	assert.Equal(t, []byte{1}, op.Value)

	require.NotNil(t, nextEpochState)
	assert.Equal(t, uint64(2), nextEpochState.Epoch)
}

func TestCalculatorStageKnownCheckpoints(t *testing.T) {
	calc := checkpoint.NewCalculator()
	parent := delta.NewSnapshot(0)
	output := executionOutputFixture(t)

	t.Run("count must match kept transactions", func(t *testing.T) {
		// 4 outputs but only 2 kept
		known := make([]*ledger.Hash, 4)
		_, _, _, err := calc.Stage(output, parent, known)
		require.Error(t, err)
	})

	t.Run("known hashes are carried through", func(t *testing.T) {
		hash := ledger.MakeHash("state checkpoint")
		known := []*ledger.Hash{nil, &hash}
		_, _, staged, err := calc.Stage(output, parent, known)
		require.NoError(t, err)
		assert.Equal(t, known, staged.StateCheckpointHashes)
	})
}

func TestCalculatorFinalize(t *testing.T) {
	calc := checkpoint.NewCalculator()
	parent := delta.NewSnapshot(0)
	output := executionOutputFixture(t)

	_, _, staged, err := calc.Stage(output, parent, nil)
	require.NoError(t, err)

	parentAcc := accumulator.Empty().Append([]ledger.Hash{ledger.MakeHash("prior leaf")})
	ledgerUpdate, toDiscard, toRetry, err := calc.Finalize(staged, parentAcc)
	require.NoError(t, err)

	assert.Len(t, toDiscard, 1)
	assert.Len(t, toRetry, 1)

	assert.Equal(t, parentAcc.NumLeaves(), ledgerUpdate.FirstVersion)
	assert.Equal(t, ledger.Version(3), ledgerUpdate.NextVersion())
	require.Len(t, ledgerUpdate.TransactionInfos, 2)

	info := ledgerUpdate.TransactionInfos[0]
	out := staged.Outputs[0]
	assert.Equal(t, staged.Transactions[0].Hash(), info.TransactionHash)
	assert.Equal(t, out.WriteSet.Hash(), info.WriteSetHash)
	assert.Equal(t, out.Events.RootHash(), info.EventRootHash)
	assert.Equal(t, out.GasUsed, info.GasUsed)
	assert.Equal(t, out.Status, info.Status)

	leaves := []ledger.Hash{
		ledgerUpdate.TransactionInfos[0].Hash(),
		ledgerUpdate.TransactionInfos[1].Hash(),
	}
	assert.Equal(t, parentAcc.Append(leaves).RootHash(), ledgerUpdate.Accumulator.RootHash())
	assert.Equal(t, ledger.Version(3), ledgerUpdate.Accumulator.NumLeaves())
}
