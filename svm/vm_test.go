package svm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/svm"
	"github.com/meridianledger/meridian-go/utils/unittest"
)

func execute(t *testing.T, txs []execution.SignatureVerifiedTransaction, gasLimit *uint64) (*execution.ExecutionOutput, *delta.View) {
	vm := svm.New(unittest.Logger())
	view := delta.NewView(delta.AlwaysEmptyGetFunc)
	out, err := vm.Execute(txs, view, gasLimit)
	require.NoError(t, err)
	return out, view
}

func TestVMExecute(t *testing.T) {
	tx := unittest.TransactionFixture(t, 0, &svm.Program{
		Reads: []string{"acct/0/balance"},
		Writes: []ledger.WriteOp{
			{Key: "acct/0/balance", Value: []byte{42}},
			{Key: "acct/0/nonce", Deletion: true},
		},
		Events: []ledger.Event{{Type: "ledger.Transfer", Payload: []byte("transfer")}},
	})

	out, view := execute(t, execution.IntoSignatureVerified([]ledger.Transaction{tx}), nil)

	require.Len(t, out.Outputs, 1)
	result := out.Outputs[0]
	assert.Equal(t, ledger.StatusExecuted, result.Status)
	assert.Len(t, result.WriteSet, 2)
	assert.Len(t, result.Events, 1)
	assert.NotZero(t, result.GasUsed)

	// writes are visible through the view
	value, err := view.Get("acct/0/balance")
	require.NoError(t, err)
	assert.Equal(t, []byte{42}, value)
	value, err = view.Get("acct/0/nonce")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestVMDiscards(t *testing.T) {
	t.Run("failed signature pre-check", func(t *testing.T) {
		tx := unittest.TransactionFixture(t, 0, unittest.ProgramFixture(0))
		out, _ := execute(t, []execution.SignatureVerifiedTransaction{
			{Transaction: tx, Valid: false},
		}, nil)
		assert.Equal(t, ledger.StatusDiscard, out.Outputs[0].Status)
		assert.Empty(t, out.Outputs[0].WriteSet)
	})

	t.Run("malformed payload", func(t *testing.T) {
		tx := unittest.TransactionFixture(t, 0, unittest.ProgramFixture(0))
		tx.Payload = []byte("not a cbor program")
		out, _ := execute(t, execution.IntoSignatureVerified([]ledger.Transaction{tx}), nil)
		assert.Equal(t, ledger.StatusDiscard, out.Outputs[0].Status)
	})
}

func TestVMAbort(t *testing.T) {
	tx := unittest.TransactionFixture(t, 0, &svm.Program{
		Writes: []ledger.WriteOp{{Key: "acct/0/balance", Value: []byte{1}}},
		Abort:  true,
	})

	out, view := execute(t, execution.IntoSignatureVerified([]ledger.Transaction{tx}), nil)

	result := out.Outputs[0]
	assert.Equal(t, ledger.StatusFailed, result.Status)
	// gas is charged but no write is applied
	assert.NotZero(t, result.GasUsed)
	assert.Empty(t, result.WriteSet)

	value, err := view.Get("acct/0/balance")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestVMGasLimit(t *testing.T) {
	txs := unittest.TransactionFixtures(t, 0, 3)
	sigVerified := execution.IntoSignatureVerified(txs)

	// measure the cost of the first transaction, then allow exactly that much
	unlimited, _ := execute(t, sigVerified, nil)
	gasLimit := unlimited.Outputs[0].GasUsed

	out, _ := execute(t, sigVerified, &gasLimit)

	assert.Equal(t, ledger.StatusExecuted, out.Outputs[0].Status)
	// everything beyond the limit is marked for retry, in order
	assert.Equal(t, ledger.StatusRetry, out.Outputs[1].Status)
	assert.Equal(t, ledger.StatusRetry, out.Outputs[2].Status)
}

func TestVMDeterminism(t *testing.T) {
	txs := unittest.TransactionFixtures(t, 0, 5)
	sigVerified := execution.IntoSignatureVerified(txs)

	first, _ := execute(t, sigVerified, nil)
	second, _ := execute(t, sigVerified, nil)
	assert.Equal(t, first, second)
}
