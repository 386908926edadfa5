package operation_test

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/storage"
	"github.com/meridianledger/meridian-go/storage/badger/operation"
	"github.com/meridianledger/meridian-go/utils/unittest"
)

func TestTransactionInsertRetrieve(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		expected := unittest.TransactionFixture(t, 0, unittest.ProgramFixture(0))

		err := db.Update(operation.InsertTransaction(42, &expected))
		require.NoError(t, err)

		// a second insert under the same version is rejected
		err = db.Update(operation.InsertTransaction(42, &expected))
		require.ErrorIs(t, err, storage.ErrAlreadyExists)

		var actual ledger.Transaction
		err = db.View(operation.RetrieveTransaction(42, &actual))
		require.NoError(t, err)
		assert.Equal(t, expected, actual)

		err = db.View(operation.RetrieveTransaction(43, &actual))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestRegisterUpsertRemove(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		key := "acct/0/balance"

		var value []byte
		err := db.View(operation.RetrieveRegister(key, &value))
		require.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, db.Update(operation.UpsertRegister(key, []byte{1})))
		require.NoError(t, db.Update(operation.UpsertRegister(key, []byte{2})))

		err = db.View(operation.RetrieveRegister(key, &value))
		require.NoError(t, err)
		assert.Equal(t, []byte{2}, value)

		require.NoError(t, db.Update(operation.RemoveRegister(key)))
		err = db.View(operation.RetrieveRegister(key, &value))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestAccumulatorAndWatermark(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		var bootstrapped bool
		require.NoError(t, db.View(operation.ExistsNextVersion(&bootstrapped)))
		assert.False(t, bootstrapped)

		require.NoError(t, db.Update(operation.InsertNextVersion(0)))

		require.NoError(t, db.View(operation.ExistsNextVersion(&bootstrapped)))
		assert.True(t, bootstrapped)

		// a second init is rejected, updates go through UpdateNextVersion
		err := db.Update(operation.InsertNextVersion(0))
		require.ErrorIs(t, err, storage.ErrAlreadyExists)
		require.NoError(t, db.Update(operation.UpdateNextVersion(7)))

		var next ledger.Version
		require.NoError(t, db.View(operation.RetrieveNextVersion(&next)))
		assert.Equal(t, ledger.Version(7), next)

		expected := operation.AccumulatorState{
			NumLeaves: 7,
			Root:      ledger.MakeHash("accumulator root"),
		}
		require.NoError(t, db.Update(operation.InsertAccumulator(&expected)))

		var actual operation.AccumulatorState
		require.NoError(t, db.View(operation.RetrieveAccumulator(&actual)))
		assert.Equal(t, expected, actual)
	})
}

func TestLatestCheckpointUpsert(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		var missing ledger.SignedCheckpoint
		err := db.View(operation.RetrieveLatestCheckpoint(&missing))
		require.ErrorIs(t, err, storage.ErrNotFound)

		expected := ledger.SignedCheckpoint{
			Checkpoint: ledger.Checkpoint{
				Epoch:           1,
				Version:         9,
				AccumulatorRoot: ledger.MakeHash("root"),
			},
			Signatures: map[string][]byte{"validator-1": []byte("sig")},
		}
		require.NoError(t, db.Update(operation.UpsertLatestCheckpoint(&expected)))

		var actual ledger.SignedCheckpoint
		require.NoError(t, db.View(operation.RetrieveLatestCheckpoint(&actual)))
		assert.Equal(t, expected, actual)
	})
}
