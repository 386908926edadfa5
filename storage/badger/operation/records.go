package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/meridianledger/meridian-go/model/ledger"
)

// AccumulatorState is the frozen representation of the transaction
// accumulator persisted alongside the committed version watermark.
type AccumulatorState struct {
	NumLeaves ledger.Version
	Root      ledger.Hash
}

// InsertTransaction inserts a transaction keyed by ledger version.
func InsertTransaction(version ledger.Version, tx *ledger.Transaction) func(*badger.Txn) error {
	return insert(makePrefix(codeTransaction, version), tx)
}

// RetrieveTransaction retrieves a transaction by ledger version.
func RetrieveTransaction(version ledger.Version, tx *ledger.Transaction) func(*badger.Txn) error {
	return retrieve(makePrefix(codeTransaction, version), tx)
}

// InsertTransactionInfo inserts the canonical transaction info of a version.
func InsertTransactionInfo(version ledger.Version, info *ledger.TransactionInfo) func(*badger.Txn) error {
	return insert(makePrefix(codeTransactionInfo, version), info)
}

// RetrieveTransactionInfo retrieves the canonical transaction info of a version.
func RetrieveTransactionInfo(version ledger.Version, info *ledger.TransactionInfo) func(*badger.Txn) error {
	return retrieve(makePrefix(codeTransactionInfo, version), info)
}

// InsertWriteSet inserts the write set produced at a version.
func InsertWriteSet(version ledger.Version, ws *ledger.WriteSet) func(*badger.Txn) error {
	return insert(makePrefix(codeWriteSet, version), ws)
}

// RetrieveWriteSet retrieves the write set produced at a version.
func RetrieveWriteSet(version ledger.Version, ws *ledger.WriteSet) func(*badger.Txn) error {
	return retrieve(makePrefix(codeWriteSet, version), ws)
}

// InsertEventList inserts the events emitted at a version.
func InsertEventList(version ledger.Version, events *ledger.EventList) func(*badger.Txn) error {
	return insert(makePrefix(codeEventList, version), events)
}

// RetrieveEventList retrieves the events emitted at a version.
func RetrieveEventList(version ledger.Version, events *ledger.EventList) func(*badger.Txn) error {
	return retrieve(makePrefix(codeEventList, version), events)
}

// UpsertRegister sets the latest value of a state key.
func UpsertRegister(key string, value []byte) func(*badger.Txn) error {
	return upsert(makePrefix(codeRegister, key), value)
}

// RemoveRegister unsets a state key.
func RemoveRegister(key string) func(*badger.Txn) error {
	return remove(makePrefix(codeRegister, key))
}

// RetrieveRegister retrieves the latest value of a state key.
func RetrieveRegister(key string, value *[]byte) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRegister, key), value)
}

// InsertNextVersion initializes the committed version watermark.
func InsertNextVersion(version ledger.Version) func(*badger.Txn) error {
	return insert(makePrefix(codeNextVersion), version)
}

// UpdateNextVersion advances the committed version watermark.
func UpdateNextVersion(version ledger.Version) func(*badger.Txn) error {
	return upsert(makePrefix(codeNextVersion), version)
}

// RetrieveNextVersion retrieves the committed version watermark.
func RetrieveNextVersion(version *ledger.Version) func(*badger.Txn) error {
	return retrieve(makePrefix(codeNextVersion), version)
}

// ExistsNextVersion checks whether the version watermark has been initialized,
// which marks the database as bootstrapped.
func ExistsNextVersion(ok *bool) func(*badger.Txn) error {
	return exists(makePrefix(codeNextVersion), ok)
}

// InsertAccumulator initializes the frozen accumulator state.
func InsertAccumulator(acc *AccumulatorState) func(*badger.Txn) error {
	return insert(makePrefix(codeAccumulator), acc)
}

// UpdateAccumulator replaces the frozen accumulator state.
func UpdateAccumulator(acc *AccumulatorState) func(*badger.Txn) error {
	return upsert(makePrefix(codeAccumulator), acc)
}

// RetrieveAccumulator retrieves the frozen accumulator state.
func RetrieveAccumulator(acc *AccumulatorState) func(*badger.Txn) error {
	return retrieve(makePrefix(codeAccumulator), acc)
}

// UpsertLatestCheckpoint stores the most recent signed checkpoint.
func UpsertLatestCheckpoint(checkpoint *ledger.SignedCheckpoint) func(*badger.Txn) error {
	return upsert(makePrefix(codeCheckpoint), checkpoint)
}

// RetrieveLatestCheckpoint retrieves the most recent signed checkpoint.
func RetrieveLatestCheckpoint(checkpoint *ledger.SignedCheckpoint) func(*badger.Txn) error {
	return retrieve(makePrefix(codeCheckpoint), checkpoint)
}
