package delta

import (
	"sort"

	"github.com/meridianledger/meridian-go/model/ledger"
)

// A Delta is a record of ledger state mutations keyed by state key. Later
// writes to the same key overwrite earlier ones.
type Delta struct {
	Data map[string]ledger.WriteOp
}

// NewDelta returns an empty state delta.
func NewDelta() Delta {
	return Delta{
		Data: make(map[string]ledger.WriteOp),
	}
}

// Get reads a value from this delta.
//
// The first return is nil if the key has been deleted in this delta. The
// second return indicates whether the key has been written at all.
func (d Delta) Get(key string) ([]byte, bool) {
	op, set := d.Data[key]
	if !set || op.Deletion {
		return nil, set
	}
	return op.Value, true
}

// Set records an update in this delta.
func (d Delta) Set(key string, value []byte) {
	d.Data[key] = ledger.WriteOp{Key: key, Value: value}
}

// Delete records a deletion in this delta.
func (d Delta) Delete(key string) {
	d.Data[key] = ledger.WriteOp{Key: key, Deletion: true}
}

// MergeWriteSet applies all operations of the given write set to this delta.
func (d Delta) MergeWriteSet(ws ledger.WriteSet) {
	for _, op := range ws {
		d.Data[op.Key] = op
	}
}

// UpdatedKeys returns all keys written in this delta, sorted in ascending
// order.
func (d Delta) UpdatedKeys() []string {
	keys := make([]string, 0, len(d.Data))
	for key := range d.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteSet flattens the delta into a write set, ordered by key.
func (d Delta) WriteSet() ledger.WriteSet {
	ws := make(ledger.WriteSet, 0, len(d.Data))
	for _, key := range d.UpdatedKeys() {
		ws = append(ws, d.Data[key])
	}
	return ws
}
