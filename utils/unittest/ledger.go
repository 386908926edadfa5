package unittest

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/storage"
)

// FailingLedger wraps a ledger store and fails the first FailWrites calls to
// WriteChunk before delegating, to exercise commit retry paths.
type FailingLedger struct {
	storage.Ledger
	remaining atomic.Int64
}

func NewFailingLedger(inner storage.Ledger, failWrites int64) *FailingLedger {
	f := &FailingLedger{Ledger: inner}
	f.remaining.Store(failWrites)
	return f
}

func (f *FailingLedger) WriteChunk(
	chunk *storage.RawChunk,
	checkpoint *ledger.SignedCheckpoint,
	resultState *delta.Snapshot,
) error {
	if f.remaining.Dec() >= 0 {
		return fmt.Errorf("injected write failure")
	}
	return f.Ledger.WriteChunk(chunk, checkpoint, resultState)
}

var _ storage.Ledger = (*FailingLedger)(nil)
