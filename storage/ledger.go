package storage

import (
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
)

// StateReader provides read access to persisted ledger key-value state at the
// latest committed version.
type StateReader interface {
	// GetState returns the persisted value for a state key, or nil if the key
	// is not set. Deleted keys read as nil.
	GetState(key string) ([]byte, error)
}

// RawChunk holds the raw per-version records of a contiguous version range,
// as read back from the store. The four lists are parallel, one entry per
// version starting at FirstVersion.
type RawChunk struct {
	FirstVersion     ledger.Version
	Transactions     []ledger.Transaction
	TransactionInfos []ledger.TransactionInfo
	WriteSets        []ledger.WriteSet
	EventLists       []ledger.EventList
}

// ChunkReader provides read access to committed transaction records.
type ChunkReader interface {
	// ReadChunk returns the records of count versions starting at first.
	// Expected errors: ErrNotFound if any version in the range is not
	// committed.
	ReadChunk(first ledger.Version, count uint64) (*RawChunk, error)
}

// Ledger is the persistent ledger store consumed by the chunk commit
// pipeline. Implementations must serialize WriteChunk calls internally.
type Ledger interface {
	StateReader
	ChunkReader

	// CurrentState returns a snapshot of the persisted state together with the
	// transaction accumulator it is authenticated by.
	CurrentState() (*delta.Snapshot, *accumulator.Accumulator, error)

	// LatestCheckpoint returns the most recently persisted signed checkpoint.
	// Expected errors: ErrNotFound if no checkpoint has been persisted yet.
	LatestCheckpoint() (*ledger.SignedCheckpoint, error)

	// WriteChunk atomically persists the raw records of a chunk, applies its
	// write sets to the key-value state, advances the committed version
	// watermark and, if provided, stores the chunk-ending checkpoint.
	// The chunk's first version must equal the store's current next version.
	WriteChunk(chunk *RawChunk, checkpoint *ledger.SignedCheckpoint, resultState *delta.Snapshot) error
}
