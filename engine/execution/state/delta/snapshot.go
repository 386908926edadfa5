package delta

import (
	"github.com/meridianledger/meridian-go/model/ledger"
)

// Snapshot is a versioned view of ledger key-value state, composed of a
// persisted base plus an in-memory overlay of not-yet-persisted writes.
//
// A Snapshot is immutable: Advance and Compact return new values, so a
// snapshot handed to a concurrent reader is never mutated underneath it.
type Snapshot struct {
	baseVersion ledger.Version
	nextVersion ledger.Version
	overlay     Delta
}

// NewSnapshot returns a snapshot of a fully persisted state: the transaction
// at persistedNextVersion is the next one not yet reflected, and the overlay
// is empty.
func NewSnapshot(persistedNextVersion ledger.Version) *Snapshot {
	return &Snapshot{
		baseVersion: persistedNextVersion,
		nextVersion: persistedNextVersion,
		overlay:     NewDelta(),
	}
}

// NextVersion returns the version of the next transaction not yet reflected
// in this snapshot.
func (s *Snapshot) NextVersion() ledger.Version {
	return s.nextVersion
}

// BaseVersion returns the next version of the persisted base this snapshot is
// built on.
func (s *Snapshot) BaseVersion() ledger.Version {
	return s.baseVersion
}

// CurrentVersion returns the version of the last transaction reflected in
// this snapshot. The second return is false for the snapshot of an empty
// ledger.
func (s *Snapshot) CurrentVersion() (ledger.Version, bool) {
	if s.nextVersion == 0 {
		return 0, false
	}
	return s.nextVersion - 1, true
}

// Lookup reads the unpersisted overlay. The second return indicates whether
// the key has been written since the persisted base; deletions are visible as
// write ops with Deletion set.
func (s *Snapshot) Lookup(key string) (ledger.WriteOp, bool) {
	op, ok := s.overlay.Data[key]
	return op, ok
}

// Advance returns a new snapshot with the given per-transaction write sets
// applied on top of this one, each write set advancing the version by one.
// The receiver is left untouched.
func (s *Snapshot) Advance(writeSets []ledger.WriteSet) *Snapshot {
	overlay := NewDelta()
	for key, op := range s.overlay.Data {
		overlay.Data[key] = op
	}
	for _, ws := range writeSets {
		overlay.MergeWriteSet(ws)
	}
	return &Snapshot{
		baseVersion: s.baseVersion,
		nextVersion: s.nextVersion + ledger.Version(len(writeSets)),
		overlay:     overlay,
	}
}

// Compact returns a snapshot of the same version with an empty overlay. Only
// valid once every overlay write has been persisted.
func (s *Snapshot) Compact() *Snapshot {
	return NewSnapshot(s.nextVersion)
}

// ReadFunc builds a state read function that consults the overlay first and
// falls back to the given persisted-state reader.
func (s *Snapshot) ReadFunc(persisted GetFunc) GetFunc {
	return func(key string) ([]byte, error) {
		op, ok := s.Lookup(key)
		if ok {
			if op.Deletion {
				return nil, nil
			}
			return op.Value, nil
		}
		return persisted(key)
	}
}
