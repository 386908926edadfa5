// Package accumulator implements the append-only transaction accumulator
// whose root authenticates the full history of committed transaction infos.
package accumulator

import (
	"github.com/meridianledger/meridian-go/model/ledger"
)

// Accumulator is an immutable view of the transaction accumulator at a given
// number of leaves. Append returns a new value; existing references are never
// mutated, so an Accumulator can be shared across goroutines freely.
type Accumulator struct {
	numLeaves ledger.Version
	root      ledger.Hash
}

// Empty returns the accumulator of an empty ledger.
func Empty() *Accumulator {
	return &Accumulator{
		numLeaves: 0,
		root:      ledger.ZeroHash,
	}
}

// New restores an accumulator from its frozen representation.
func New(numLeaves ledger.Version, root ledger.Hash) *Accumulator {
	return &Accumulator{
		numLeaves: numLeaves,
		root:      root,
	}
}

// NumLeaves returns the number of transaction infos accumulated, which equals
// the next version of the ledger it authenticates.
func (a *Accumulator) NumLeaves() ledger.Version {
	return a.numLeaves
}

// RootHash returns the current accumulator root.
func (a *Accumulator) RootHash() ledger.Hash {
	return a.root
}

// Append returns the accumulator extended by the given leaf hashes.
func (a *Accumulator) Append(leaves []ledger.Hash) *Accumulator {
	root := a.root
	for _, leaf := range leaves {
		root = ledger.ExtendRoot(root, leaf)
	}
	return &Accumulator{
		numLeaves: a.numLeaves + ledger.Version(len(leaves)),
		root:      root,
	}
}
