package ledger

import (
	"fmt"
)

// TransactionInfo is the canonical per-version record committed to the
// transaction accumulator: commitments to the transaction, its write set and
// events, plus execution metadata.
type TransactionInfo struct {
	TransactionHash Hash
	WriteSetHash    Hash
	EventRootHash   Hash
	// StateCheckpointHash commits to the full ledger state if this version is
	// a state checkpoint, nil otherwise.
	StateCheckpointHash *Hash
	GasUsed             uint64
	Status              TransactionStatus
}

// Hash returns the accumulator leaf hash for this transaction info.
func (i *TransactionInfo) Hash() Hash {
	return MakeHash(i)
}

// Matches checks this info against another for exact equality, returning a
// descriptive error on the first differing field.
func (i *TransactionInfo) Matches(other *TransactionInfo) error {
	if i.TransactionHash != other.TransactionHash {
		return fmt.Errorf("transaction hash mismatch: %s != %s", i.TransactionHash, other.TransactionHash)
	}
	if i.WriteSetHash != other.WriteSetHash {
		return fmt.Errorf("write set hash mismatch: %s != %s", i.WriteSetHash, other.WriteSetHash)
	}
	if i.EventRootHash != other.EventRootHash {
		return fmt.Errorf("event root hash mismatch: %s != %s", i.EventRootHash, other.EventRootHash)
	}
	if (i.StateCheckpointHash == nil) != (other.StateCheckpointHash == nil) {
		return fmt.Errorf("state checkpoint presence mismatch")
	}
	if i.StateCheckpointHash != nil && *i.StateCheckpointHash != *other.StateCheckpointHash {
		return fmt.Errorf("state checkpoint hash mismatch: %s != %s", i.StateCheckpointHash, other.StateCheckpointHash)
	}
	if i.GasUsed != other.GasUsed {
		return fmt.Errorf("gas used mismatch: %d != %d", i.GasUsed, other.GasUsed)
	}
	if i.Status != other.Status {
		return fmt.Errorf("status mismatch: %s != %s", i.Status, other.Status)
	}
	return nil
}
