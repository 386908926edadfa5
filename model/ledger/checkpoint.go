package ledger

import (
	"fmt"
)

// Checkpoint is a statement of the ledger's committed state at a given
// version: the root of the transaction accumulator with that many leaves,
// plus the epoch the version belongs to. A checkpoint whose NextEpochState is
// set ends its epoch.
type Checkpoint struct {
	Epoch           uint64
	Version         Version
	AccumulatorRoot Hash
	TimestampMicros uint64
	// NextEpochState is set iff the transaction at Version ends the epoch.
	NextEpochState *EpochState
}

// EndsEpoch returns true if this checkpoint marks a reconfiguration.
func (c *Checkpoint) EndsEpoch() bool {
	return c.NextEpochState != nil
}

// Hash returns the canonical identifier of the checkpoint.
func (c *Checkpoint) Hash() Hash {
	return MakeHash(c)
}

// SignedCheckpoint is a checkpoint carrying validator signatures. Signature
// aggregation and verification against the validator set is outside the
// commit pipeline; signatures are opaque bytes keyed by signer identity.
type SignedCheckpoint struct {
	Checkpoint Checkpoint
	Signatures map[string][]byte
}

func (c *SignedCheckpoint) String() string {
	return fmt.Sprintf("checkpoint{epoch: %d, version: %d, root: %s, signers: %d}",
		c.Checkpoint.Epoch, c.Checkpoint.Version, c.Checkpoint.AccumulatorRoot, len(c.Signatures))
}
