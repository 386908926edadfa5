package ledger

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EpochState describes the active configuration of an epoch. The validator
// set itself is opaque to the commit pipeline; only its commitment is
// carried.
type EpochState struct {
	// Epoch is the monotonically increasing epoch counter.
	Epoch uint64
	// ValidatorSetHash commits to the validator configuration active in this
	// epoch.
	ValidatorSetHash Hash
}

// Hash returns the canonical identifier of the epoch state.
func (s *EpochState) Hash() Hash {
	return MakeHash(s)
}

// EpochChangeEvent encodes an epoch state into the payload of an epoch-change
// event.
func EpochChangeEvent(next EpochState) (Event, error) {
	payload, err := cbor.Marshal(&next)
	if err != nil {
		return Event{}, fmt.Errorf("could not encode epoch state: %w", err)
	}
	return Event{Type: EventEpochChange, Payload: payload}, nil
}

// EpochStateFromEvent decodes the next epoch state from an epoch-change
// event payload.
func EpochStateFromEvent(event Event) (*EpochState, error) {
	if event.Type != EventEpochChange {
		return nil, fmt.Errorf("not an epoch change event: %s", event.Type)
	}
	var next EpochState
	err := cbor.Unmarshal(event.Payload, &next)
	if err != nil {
		return nil, fmt.Errorf("could not decode epoch state: %w", err)
	}
	return &next, nil
}
