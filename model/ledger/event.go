package ledger

// List of built-in event types.
const (
	// EventEpochChange is emitted by a transaction that ends the current
	// epoch; its payload encodes the EpochState of the next epoch.
	EventEpochChange EventType = "ledger.EpochChange"
)

type EventType string

// Event is emitted during transaction execution.
type Event struct {
	// Type is the qualified event type.
	Type EventType
	// Payload contains the encoded event data.
	Payload []byte
}

// Hash returns the canonical identifier of the event.
func (e Event) Hash() Hash {
	return MakeHash(e)
}

// EventList holds the events emitted by a single transaction, in emission
// order.
type EventList []Event

// HasReconfiguration returns true if any event in the list ends the epoch.
func (l EventList) HasReconfiguration() bool {
	for _, event := range l {
		if event.Type == EventEpochChange {
			return true
		}
	}
	return false
}

// Reconfigurations returns the epoch-ending events in the list.
func (l EventList) Reconfigurations() EventList {
	var reconfigs EventList
	for _, event := range l {
		if event.Type == EventEpochChange {
			reconfigs = append(reconfigs, event)
		}
	}
	return reconfigs
}

// RootHash folds the event hashes into a single commitment, in emission
// order.
func (l EventList) RootHash() Hash {
	root := ZeroHash
	for _, event := range l {
		root = ExtendRoot(root, event.Hash())
	}
	return root
}
