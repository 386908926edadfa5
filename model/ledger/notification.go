package ledger

// CommitNotification is returned to the caller after a chunk is persisted,
// for consumption by external subscribers.
type CommitNotification struct {
	// CommittedTransactions are the transactions persisted by this commit, in
	// version order.
	CommittedTransactions []Transaction
	// ReconfigEvents are the epoch-change events emitted by the committed
	// transactions, if any.
	ReconfigEvents EventList
}

// ReconfigOccurred returns true if the committed chunk ended an epoch.
func (n *CommitNotification) ReconfigOccurred() bool {
	return len(n.ReconfigEvents) > 0
}
