package ledger

// WriteOp is a single mutation of the key-value ledger state.
type WriteOp struct {
	Key      string
	Value    []byte
	Deletion bool
}

// WriteSet is the ordered list of state mutations produced by one
// transaction.
type WriteSet []WriteOp

// Hash returns the canonical commitment to the write set.
func (ws WriteSet) Hash() Hash {
	return MakeHash(ws)
}
