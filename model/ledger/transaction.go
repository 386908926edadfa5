package ledger

import (
	"crypto/ed25519"
	"fmt"
)

// Version identifies a transaction's position in the ledger. The "next
// version" of any state snapshot is the version of the next transaction not
// yet reflected in it.
type Version uint64

// Transaction is a single signed ledger transaction. The payload is opaque to
// the commit pipeline; it is interpreted by the transaction executor.
type Transaction struct {
	// Sender is the ed25519 public key of the submitting account.
	Sender []byte
	// Payload contains the encoded transaction program.
	Payload []byte
	// Signature is the sender's signature over the payload.
	Signature []byte
}

// Hash returns the canonical identifier of the transaction.
func (tx *Transaction) Hash() Hash {
	return MakeHash(tx)
}

// VerifySignature checks the transaction signature against the sender key.
func (tx *Transaction) VerifySignature() error {
	if len(tx.Sender) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid sender key length: %d", len(tx.Sender))
	}
	if !ed25519.Verify(ed25519.PublicKey(tx.Sender), tx.Payload, tx.Signature) {
		return fmt.Errorf("invalid signature for transaction %s", tx.Hash())
	}
	return nil
}

// TransactionStatus describes the outcome of executing a transaction.
type TransactionStatus uint8

const (
	// StatusExecuted means the transaction executed successfully and its
	// write set is committed.
	StatusExecuted TransactionStatus = iota
	// StatusFailed means execution aborted; the transaction is still
	// committed (gas is charged) but its write set is empty.
	StatusFailed
	// StatusDiscard means the transaction is dropped and never committed.
	StatusDiscard
	// StatusRetry means the transaction must be resubmitted in a later chunk.
	StatusRetry
)

func (s TransactionStatus) String() string {
	switch s {
	case StatusExecuted:
		return "executed"
	case StatusFailed:
		return "failed"
	case StatusDiscard:
		return "discard"
	case StatusRetry:
		return "retry"
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// TransactionOutput is the result of executing a single transaction, either
// produced by the transaction executor or received pre-computed.
type TransactionOutput struct {
	WriteSet WriteSet
	Events   EventList
	GasUsed  uint64
	Status   TransactionStatus
}

// TransactionAndOutput pairs a transaction with its pre-computed output.
type TransactionAndOutput struct {
	Transaction Transaction
	Output      TransactionOutput
}
