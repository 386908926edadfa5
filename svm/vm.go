// Package svm implements a minimal deterministic state virtual machine used
// as the transaction executor of the chunk pipeline. Transaction payloads are
// cbor-encoded programs of state reads, writes and emitted events.
package svm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
)

// Gas schedule. Flat and deliberately simple; determinism is what matters
// here, not economic realism.
const (
	gasBase     = 10
	gasPerByte  = 1
	gasPerWrite = 5
)

// Program is the payload format understood by the VM.
type Program struct {
	// Reads are state keys read before any write is applied.
	Reads []string
	// Writes are the state mutations to apply, in order.
	Writes []ledger.WriteOp
	// Events are emitted on successful execution.
	Events []ledger.Event
	// Abort makes execution fail after charging gas; the transaction is
	// committed with an empty write set.
	Abort bool
}

// EncodeProgram serializes a program into a transaction payload.
func EncodeProgram(p *Program) ([]byte, error) {
	payload, err := cbor.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not encode program: %w", err)
	}
	return payload, nil
}

// VM executes transactions against a state view.
type VM struct {
	log zerolog.Logger
}

var _ execution.TransactionExecutor = (*VM)(nil)

func New(log zerolog.Logger) *VM {
	return &VM{
		log: log.With().Str("component", "svm").Logger(),
	}
}

// Execute runs the given transactions in order against the view, returning
// one output per transaction. Transactions that failed the signature
// pre-check or carry a malformed payload are discarded. When a gas limit is
// given, transactions beyond the point where it is exhausted are marked for
// retry.
func (vm *VM) Execute(
	transactions []execution.SignatureVerifiedTransaction,
	view *delta.View,
	gasLimit *uint64,
) (*execution.ExecutionOutput, error) {

	out := &execution.ExecutionOutput{
		Transactions: make([]ledger.Transaction, len(transactions)),
		Outputs:      make([]ledger.TransactionOutput, len(transactions)),
	}

	var gasTotal uint64
	exhausted := false

	for i, tx := range transactions {
		out.Transactions[i] = tx.Transaction

		if exhausted {
			out.Outputs[i] = ledger.TransactionOutput{Status: ledger.StatusRetry}
			continue
		}

		if !tx.Valid {
			out.Outputs[i] = ledger.TransactionOutput{Status: ledger.StatusDiscard}
			continue
		}

		var program Program
		err := cbor.Unmarshal(tx.Transaction.Payload, &program)
		if err != nil {
			vm.log.Debug().Err(err).Int("index", i).Msg("discarding transaction with malformed payload")
			out.Outputs[i] = ledger.TransactionOutput{Status: ledger.StatusDiscard}
			continue
		}

		gasUsed := uint64(gasBase) +
			uint64(len(tx.Transaction.Payload))*gasPerByte +
			uint64(len(program.Writes))*gasPerWrite

		if gasLimit != nil && gasTotal+gasUsed > *gasLimit {
			exhausted = true
			out.Outputs[i] = ledger.TransactionOutput{Status: ledger.StatusRetry}
			continue
		}
		gasTotal += gasUsed

		for _, key := range program.Reads {
			_, err := view.Get(key)
			if err != nil {
				return nil, fmt.Errorf("could not read state key %q: %w", key, err)
			}
		}

		if program.Abort {
			out.Outputs[i] = ledger.TransactionOutput{
				GasUsed: gasUsed,
				Status:  ledger.StatusFailed,
			}
			continue
		}

		for _, op := range program.Writes {
			if op.Deletion {
				view.Delete(op.Key)
			} else {
				view.Set(op.Key, op.Value)
			}
		}

		out.Outputs[i] = ledger.TransactionOutput{
			WriteSet: program.Writes,
			Events:   program.Events,
			GasUsed:  gasUsed,
			Status:   ledger.StatusExecuted,
		}
	}

	return out, nil
}
