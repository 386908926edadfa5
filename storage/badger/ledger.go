package badger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
	"github.com/meridianledger/meridian-go/storage"
	"github.com/meridianledger/meridian-go/storage/badger/operation"
)

// Ledger is a badger-backed implementation of the persistent ledger store.
//
// Per-version records (transactions, infos, write sets, events) are kept
// forever; key-value state is kept at the latest committed version only, as a
// register index updated in the same transaction that stores the records.
type Ledger struct {
	log zerolog.Logger
	db  *badger.DB

	// serializes writers; badger transactions alone do not give us ordering
	// between two concurrent WriteChunk calls
	mu sync.Mutex
}

var _ storage.Ledger = (*Ledger)(nil)

// NewLedger wraps the given badger database, bootstrapping the version
// watermark and accumulator on first use.
func NewLedger(log zerolog.Logger, db *badger.DB) (*Ledger, error) {
	l := &Ledger{
		log: log.With().Str("component", "badger_ledger").Logger(),
		db:  db,
	}
	err := l.bootstrap()
	if err != nil {
		return nil, fmt.Errorf("could not bootstrap ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) bootstrap() error {
	return l.db.Update(func(tx *badger.Txn) error {
		var bootstrapped bool
		err := operation.ExistsNextVersion(&bootstrapped)(tx)
		if err != nil {
			return fmt.Errorf("could not check version watermark: %w", err)
		}
		if bootstrapped {
			return nil
		}
		err = operation.InsertNextVersion(0)(tx)
		if err != nil {
			return fmt.Errorf("could not init version watermark: %w", err)
		}
		err = operation.InsertAccumulator(&operation.AccumulatorState{
			NumLeaves: 0,
			Root:      ledger.ZeroHash,
		})(tx)
		if err != nil {
			return fmt.Errorf("could not init accumulator: %w", err)
		}
		return nil
	})
}

// CurrentState returns a snapshot of the persisted state together with the
// accumulator it is authenticated by.
func (l *Ledger) CurrentState() (*delta.Snapshot, *accumulator.Accumulator, error) {
	var next ledger.Version
	var accState operation.AccumulatorState
	err := l.db.View(func(tx *badger.Txn) error {
		err := operation.RetrieveNextVersion(&next)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve version watermark: %w", err)
		}
		err = operation.RetrieveAccumulator(&accState)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve accumulator: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return delta.NewSnapshot(next), accumulator.New(accState.NumLeaves, accState.Root), nil
}

// GetState returns the persisted value for a state key, or nil if unset.
func (l *Ledger) GetState(key string) ([]byte, error) {
	var value []byte
	err := l.db.View(operation.RetrieveRegister(key, &value))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve register %q: %w", key, err)
	}
	return value, nil
}

// LatestCheckpoint returns the most recently persisted signed checkpoint.
func (l *Ledger) LatestCheckpoint() (*ledger.SignedCheckpoint, error) {
	var checkpoint ledger.SignedCheckpoint
	err := l.db.View(operation.RetrieveLatestCheckpoint(&checkpoint))
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

// ReadChunk returns the raw records of count versions starting at first.
func (l *Ledger) ReadChunk(first ledger.Version, count uint64) (*storage.RawChunk, error) {
	chunk := &storage.RawChunk{
		FirstVersion:     first,
		Transactions:     make([]ledger.Transaction, count),
		TransactionInfos: make([]ledger.TransactionInfo, count),
		WriteSets:        make([]ledger.WriteSet, count),
		EventLists:       make([]ledger.EventList, count),
	}
	err := l.db.View(func(tx *badger.Txn) error {
		for i := uint64(0); i < count; i++ {
			version := first + ledger.Version(i)
			err := operation.RetrieveTransaction(version, &chunk.Transactions[i])(tx)
			if err != nil {
				return fmt.Errorf("could not retrieve transaction %d: %w", version, err)
			}
			err = operation.RetrieveTransactionInfo(version, &chunk.TransactionInfos[i])(tx)
			if err != nil {
				return fmt.Errorf("could not retrieve transaction info %d: %w", version, err)
			}
			err = operation.RetrieveWriteSet(version, &chunk.WriteSets[i])(tx)
			if err != nil {
				return fmt.Errorf("could not retrieve write set %d: %w", version, err)
			}
			err = operation.RetrieveEventList(version, &chunk.EventLists[i])(tx)
			if err != nil {
				return fmt.Errorf("could not retrieve events %d: %w", version, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// WriteChunk atomically persists the records of a chunk, applies its write
// sets to the register index and advances the committed watermark.
func (l *Ledger) WriteChunk(chunk *storage.RawChunk, checkpoint *ledger.SignedCheckpoint, resultState *delta.Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	numTxns := len(chunk.Transactions)
	if len(chunk.TransactionInfos) != numTxns ||
		len(chunk.WriteSets) != numTxns ||
		len(chunk.EventLists) != numTxns {
		return fmt.Errorf("inconsistent chunk record counts: %d txns, %d infos, %d write sets, %d event lists",
			numTxns, len(chunk.TransactionInfos), len(chunk.WriteSets), len(chunk.EventLists))
	}

	err := l.db.Update(func(tx *badger.Txn) error {
		var next ledger.Version
		err := operation.RetrieveNextVersion(&next)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve version watermark: %w", err)
		}
		if chunk.FirstVersion != next {
			return fmt.Errorf("chunk starts at version %d, ledger expects %d: %w",
				chunk.FirstVersion, next, storage.ErrDataMismatch)
		}

		var accState operation.AccumulatorState
		err = operation.RetrieveAccumulator(&accState)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve accumulator: %w", err)
		}

		root := accState.Root
		for i := 0; i < numTxns; i++ {
			version := chunk.FirstVersion + ledger.Version(i)
			err = operation.InsertTransaction(version, &chunk.Transactions[i])(tx)
			if err != nil {
				return fmt.Errorf("could not store transaction %d: %w", version, err)
			}
			err = operation.InsertTransactionInfo(version, &chunk.TransactionInfos[i])(tx)
			if err != nil {
				return fmt.Errorf("could not store transaction info %d: %w", version, err)
			}
			err = operation.InsertWriteSet(version, &chunk.WriteSets[i])(tx)
			if err != nil {
				return fmt.Errorf("could not store write set %d: %w", version, err)
			}
			err = operation.InsertEventList(version, &chunk.EventLists[i])(tx)
			if err != nil {
				return fmt.Errorf("could not store events %d: %w", version, err)
			}
			for _, op := range chunk.WriteSets[i] {
				if op.Deletion {
					err = operation.RemoveRegister(op.Key)(tx)
				} else {
					err = operation.UpsertRegister(op.Key, op.Value)(tx)
				}
				if err != nil {
					return fmt.Errorf("could not update register %q: %w", op.Key, err)
				}
			}
			root = ledger.ExtendRoot(root, chunk.TransactionInfos[i].Hash())
		}

		err = operation.UpdateNextVersion(chunk.FirstVersion + ledger.Version(numTxns))(tx)
		if err != nil {
			return fmt.Errorf("could not advance version watermark: %w", err)
		}
		err = operation.UpdateAccumulator(&operation.AccumulatorState{
			NumLeaves: accState.NumLeaves + ledger.Version(numTxns),
			Root:      root,
		})(tx)
		if err != nil {
			return fmt.Errorf("could not update accumulator: %w", err)
		}

		if checkpoint != nil {
			err = operation.UpsertLatestCheckpoint(checkpoint)(tx)
			if err != nil {
				return fmt.Errorf("could not store checkpoint: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	l.log.Debug().
		Uint64("first_version", uint64(chunk.FirstVersion)).
		Int("num_txns", numTxns).
		Bool("has_checkpoint", checkpoint != nil).
		Msg("chunk persisted")

	return nil
}
