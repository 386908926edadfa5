package unittest

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/engine/execution/checkpoint"
	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/accumulator"
	"github.com/meridianledger/meridian-go/svm"
)

// AccountKeyFixture returns the deterministic ed25519 key of the fixture
// account with the given index, so the same index always signs with the same
// key across test runs.
func AccountKeyFixture(index uint64) ed25519.PrivateKey {
	var buf [16]byte
	copy(buf[:], "meridian-account")
	binary.BigEndian.PutUint64(buf[8:], index)
	seed := sha3.Sum256(buf[:])
	return ed25519.NewKeyFromSeed(seed[:])
}

// ProgramFixture returns a small program writing one key derived from the
// sequence number and emitting one event.
func ProgramFixture(seq uint64) *svm.Program {
	return &svm.Program{
		Writes: []ledger.WriteOp{
			{Key: fmt.Sprintf("acct/%d/balance", seq), Value: []byte{byte(seq), byte(seq >> 8)}},
		},
		Events: []ledger.Event{
			{Type: "ledger.Transfer", Payload: []byte(fmt.Sprintf("transfer %d", seq))},
		},
	}
}

// EpochChangeProgramFixture returns a program whose only effect is emitting
// the epoch-change event announcing the given next epoch state.
func EpochChangeProgramFixture(t testing.TB, next ledger.EpochState) *svm.Program {
	event, err := ledger.EpochChangeEvent(next)
	require.NoError(t, err)
	return &svm.Program{
		Events: []ledger.Event{event},
	}
}

// TransactionFixture returns a validly signed transaction carrying the
// encoded program, sent by the fixture account with the given index.
func TransactionFixture(t testing.TB, index uint64, program *svm.Program) ledger.Transaction {
	payload, err := svm.EncodeProgram(program)
	require.NoError(t, err)
	key := AccountKeyFixture(index)
	return ledger.Transaction{
		Sender:    key.Public().(ed25519.PublicKey),
		Payload:   payload,
		Signature: ed25519.Sign(key, payload),
	}
}

// TransactionFixtures returns count validly signed transactions with
// sequential fixture accounts starting at first.
func TransactionFixtures(t testing.TB, first uint64, count int) []ledger.Transaction {
	txs := make([]ledger.Transaction, count)
	for i := range txs {
		txs[i] = TransactionFixture(t, first+uint64(i), ProgramFixture(first+uint64(i)))
	}
	return txs
}

// BuiltChunk is a chunk produced by a ChunkBuilder, carrying the same range
// both as a transactions-with-proof chunk and as an outputs-with-proof chunk,
// plus the canonical infos and outputs behind the proof.
type BuiltChunk struct {
	Chunk       ledger.ChunkWithProof
	OutputChunk ledger.OutputChunkWithProof
	Infos       []ledger.TransactionInfo
	Outputs     []ledger.TransactionOutput
	WriteSets   []ledger.WriteSet
	EventLists  []ledger.EventList
}

// ChunkBuilder assembles a contiguous, verifiable ledger history chunk by
// chunk, using the same executor and checkpoint calculator as the pipeline so
// the resulting proofs and infos genuinely verify. Proof suffix hashes are
// filled in when TargetCheckpoint seals the history.
type ChunkBuilder struct {
	vm    *svm.VM
	calc  *checkpoint.Calculator
	state *delta.Snapshot
	acc   *accumulator.Accumulator

	leaves        []ledger.Hash
	built         []*BuiltChunk
	nextEpochSeen *ledger.EpochState
}

func NewChunkBuilder() *ChunkBuilder {
	return &ChunkBuilder{
		vm:    svm.New(Logger()),
		calc:  checkpoint.NewCalculator(),
		state: delta.NewSnapshot(0),
		acc:   accumulator.Empty(),
	}
}

// NextVersion returns the version the next built chunk will start at.
func (b *ChunkBuilder) NextVersion() ledger.Version {
	return b.acc.NumLeaves()
}

// AddChunk executes the given transactions on top of the history built so far
// and records them as the next chunk. All transactions must be kept (no
// discards, no retries); fixture transactions are.
func (b *ChunkBuilder) AddChunk(t testing.TB, transactions []ledger.Transaction) *BuiltChunk {
	view := delta.NewView(b.state.ReadFunc(delta.AlwaysEmptyGetFunc))
	out, err := b.vm.Execute(execution.IntoSignatureVerified(transactions), view, nil)
	require.NoError(t, err)

	resultState, nextEpochState, staged, err := b.calc.Stage(out, b.state, nil)
	require.NoError(t, err)
	require.Empty(t, staged.ToDiscard)
	require.Empty(t, staged.ToRetry)

	ledgerUpdate, _, _, err := b.calc.Finalize(staged, b.acc)
	require.NoError(t, err)

	first := b.acc.NumLeaves()
	proof := ledger.TransactionInfoListProof{
		FirstVersion:     first,
		PriorRoot:        b.acc.RootHash(),
		TransactionInfos: ledgerUpdate.TransactionInfos,
	}

	pairs := make([]ledger.TransactionAndOutput, len(transactions))
	writeSets := make([]ledger.WriteSet, len(transactions))
	eventLists := make([]ledger.EventList, len(transactions))
	for i := range transactions {
		pairs[i] = ledger.TransactionAndOutput{
			Transaction: transactions[i],
			Output:      ledgerUpdate.Outputs[i],
		}
		writeSets[i] = ledgerUpdate.Outputs[i].WriteSet
		eventLists[i] = ledgerUpdate.Outputs[i].Events
	}

	firstCopy := first
	bc := &BuiltChunk{
		Chunk: ledger.ChunkWithProof{
			Transactions: transactions,
			FirstVersion: &firstCopy,
			Proof:        proof,
		},
		OutputChunk: ledger.OutputChunkWithProof{
			TransactionsAndOutputs: pairs,
			FirstVersion:           &firstCopy,
			Proof:                  proof,
		},
		Infos:      ledgerUpdate.TransactionInfos,
		Outputs:    ledgerUpdate.Outputs,
		WriteSets:  writeSets,
		EventLists: eventLists,
	}
	b.built = append(b.built, bc)

	for i := range ledgerUpdate.TransactionInfos {
		b.leaves = append(b.leaves, ledgerUpdate.TransactionInfos[i].Hash())
	}
	b.state = resultState
	b.acc = ledgerUpdate.Accumulator
	if nextEpochState != nil {
		b.nextEpochSeen = nextEpochState
	}

	return bc
}

// TargetCheckpoint seals the history built so far into a signed checkpoint at
// the last built version and fills in the proof suffix hashes of every built
// chunk so each verifies against the returned checkpoint.
func (b *ChunkBuilder) TargetCheckpoint(t testing.TB, epoch uint64) *ledger.SignedCheckpoint {
	require.NotZero(t, b.acc.NumLeaves(), "cannot checkpoint an empty history")
	version := b.acc.NumLeaves() - 1

	for _, bc := range b.built {
		last := bc.Chunk.Proof.LastVersion()
		suffix := make([]ledger.Hash, 0, int(version-last))
		for v := last + 1; v <= version; v++ {
			suffix = append(suffix, b.leaves[v])
		}
		bc.Chunk.Proof.SuffixHashes = suffix
		bc.OutputChunk.Proof.SuffixHashes = suffix
	}

	return &ledger.SignedCheckpoint{
		Checkpoint: ledger.Checkpoint{
			Epoch:           epoch,
			Version:         version,
			AccumulatorRoot: b.acc.RootHash(),
			TimestampMicros: 1_700_000_000_000_000 + uint64(version),
			NextEpochState:  b.nextEpochSeen,
		},
		Signatures: map[string][]byte{
			"validator-1": []byte("fixture signature"),
		},
	}
}

// LatestAccumulator returns the accumulator over the history built so far.
func (b *ChunkBuilder) LatestAccumulator() *accumulator.Accumulator {
	return b.acc
}
