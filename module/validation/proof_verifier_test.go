package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridianledger/meridian-go/model/ledger"
	"github.com/meridianledger/meridian-go/module/validation"
	"github.com/meridianledger/meridian-go/utils/unittest"
)

func TestProofVerifier(t *testing.T) {
	builder := unittest.NewChunkBuilder()
	chunk := builder.AddChunk(t, unittest.TransactionFixtures(t, 0, 3))
	builder.AddChunk(t, unittest.TransactionFixtures(t, 3, 2))
	target := builder.TargetCheckpoint(t, 1)

	verifier := validation.NewProofVerifier()

	t.Run("valid proof is accepted", func(t *testing.T) {
		require.NoError(t, verifier.Verify(&chunk.Chunk.Proof, target, chunk.Chunk.FirstVersion))
	})

	t.Run("wrong first version is rejected", func(t *testing.T) {
		wrong := *chunk.Chunk.FirstVersion + 1
		require.Error(t, verifier.Verify(&chunk.Chunk.Proof, target, &wrong))
	})

	t.Run("tampered info is rejected", func(t *testing.T) {
		proof := chunk.Chunk.Proof
		infos := make([]ledger.TransactionInfo, len(proof.TransactionInfos))
		copy(infos, proof.TransactionInfos)
		infos[0].GasUsed++
		proof.TransactionInfos = infos
		require.Error(t, verifier.Verify(&proof, target, chunk.Chunk.FirstVersion))
	})
}

func TestPermissiveVerifier(t *testing.T) {
	verifier := validation.NewPermissiveVerifier()

	// a proof that would never verify strictly
	proof := &ledger.TransactionInfoListProof{}
	target := &ledger.SignedCheckpoint{}
	require.NoError(t, verifier.Verify(proof, target, nil))
}
