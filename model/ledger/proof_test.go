package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func infoFixtures(n int) []TransactionInfo {
	infos := make([]TransactionInfo, n)
	for i := range infos {
		infos[i] = TransactionInfo{
			TransactionHash: MakeHash(fmt.Sprintf("txn-%d", i)),
			WriteSetHash:    MakeHash(fmt.Sprintf("writes-%d", i)),
			EventRootHash:   MakeHash(fmt.Sprintf("events-%d", i)),
			GasUsed:         uint64(10 + i),
			Status:          StatusExecuted,
		}
	}
	return infos
}

// foldRoot folds info leaf hashes into a root, starting from prior.
func foldRoot(prior Hash, infos []TransactionInfo) Hash {
	root := prior
	for i := range infos {
		root = ExtendRoot(root, infos[i].Hash())
	}
	return root
}

func TestProofVerify(t *testing.T) {
	infos := infoFixtures(5)
	target := &Checkpoint{
		Epoch:           1,
		Version:         4,
		AccumulatorRoot: foldRoot(ZeroHash, infos),
	}

	proofOverRange := func(first, count int) TransactionInfoListProof {
		var suffix []Hash
		for i := first + count; i < len(infos); i++ {
			suffix = append(suffix, infos[i].Hash())
		}
		return TransactionInfoListProof{
			FirstVersion:     Version(first),
			PriorRoot:        foldRoot(ZeroHash, infos[:first]),
			TransactionInfos: infos[first : first+count],
			SuffixHashes:     suffix,
		}
	}

	t.Run("full range verifies", func(t *testing.T) {
		proof := proofOverRange(0, 5)
		first := Version(0)
		require.NoError(t, proof.Verify(target, &first))
	})

	t.Run("inner range verifies with suffix hashes", func(t *testing.T) {
		proof := proofOverRange(1, 2)
		first := Version(1)
		require.NoError(t, proof.Verify(target, &first))
		assert.Equal(t, Version(2), proof.LastVersion())
	})

	t.Run("first version can be left unchecked", func(t *testing.T) {
		proof := proofOverRange(2, 3)
		require.NoError(t, proof.Verify(target, nil))
	})

	t.Run("empty info list is rejected", func(t *testing.T) {
		proof := proofOverRange(2, 0)
		require.Error(t, proof.Verify(target, nil))
	})

	t.Run("first version mismatch is rejected", func(t *testing.T) {
		proof := proofOverRange(1, 2)
		first := Version(2)
		require.Error(t, proof.Verify(target, &first))
	})

	t.Run("missing suffix hash is rejected", func(t *testing.T) {
		proof := proofOverRange(1, 2)
		proof.SuffixHashes = proof.SuffixHashes[:1]
		first := Version(1)
		require.Error(t, proof.Verify(target, &first))
	})

	t.Run("tampered info is rejected", func(t *testing.T) {
		proof := proofOverRange(0, 5)
		tampered := make([]TransactionInfo, 5)
		copy(tampered, proof.TransactionInfos)
		tampered[2].GasUsed++
		proof.TransactionInfos = tampered
		first := Version(0)
		require.Error(t, proof.Verify(target, &first))
	})

	t.Run("range beyond target is rejected", func(t *testing.T) {
		proof := proofOverRange(0, 5)
		shortTarget := &Checkpoint{
			Version:         3,
			AccumulatorRoot: foldRoot(ZeroHash, infos[:4]),
		}
		require.Error(t, proof.Verify(shortTarget, nil))
	})
}

func TestProofVerifyExtendsLedger(t *testing.T) {
	infos := infoFixtures(4)

	t.Run("exact extension has no overlap", func(t *testing.T) {
		proof := TransactionInfoListProof{
			FirstVersion:     2,
			PriorRoot:        foldRoot(ZeroHash, infos[:2]),
			TransactionInfos: infos[2:],
		}
		overlap, err := proof.VerifyExtendsLedger(2, foldRoot(ZeroHash, infos[:2]))
		require.NoError(t, err)
		assert.Equal(t, uint64(0), overlap)
	})

	t.Run("partially accumulated proof reports overlap", func(t *testing.T) {
		proof := TransactionInfoListProof{
			FirstVersion:     1,
			PriorRoot:        foldRoot(ZeroHash, infos[:1]),
			TransactionInfos: infos[1:],
		}
		overlap, err := proof.VerifyExtendsLedger(3, foldRoot(ZeroHash, infos[:3]))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), overlap)
	})

	t.Run("gap ahead of the accumulator is rejected", func(t *testing.T) {
		proof := TransactionInfoListProof{
			FirstVersion:     3,
			PriorRoot:        foldRoot(ZeroHash, infos[:3]),
			TransactionInfos: infos[3:],
		}
		_, err := proof.VerifyExtendsLedger(1, foldRoot(ZeroHash, infos[:1]))
		require.Error(t, err)
	})

	t.Run("prior root mismatch without overlap is rejected", func(t *testing.T) {
		proof := TransactionInfoListProof{
			FirstVersion:     2,
			PriorRoot:        MakeHash("wrong root"),
			TransactionInfos: infos[2:],
		}
		_, err := proof.VerifyExtendsLedger(2, foldRoot(ZeroHash, infos[:2]))
		require.Error(t, err)
	})
}

func TestProofStateCheckpointHashes(t *testing.T) {
	infos := infoFixtures(3)
	checkpointHash := MakeHash("state checkpoint")
	infos[2].StateCheckpointHash = &checkpointHash

	proof := TransactionInfoListProof{TransactionInfos: infos}
	hashes := proof.StateCheckpointHashes()
	require.Len(t, hashes, 3)
	assert.Nil(t, hashes[0])
	assert.Nil(t, hashes[1])
	require.NotNil(t, hashes[2])
	assert.Equal(t, checkpointHash, *hashes[2])
}
