package ledger

import (
	"fmt"
)

// TransactionInfoListProof proves that a contiguous list of transaction infos
// is part of the ledger history authenticated by a target checkpoint. It
// carries the accumulator root preceding the first info, the claimed infos,
// and the leaf hashes connecting the end of the list to the target version.
type TransactionInfoListProof struct {
	// FirstVersion is the version of the first transaction info in the list.
	FirstVersion Version
	// PriorRoot is the accumulator root over versions [0, FirstVersion).
	PriorRoot Hash
	// TransactionInfos are the claimed canonical infos, one per version.
	TransactionInfos []TransactionInfo
	// SuffixHashes are the info hashes of versions
	// (FirstVersion+len(TransactionInfos)-1, target version], connecting the
	// list to the target checkpoint's accumulator root.
	SuffixHashes []Hash
}

// LastVersion returns the version of the last transaction info in the list.
// Only meaningful for a non-empty proof.
func (p *TransactionInfoListProof) LastVersion() Version {
	return p.FirstVersion + Version(len(p.TransactionInfos)) - 1
}

// ResultRoot returns the accumulator root after folding all claimed infos
// into the prior root.
func (p *TransactionInfoListProof) ResultRoot() Hash {
	root := p.PriorRoot
	for i := range p.TransactionInfos {
		root = ExtendRoot(root, p.TransactionInfos[i].Hash())
	}
	return root
}

// StateCheckpointHashes returns the known state checkpoint hash of every
// claimed info, in version order.
func (p *TransactionInfoListProof) StateCheckpointHashes() []*Hash {
	hashes := make([]*Hash, len(p.TransactionInfos))
	for i := range p.TransactionInfos {
		hashes[i] = p.TransactionInfos[i].StateCheckpointHash
	}
	return hashes
}

// VerifyExtendsLedger checks that the claimed infos extend an accumulator
// with the given number of leaves and root, returning the number of leading
// infos already present in the accumulator (the overlap).
func (p *TransactionInfoListProof) VerifyExtendsLedger(numLeaves Version, root Hash) (uint64, error) {
	if p.FirstVersion > numLeaves {
		return 0, fmt.Errorf("proof starts at version %d, beyond accumulator with %d leaves",
			p.FirstVersion, numLeaves)
	}
	overlap := uint64(numLeaves - p.FirstVersion)
	if overlap == 0 && p.PriorRoot != root {
		return 0, fmt.Errorf("proof prior root %s does not match accumulator root %s",
			p.PriorRoot, root)
	}
	return overlap, nil
}

// Verify checks the proof against a target checkpoint: the claimed infos
// folded into the prior root, extended by the suffix hashes, must reproduce
// the target's accumulator root at the target's version.
func (p *TransactionInfoListProof) Verify(target *Checkpoint, firstVersion *Version) error {
	if len(p.TransactionInfos) == 0 {
		return fmt.Errorf("empty transaction info list")
	}
	if firstVersion != nil && p.FirstVersion != *firstVersion {
		return fmt.Errorf("proof first version %d does not match expected %d",
			p.FirstVersion, *firstVersion)
	}
	last := p.LastVersion()
	if last > target.Version {
		return fmt.Errorf("proof covers version %d beyond target checkpoint version %d",
			last, target.Version)
	}
	if Version(len(p.SuffixHashes)) != target.Version-last {
		return fmt.Errorf("proof carries %d suffix hashes, need %d to reach target version %d",
			len(p.SuffixHashes), target.Version-last, target.Version)
	}
	root := p.ResultRoot()
	for _, leaf := range p.SuffixHashes {
		root = ExtendRoot(root, leaf)
	}
	if root != target.AccumulatorRoot {
		return fmt.Errorf("proof root %s does not match target accumulator root %s",
			root, target.AccumulatorRoot)
	}
	return nil
}
