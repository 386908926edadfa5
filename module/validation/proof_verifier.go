// Package validation provides the proof verifier implementations injected
// into the chunk commit pipeline.
package validation

import (
	"fmt"

	"github.com/meridianledger/meridian-go/engine/execution"
	"github.com/meridianledger/meridian-go/model/ledger"
)

// proofVerifier checks a transaction info list proof against the accumulator
// root of the signed target checkpoint.
type proofVerifier struct{}

var _ execution.ProofVerifier = (*proofVerifier)(nil)

// NewProofVerifier returns the strict proof verifier used in normal
// operation.
func NewProofVerifier() execution.ProofVerifier {
	return &proofVerifier{}
}

func (v *proofVerifier) Verify(proof *ledger.TransactionInfoListProof, target *ledger.SignedCheckpoint, firstVersion *ledger.Version) error {
	err := proof.Verify(&target.Checkpoint, firstVersion)
	if err != nil {
		return fmt.Errorf("proof does not verify against %s: %w", target, err)
	}
	return nil
}

// permissiveVerifier accepts every proof. It is selected at construction time
// for trusted or offline execution contexts, where inputs come from a local
// source that does not produce real proofs.
type permissiveVerifier struct{}

var _ execution.ProofVerifier = (*permissiveVerifier)(nil)

// NewPermissiveVerifier returns a verifier that always succeeds.
func NewPermissiveVerifier() execution.ProofVerifier {
	return &permissiveVerifier{}
}

func (v *permissiveVerifier) Verify(*ledger.TransactionInfoListProof, *ledger.SignedCheckpoint, *ledger.Version) error {
	return nil
}
