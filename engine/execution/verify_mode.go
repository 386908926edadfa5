package execution

import (
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"

	"github.com/meridianledger/meridian-go/model/ledger"
)

// VerifyMode controls how replay treats recorded transaction outcomes:
// whether re-executed outputs are compared against them, whether a mismatch
// aborts the replay, and which versions are known-bad and must be applied
// directly without re-execution.
//
// A VerifyMode is shared across the batches of a replay call and is safe for
// concurrent use.
type VerifyMode struct {
	verify bool
	lazy   bool

	skipSorted []ledger.Version
	skipSet    map[ledger.Version]struct{}

	seenError atomic.Bool

	mu   sync.Mutex
	errs *multierror.Error
}

// NewVerifyModeStrict verifies every re-executed transaction and fails on the
// first mismatch outside the skip set.
func NewVerifyModeStrict(skip []ledger.Version) *VerifyMode {
	return newVerifyMode(true, false, skip)
}

// NewVerifyModeLazy verifies every re-executed transaction but records
// mismatches and resumes one version later instead of failing.
func NewVerifyModeLazy(skip []ledger.Version) *VerifyMode {
	return newVerifyMode(true, true, skip)
}

// NewVerifyModeDisabled applies recorded outputs without re-execution.
func NewVerifyModeDisabled() *VerifyMode {
	return newVerifyMode(false, false, nil)
}

func newVerifyMode(verify bool, lazy bool, skip []ledger.Version) *VerifyMode {
	skipSet := make(map[ledger.Version]struct{}, len(skip))
	for _, version := range skip {
		skipSet[version] = struct{}{}
	}
	skipSorted := make([]ledger.Version, 0, len(skipSet))
	for version := range skipSet {
		skipSorted = append(skipSorted, version)
	}
	sort.Slice(skipSorted, func(i, j int) bool { return skipSorted[i] < skipSorted[j] })
	return &VerifyMode{
		verify:     verify,
		lazy:       lazy,
		skipSorted: skipSorted,
		skipSet:    skipSet,
	}
}

// ShouldVerify returns true if re-executed outputs are compared against
// recorded outcomes.
func (m *VerifyMode) ShouldVerify() bool {
	return m.verify
}

// IsLazy returns true if a verification mismatch is recorded instead of
// aborting the replay.
func (m *VerifyMode) IsLazy() bool {
	return m.lazy
}

// ShouldSkip returns true if the version is known bad and must be applied
// directly.
func (m *VerifyMode) ShouldSkip(version ledger.Version) bool {
	_, ok := m.skipSet[version]
	return ok
}

// SkipsInRange returns the skip-marked versions within [begin, end), in
// ascending order.
func (m *VerifyMode) SkipsInRange(begin, end ledger.Version) []ledger.Version {
	lo := sort.Search(len(m.skipSorted), func(i int) bool { return m.skipSorted[i] >= begin })
	hi := sort.Search(len(m.skipSorted), func(i int) bool { return m.skipSorted[i] >= end })
	return m.skipSorted[lo:hi]
}

// MarkError records a verification mismatch in lazy mode.
func (m *VerifyMode) MarkError(err error) {
	m.seenError.Store(true)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = multierror.Append(m.errs, err)
}

// SeenError returns true if any verification mismatch was recorded.
func (m *VerifyMode) SeenError() bool {
	return m.seenError.Load()
}

// Errors returns the recorded verification mismatches, or nil if none
// occurred.
func (m *VerifyMode) Errors() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs.ErrorOrNil()
}
