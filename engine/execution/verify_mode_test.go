package execution

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/meridian-go/model/ledger"
)

func TestVerifyModeFlags(t *testing.T) {
	strict := NewVerifyModeStrict(nil)
	assert.True(t, strict.ShouldVerify())
	assert.False(t, strict.IsLazy())

	lazy := NewVerifyModeLazy(nil)
	assert.True(t, lazy.ShouldVerify())
	assert.True(t, lazy.IsLazy())

	disabled := NewVerifyModeDisabled()
	assert.False(t, disabled.ShouldVerify())
	assert.False(t, disabled.IsLazy())
}

func TestVerifyModeSkips(t *testing.T) {
	// unsorted with a duplicate
	mode := NewVerifyModeStrict([]ledger.Version{9, 3, 5, 3})

	assert.True(t, mode.ShouldSkip(3))
	assert.True(t, mode.ShouldSkip(9))
	assert.False(t, mode.ShouldSkip(4))

	assert.Equal(t, []ledger.Version{3, 5, 9}, mode.SkipsInRange(0, 100))
	assert.Equal(t, []ledger.Version{3, 5}, mode.SkipsInRange(3, 9))
	assert.Equal(t, []ledger.Version{5}, mode.SkipsInRange(4, 6))
	assert.Empty(t, mode.SkipsInRange(6, 9))
	assert.Empty(t, mode.SkipsInRange(10, 100))
}

func TestVerifyModeErrorTracking(t *testing.T) {
	mode := NewVerifyModeLazy(nil)

	assert.False(t, mode.SeenError())
	require.NoError(t, mode.Errors())

	mode.MarkError(fmt.Errorf("mismatch at version 4"))
	mode.MarkError(fmt.Errorf("mismatch at version 7"))

	assert.True(t, mode.SeenError())
	err := mode.Errors()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch at version 4")
	assert.Contains(t, err.Error(), "mismatch at version 7")
}
