package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventListReconfiguration(t *testing.T) {
	reconfig, err := EpochChangeEvent(EpochState{
		Epoch:            7,
		ValidatorSetHash: MakeHash("validators"),
	})
	require.NoError(t, err)
	transfer := Event{Type: "ledger.Transfer", Payload: []byte("transfer 1")}

	t.Run("plain events carry no reconfiguration", func(t *testing.T) {
		list := EventList{transfer, transfer}
		assert.False(t, list.HasReconfiguration())
		assert.Empty(t, list.Reconfigurations())
	})

	t.Run("epoch change event is detected", func(t *testing.T) {
		list := EventList{transfer, reconfig, transfer}
		assert.True(t, list.HasReconfiguration())
		require.Len(t, list.Reconfigurations(), 1)
		assert.Equal(t, reconfig, list.Reconfigurations()[0])
	})
}

func TestEpochStateRoundTrip(t *testing.T) {
	next := EpochState{
		Epoch:            3,
		ValidatorSetHash: MakeHash("validators of epoch 3"),
	}

	event, err := EpochChangeEvent(next)
	require.NoError(t, err)

	decoded, err := EpochStateFromEvent(event)
	require.NoError(t, err)
	assert.Equal(t, next, *decoded)

	_, err = EpochStateFromEvent(Event{Type: "ledger.Transfer"})
	require.Error(t, err)
}

func TestEventListRootHash(t *testing.T) {
	a := Event{Type: "ledger.Transfer", Payload: []byte("a")}
	b := Event{Type: "ledger.Transfer", Payload: []byte("b")}

	assert.Equal(t, ZeroHash, EventList(nil).RootHash())
	assert.NotEqual(t, EventList{a}.RootHash(), EventList{b}.RootHash())
	// emission order matters
	assert.NotEqual(t, EventList{a, b}.RootHash(), EventList{b, a}.RootHash())
	// fold from the zero root, one event at a time
	assert.Equal(t,
		ExtendRoot(ExtendRoot(ZeroHash, a.Hash()), b.Hash()),
		EventList{a, b}.RootHash())
}
