package chunks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/meridian-go/model/ledger"
)

func TestPartitionEpochs(t *testing.T) {
	reconfig, err := ledger.EpochChangeEvent(ledger.EpochState{Epoch: 2})
	require.NoError(t, err)
	plain := ledger.EventList{{Type: "ledger.Transfer"}}
	epochEnd := ledger.EventList{reconfig}

	t.Run("no reconfiguration yields one epoch", func(t *testing.T) {
		lists := []ledger.EventList{plain, nil, plain}
		assert.Equal(t,
			[]versionRange{{begin: 10, end: 13}},
			partitionEpochs(10, 13, lists))
	})

	t.Run("epoch closes right after the reconfiguration version", func(t *testing.T) {
		lists := []ledger.EventList{plain, epochEnd, plain, plain}
		assert.Equal(t,
			[]versionRange{{begin: 0, end: 2}, {begin: 2, end: 4}},
			partitionEpochs(0, 4, lists))
	})

	t.Run("reconfiguration at the last version adds no empty epoch", func(t *testing.T) {
		lists := []ledger.EventList{plain, epochEnd}
		assert.Equal(t,
			[]versionRange{{begin: 5, end: 7}},
			partitionEpochs(5, 7, lists))
	})

	t.Run("consecutive reconfigurations yield single-version epochs", func(t *testing.T) {
		lists := []ledger.EventList{epochEnd, epochEnd, plain}
		assert.Equal(t,
			[]versionRange{{begin: 0, end: 1}, {begin: 1, end: 2}, {begin: 2, end: 3}},
			partitionEpochs(0, 3, lists))
	})
}
