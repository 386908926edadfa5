package delta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/meridian-go/engine/execution/state/delta"
	"github.com/meridianledger/meridian-go/model/ledger"
)

func TestSnapshot_Versions(t *testing.T) {
	t.Run("EmptyLedger", func(t *testing.T) {
		s := delta.NewSnapshot(0)
		assert.Equal(t, ledger.Version(0), s.NextVersion())
		_, ok := s.CurrentVersion()
		assert.False(t, ok)
	})

	t.Run("PersistedLedger", func(t *testing.T) {
		s := delta.NewSnapshot(10)
		assert.Equal(t, ledger.Version(10), s.NextVersion())
		assert.Equal(t, ledger.Version(10), s.BaseVersion())
		current, ok := s.CurrentVersion()
		require.True(t, ok)
		assert.Equal(t, ledger.Version(9), current)
	})
}

func TestSnapshot_Advance(t *testing.T) {
	base := delta.NewSnapshot(10)

	advanced := base.Advance([]ledger.WriteSet{
		{{Key: "fruit", Value: []byte("apple")}},
		{{Key: "fruit", Value: []byte("orange")}, {Key: "vegetable", Deletion: true}},
	})

	assert.Equal(t, ledger.Version(12), advanced.NextVersion())
	assert.Equal(t, ledger.Version(10), advanced.BaseVersion())

	op, ok := advanced.Lookup("fruit")
	require.True(t, ok)
	assert.Equal(t, []byte("orange"), op.Value)

	op, ok = advanced.Lookup("vegetable")
	require.True(t, ok)
	assert.True(t, op.Deletion)

	// the receiver is untouched
	assert.Equal(t, ledger.Version(10), base.NextVersion())
	_, ok = base.Lookup("fruit")
	assert.False(t, ok)
}

func TestSnapshot_Compact(t *testing.T) {
	s := delta.NewSnapshot(5).Advance([]ledger.WriteSet{
		{{Key: "fruit", Value: []byte("apple")}},
	})

	compacted := s.Compact()
	assert.Equal(t, ledger.Version(6), compacted.NextVersion())
	assert.Equal(t, ledger.Version(6), compacted.BaseVersion())
	_, ok := compacted.Lookup("fruit")
	assert.False(t, ok)
}

func TestSnapshot_ReadFunc(t *testing.T) {
	s := delta.NewSnapshot(3).Advance([]ledger.WriteSet{
		{{Key: "fruit", Value: []byte("apple")}, {Key: "vegetable", Deletion: true}},
	})

	read := s.ReadFunc(func(key string) ([]byte, error) {
		if key == "grain" {
			return []byte("rice"), nil
		}
		return nil, nil
	})

	value, err := read("fruit")
	require.NoError(t, err)
	assert.Equal(t, []byte("apple"), value)

	value, err = read("vegetable")
	require.NoError(t, err)
	assert.Nil(t, value)

	value, err = read("grain")
	require.NoError(t, err)
	assert.Equal(t, []byte("rice"), value)
}
