package unittest

import (
	"os"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"

	badgerstorage "github.com/meridianledger/meridian-go/storage/badger"
)

func TempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "meridian-unittest")
	require.NoError(t, err)
	return dir
}

func RunWithTempDir(t testing.TB, f func(string)) {
	dbDir := TempDir(t)
	defer os.RemoveAll(dbDir)
	f(dbDir)
}

func BadgerDB(t testing.TB, dir string) *badger.DB {
	opts := badger.
		DefaultOptions(dir).
		WithKeepL0InMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	return db
}

func RunWithBadgerDB(t testing.TB, f func(*badger.DB)) {
	RunWithTempDir(t, func(dir string) {
		db := BadgerDB(t, dir)
		defer db.Close()
		f(db)
	})
}

// RunWithBadgerLedger runs the test against a ledger store backed by a fresh
// temp-dir badger database.
func RunWithBadgerLedger(t testing.TB, f func(*badgerstorage.Ledger)) {
	RunWithBadgerDB(t, func(db *badger.DB) {
		l, err := badgerstorage.NewLedger(Logger(), db)
		require.NoError(t, err)
		f(l)
	})
}
