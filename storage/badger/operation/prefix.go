package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/meridianledger/meridian-go/model/ledger"
)

const (

	// codes for per-version transaction records
	codeTransaction     = 1
	codeTransactionInfo = 2
	codeWriteSet        = 3
	codeEventList       = 4

	// codes for key-value ledger state
	codeRegister = 10

	// codes for singleton ledger metadata
	codeNextVersion = 20
	codeAccumulator = 21
	codeCheckpoint  = 22
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, keyPartToBinary(key)...)
	}
	return prefix
}

func keyPartToBinary(v interface{}) []byte {
	switch i := v.(type) {
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case ledger.Version:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(i))
		return b
	case string:
		return []byte(i)
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
