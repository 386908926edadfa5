package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/sha3"
)

// HashLen is the size of a ledger hash in bytes.
const HashLen = 32

// Hash represents a 32-byte SHA3-256 digest of a canonically encoded entity.
type Hash [HashLen]byte

// ZeroHash is the all-zero hash, used as the pre-genesis accumulator root.
var ZeroHash = Hash{}

// canonical encoding mode used for hashing; deterministic map ordering so the
// same entity always produces the same digest.
var hashEncMode cbor.EncMode

func init() {
	var err error
	hashEncMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not initialize canonical cbor encoder: %v", err))
	}
}

// MakeHash canonically encodes the given entity and returns its SHA3-256 digest.
func MakeHash(entity interface{}) Hash {
	data, err := hashEncMode.Marshal(entity)
	if err != nil {
		// all hashable model types are plain data; encoding can only fail on
		// unsupported Go types, which is a programming error
		panic(fmt.Sprintf("could not encode entity for hashing: %v", err))
	}
	return sha3.Sum256(data)
}

// ExtendRoot folds one accumulator leaf into the given root, producing the
// root of the accumulator after the leaf is appended.
func ExtendRoot(root Hash, leaf Hash) Hash {
	data := make([]byte, 0, 2*HashLen)
	data = append(data, root[:]...)
	data = append(data, leaf[:]...)
	return sha3.Sum256(data)
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero returns true if the hash is the zero value.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}
