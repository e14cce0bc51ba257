package serialization

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Uint64ToKeyBytes serializes the given value in big-endian order,
// so that the lexicographic order of keys matches numeric order.
func Uint64ToKeyBytes(value uint64) []byte {
	keyBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(keyBytes, value)
	return keyBytes
}

// KeyBytesToUint64 deserializes a value serialized with Uint64ToKeyBytes
func KeyBytesToUint64(keyBytes []byte) (uint64, error) {
	if len(keyBytes) != 8 {
		return 0, errors.Errorf("invalid uint64 key length %d", len(keyBytes))
	}
	return binary.BigEndian.Uint64(keyBytes), nil
}
