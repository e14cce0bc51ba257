package serialization

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(errors.Wrap(err, "failed creating canonical cbor encoding mode"))
	}
}

// Serialize encodes the given database object using canonical CBOR.
// The output is deterministic, which makes it usable as a hashing
// preimage.
func Serialize(dbObject interface{}) ([]byte, error) {
	serialized, err := encMode.Marshal(dbObject)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return serialized, nil
}

// Deserialize decodes the given bytes into dbObject
func Deserialize(serialized []byte, dbObject interface{}) error {
	err := cbor.Unmarshal(serialized, dbObject)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}
