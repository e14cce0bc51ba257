package multiset

import (
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// Multiset is an order-independent commitment to a set of records that
// supports incremental additions and removals
type Multiset struct {
	ms *muhash.MuHash
}

// Add adds the given record to the multiset
func (m *Multiset) Add(data []byte) {
	m.ms.Add(data)
}

// Remove removes the given record from the multiset
func (m *Multiset) Remove(data []byte) {
	m.ms.Remove(data)
}

// Hash returns the finalized hash of the multiset
func (m *Multiset) Hash() *externalapi.DomainHash {
	finalizedHash := m.ms.Finalize()
	hash, err := externalapi.NewDomainHashFromByteSlice(finalizedHash[:])
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. muhash hashes are domain hash sized"))
	}
	return hash
}

// Serialize returns the serialized form of the multiset
func (m *Multiset) Serialize() []byte {
	return m.ms.Serialize()[:]
}

// Clone returns a clone of the multiset
func (m *Multiset) Clone() *Multiset {
	return &Multiset{ms: m.ms.Clone()}
}

// FromBytes deserializes the given bytes slice and returns a multiset.
// An empty slice is the empty multiset.
func FromBytes(multisetBytes []byte) (*Multiset, error) {
	if len(multisetBytes) == 0 {
		return New(), nil
	}
	serialized := &muhash.SerializedMuHash{}
	if len(serialized) != len(multisetBytes) {
		return nil, errors.Errorf("mutliset bytes expected to be in length of %d but got %d",
			len(serialized), len(multisetBytes))
	}
	copy(serialized[:], multisetBytes)
	ms, err := muhash.DeserializeMuHash(serialized)
	if err != nil {
		return nil, err
	}

	return &Multiset{ms: ms}, nil
}

// New returns a new empty Multiset
func New() *Multiset {
	return &Multiset{ms: muhash.NewMuHash()}
}
