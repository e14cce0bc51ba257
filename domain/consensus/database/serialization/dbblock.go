package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbBlock is the serializable form of externalapi.Block
type DbBlock struct {
	_          struct{} `cbor:",toarray"`
	To         []byte
	Value      uint64
	Timestamp  int64
	LastHash   []byte
	Difficulty uint32
	Nonce      uint64
}

// BlockToDbBlock converts a Block to DbBlock
func BlockToDbBlock(block *externalapi.Block) *DbBlock {
	return &DbBlock{
		To:         AddressToDbAddress(block.To),
		Value:      block.Value,
		Timestamp:  block.Timestamp,
		LastHash:   DomainHashToDbHash(block.LastHash),
		Difficulty: block.Difficulty,
		Nonce:      block.Nonce,
	}
}

// SerializeBlock serializes the given block
func SerializeBlock(block *externalapi.Block) ([]byte, error) {
	return Serialize(BlockToDbBlock(block))
}

// DeserializeBlock deserializes a block serialized with SerializeBlock
func DeserializeBlock(blockBytes []byte) (*externalapi.Block, error) {
	dbBlock := &DbBlock{}
	err := Deserialize(blockBytes, dbBlock)
	if err != nil {
		return nil, err
	}
	to, err := DbAddressToAddress(dbBlock.To)
	if err != nil {
		return nil, err
	}
	lastHash, err := DbHashToDomainHash(dbBlock.LastHash)
	if err != nil {
		return nil, err
	}
	return &externalapi.Block{
		To:         to,
		Value:      dbBlock.Value,
		Timestamp:  dbBlock.Timestamp,
		LastHash:   lastHash,
		Difficulty: dbBlock.Difficulty,
		Nonce:      dbBlock.Nonce,
	}, nil
}
