package externalapi

// Block is a proof-of-work solution. It is redeemed into a block reward
// transaction when a view that references it commits.
type Block struct {
	To         *Address
	Value      uint64
	Timestamp  int64
	LastHash   *DomainHash
	Difficulty uint32
	Nonce      uint64
}

// Clone returns a clone of Block
func (block *Block) Clone() *Block {
	if block == nil {
		return nil
	}
	return &Block{
		To:         block.To,
		Value:      block.Value,
		Timestamp:  block.Timestamp,
		LastHash:   block.LastHash,
		Difficulty: block.Difficulty,
		Nonce:      block.Nonce,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = Block{&Address{}, 0, 0, &DomainHash{}, 0, 0}

// Equal returns whether block equals to other
func (block *Block) Equal(other *Block) bool {
	if block == nil || other == nil {
		return block == other
	}
	return block.To.Equal(other.To) &&
		block.Value == other.Value &&
		block.Timestamp == other.Timestamp &&
		block.LastHash.Equal(other.LastHash) &&
		block.Difficulty == other.Difficulty &&
		block.Nonce == other.Nonce
}
