package externalapi

import "bytes"

// Contract is a deployed contract
type Contract struct {
	Address  *Address
	Owner    *Address
	CodeHash *DomainHash
	Height   uint64
}

// Clone returns a clone of Contract
func (contract *Contract) Clone() *Contract {
	if contract == nil {
		return nil
	}
	return &Contract{
		Address:  contract.Address,
		Owner:    contract.Owner,
		CodeHash: contract.CodeHash,
		Height:   contract.Height,
	}
}

// Equal returns whether contract equals to other
func (contract *Contract) Equal(other *Contract) bool {
	if contract == nil || other == nil {
		return contract == other
	}
	return contract.Address.Equal(other.Address) &&
		contract.Owner.Equal(other.Owner) &&
		contract.CodeHash.Equal(other.CodeHash) &&
		contract.Height == other.Height
}

// ContractSnapshot is the state of a contract as of some height
type ContractSnapshot struct {
	Contract *Address
	Height   uint64
	State    []byte
}

// Clone returns a clone of ContractSnapshot
func (snapshot *ContractSnapshot) Clone() *ContractSnapshot {
	if snapshot == nil {
		return nil
	}
	return &ContractSnapshot{
		Contract: snapshot.Contract,
		Height:   snapshot.Height,
		State:    cloneBytes(snapshot.State),
	}
}

// Equal returns whether snapshot equals to other
func (snapshot *ContractSnapshot) Equal(other *ContractSnapshot) bool {
	if snapshot == nil || other == nil {
		return snapshot == other
	}
	return snapshot.Contract.Equal(other.Contract) &&
		snapshot.Height == other.Height &&
		bytes.Equal(snapshot.State, other.State)
}

// Token is a non-fungible token issued by a contract
type Token struct {
	ID              *DomainHash
	Contract        *Address
	Owner           *Address
	IsConsumed      bool
	MintTransaction *DomainHash
}

// Clone returns a clone of Token
func (token *Token) Clone() *Token {
	if token == nil {
		return nil
	}
	return &Token{
		ID:              token.ID,
		Contract:        token.Contract,
		Owner:           token.Owner,
		IsConsumed:      token.IsConsumed,
		MintTransaction: token.MintTransaction,
	}
}

// Equal returns whether token equals to other
func (token *Token) Equal(other *Token) bool {
	if token == nil || other == nil {
		return token == other
	}
	return token.ID.Equal(other.ID) &&
		token.Contract.Equal(other.Contract) &&
		token.Owner.Equal(other.Owner) &&
		token.IsConsumed == other.IsConsumed &&
		token.MintTransaction.Equal(other.MintTransaction)
}
