package apimodel

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
)

func addressString(address *externalapi.Address) string {
	if address == nil {
		return ""
	}
	return address.String()
}

func hashString(hash *externalapi.DomainHash) string {
	if hash == nil {
		return ""
	}
	return hash.String()
}

func hashStrings(hashes []*externalapi.DomainHash) []string {
	strs := make([]string, len(hashes))
	for i, hash := range hashes {
		strs[i] = hash.String()
	}
	return strs
}

func parseAddress(addressString string, fieldName string) (*externalapi.Address, error) {
	if addressString == "" {
		return nil, nil
	}
	address, err := externalapi.NewAddressFromString(addressString)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", fieldName)
	}
	return address, nil
}

func parseHash(hashString string, fieldName string) (*externalapi.DomainHash, error) {
	if hashString == "" {
		return nil, nil
	}
	hash, err := externalapi.NewDomainHashFromString(hashString)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", fieldName)
	}
	return hash, nil
}

func parseHex(hexString string, fieldName string) ([]byte, error) {
	if hexString == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", fieldName)
	}
	return decoded, nil
}

// DomainBlockToBlock converts a domain block to its API representation
func DomainBlockToBlock(block *externalapi.Block) *Block {
	return &Block{
		Hash:       consensushashing.BlockHash(block).String(),
		To:         addressString(block.To),
		Value:      block.Value,
		Timestamp:  block.Timestamp,
		LastHash:   hashString(block.LastHash),
		Difficulty: block.Difficulty,
		Nonce:      block.Nonce,
	}
}

// BlockToDomainBlock converts an API block to a domain block. The hash
// field is ignored.
func BlockToDomainBlock(block *Block) (*externalapi.Block, error) {
	to, err := parseAddress(block.To, "to")
	if err != nil {
		return nil, err
	}
	lastHash, err := parseHash(block.LastHash, "lastHash")
	if err != nil {
		return nil, err
	}
	return &externalapi.Block{
		To:         to,
		Value:      block.Value,
		Timestamp:  block.Timestamp,
		LastHash:   lastHash,
		Difficulty: block.Difficulty,
		Nonce:      block.Nonce,
	}, nil
}

// DomainVoteToVote converts a domain vote to its API representation
func DomainVoteToVote(vote *externalapi.Vote) *Vote {
	return &Vote{
		Hash:          consensushashing.VoteHash(vote).String(),
		ViewHash:      hashString(vote.ViewHash),
		PublicKey:     hex.EncodeToString(vote.PublicKey),
		Stake:         vote.Stake,
		RewardAddress: addressString(vote.RewardAddress),
		Signature:     hex.EncodeToString(vote.Signature),
	}
}

// VoteToDomainVote converts an API vote to a domain vote
func VoteToDomainVote(vote *Vote) (*externalapi.Vote, error) {
	viewHash, err := parseHash(vote.ViewHash, "viewHash")
	if err != nil {
		return nil, err
	}
	publicKey, err := parseHex(vote.PublicKey, "publicKey")
	if err != nil {
		return nil, err
	}
	rewardAddress, err := parseAddress(vote.RewardAddress, "rewardAddress")
	if err != nil {
		return nil, err
	}
	signature, err := parseHex(vote.Signature, "signature")
	if err != nil {
		return nil, err
	}
	return &externalapi.Vote{
		ViewHash:      viewHash,
		PublicKey:     publicKey,
		Stake:         vote.Stake,
		RewardAddress: rewardAddress,
		Signature:     signature,
	}, nil
}

// DomainTransactionToTransaction converts a domain transaction to its API
// representation
func DomainTransactionToTransaction(transaction *externalapi.Transaction) *Transaction {
	apiTransaction := &Transaction{
		Hash:            consensushashing.TransactionHash(transaction).String(),
		Type:            transaction.Type.String(),
		From:            addressString(transaction.From),
		To:              addressString(transaction.To),
		Value:           transaction.Value,
		MaxFee:          transaction.MaxFee,
		SpentFee:        transaction.SpentFee,
		Timestamp:       transaction.Timestamp,
		Data:            hex.EncodeToString(transaction.Data),
		PublicKey:       hex.EncodeToString(transaction.PublicKey),
		Signature:       hex.EncodeToString(transaction.Signature),
		ExecutionResult: transaction.ExecutionResult.String(),
	}
	if len(transaction.Effects) > 0 {
		apiTransaction.Effects = make([]*Effect, len(transaction.Effects))
		for i, effect := range transaction.Effects {
			apiTransaction.Effects[i] = &Effect{
				From:         addressString(effect.From),
				To:           addressString(effect.To),
				Value:        effect.Value,
				Contract:     addressString(effect.Contract),
				TokenID:      hashString(effect.TokenID),
				ConsumeToken: effect.ConsumeToken,
			}
		}
	}
	return apiTransaction
}

func transactionTypeFromString(typeString string) (externalapi.TransactionType, error) {
	for transactionType := externalapi.TransactionTypePayment; transactionType <= externalapi.TransactionTypeDeregisterValidator; transactionType++ {
		if transactionType.String() == typeString {
			return transactionType, nil
		}
	}
	return 0, errors.Errorf("unknown transaction type %s", typeString)
}

// TransactionToDomainTransaction converts a submitted API transaction to a
// domain transaction. Execution fields are left for the node to fill.
func TransactionToDomainTransaction(transaction *Transaction) (*externalapi.Transaction, error) {
	transactionType, err := transactionTypeFromString(transaction.Type)
	if err != nil {
		return nil, err
	}
	from, err := parseAddress(transaction.From, "from")
	if err != nil {
		return nil, err
	}
	to, err := parseAddress(transaction.To, "to")
	if err != nil {
		return nil, err
	}
	data, err := parseHex(transaction.Data, "data")
	if err != nil {
		return nil, err
	}
	publicKey, err := parseHex(transaction.PublicKey, "publicKey")
	if err != nil {
		return nil, err
	}
	signature, err := parseHex(transaction.Signature, "signature")
	if err != nil {
		return nil, err
	}
	return &externalapi.Transaction{
		Type:      transactionType,
		From:      from,
		To:        to,
		Value:     transaction.Value,
		MaxFee:    transaction.MaxFee,
		Timestamp: transaction.Timestamp,
		Data:      data,
		PublicKey: publicKey,
		Signature: signature,
	}, nil
}

// DomainViewToView converts a domain view to its API representation
func DomainViewToView(view *externalapi.View) *View {
	return &View{
		Hash:                  consensushashing.ViewHash(view).String(),
		ID:                    view.ID,
		Timestamp:             view.Timestamp,
		LastHash:              hashString(view.LastHash),
		Blocks:                hashStrings(view.Blocks),
		Votes:                 hashStrings(view.Votes),
		Transactions:          hashStrings(view.Transactions),
		ScheduledTransactions: hashStrings(view.ScheduledTransactions),
		Rewards:               hashStrings(view.Rewards),
	}
}

// DomainChainStateToChainState converts a domain chain state to its API
// representation
func DomainChainStateToChainState(chainState *externalapi.ChainState) *ChainState {
	apiChainState := &ChainState{
		ID:                  chainState.ID,
		ViewHash:            hashString(chainState.ViewHash),
		CurrentDifficulty:   chainState.CurrentDifficulty,
		TotalActiveStake:    chainState.TotalActiveStake,
		TotalVotes:          chainState.TotalVotes,
		TotalTransactions:   chainState.TotalTransactions,
		TotalBlocks:         chainState.TotalBlocks,
		CollectedFees:       chainState.CollectedFees,
		BlockReward:         chainState.BlockReward,
		LastFinalizedHeight: chainState.LastFinalizedHeight,
		Timestamp:           chainState.Timestamp,
		LedgerCommitment:    hex.EncodeToString(chainState.LedgerCommitment),
	}
	if chainState.Weight != nil {
		apiChainState.Weight = chainState.Weight.String()
	}
	if chainState.TotalWork != nil {
		apiChainState.TotalWork = chainState.TotalWork.String()
	}
	return apiChainState
}

// DomainLedgerToLedger converts a domain ledger to its API representation
func DomainLedgerToLedger(ledger *externalapi.Ledger) *Ledger {
	return &Ledger{
		Address: addressString(ledger.Address),
		Balance: ledger.Balance,
		Pending: ledger.Pending,
	}
}

// DomainValidatorToValidator converts a domain validator to its API
// representation
func DomainValidatorToValidator(validator *externalapi.Validator) *Validator {
	return &Validator{
		NodeAddress:      addressString(validator.NodeAddress),
		RewardAddress:    addressString(validator.RewardAddress),
		PublicKey:        hex.EncodeToString(validator.PublicKey),
		Stake:            validator.Stake,
		Active:           validator.Active,
		LastActiveHeight: validator.LastActiveHeight,
	}
}

// DomainContractToContract converts a domain contract to its API
// representation
func DomainContractToContract(contract *externalapi.Contract) *Contract {
	return &Contract{
		Address:  addressString(contract.Address),
		Owner:    addressString(contract.Owner),
		CodeHash: hashString(contract.CodeHash),
		Height:   contract.Height,
	}
}

// DomainTokenToToken converts a domain token to its API representation
func DomainTokenToToken(token *externalapi.Token) *Token {
	return &Token{
		ID:              hashString(token.ID),
		Contract:        addressString(token.Contract),
		Owner:           addressString(token.Owner),
		IsConsumed:      token.IsConsumed,
		MintTransaction: hashString(token.MintTransaction),
	}
}

// DomainEventToEvent converts a domain event to its API representation
func DomainEventToEvent(event *externalapi.Event) *Event {
	apiEvent := &Event{
		Type:        event.Type.String(),
		Height:      event.Height,
		Address:     addressString(event.Address),
		Transaction: hashString(event.Transaction),
		TokenID:     hashString(event.TokenID),
	}
	if event.ChainState != nil {
		apiEvent.ChainState = DomainChainStateToChainState(event.ChainState)
	}
	if event.Ledger != nil {
		apiEvent.Ledger = DomainLedgerToLedger(event.Ledger)
	}
	if event.Validator != nil {
		apiEvent.Validator = DomainValidatorToValidator(event.Validator)
	}
	return apiEvent
}
