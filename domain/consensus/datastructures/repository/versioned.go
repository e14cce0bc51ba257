package repository

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

func (r *repository) StageLedger(stagingArea *model.StagingArea, height uint64, ledger *externalapi.Ledger) error {
	ledgerBytes, err := serialization.SerializeLedger(ledger)
	if err != nil {
		return err
	}
	r.versionedStores[model.VersionedIndexLedger].Stage(stagingArea, ledger.Address.ByteSlice(), height, ledgerBytes)
	return nil
}

func (r *repository) Ledger(stagingArea *model.StagingArea, address *externalapi.Address) (*externalapi.Ledger, error) {
	ledgerBytes, err := r.versionedStores[model.VersionedIndexLedger].Latest(r.databaseContext, stagingArea, address.ByteSlice())
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeLedger(ledgerBytes)
}

func (r *repository) LedgerAt(stagingArea *model.StagingArea, address *externalapi.Address,
	height uint64) (*externalapi.Ledger, error) {

	ledgerBytes, err := r.versionedStores[model.VersionedIndexLedger].AtHeight(
		r.databaseContext, stagingArea, address.ByteSlice(), height)
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeLedger(ledgerBytes)
}

func (r *repository) AllLedgers(stagingArea *model.StagingArea) ([]*externalapi.Ledger, error) {
	records, err := r.versionedStores[model.VersionedIndexLedger].AllLatest(r.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	ledgers := make([]*externalapi.Ledger, len(records))
	for i, record := range records {
		ledgers[i], err = serialization.DeserializeLedger(record)
		if err != nil {
			return nil, err
		}
	}
	return ledgers, nil
}

func (r *repository) StageValidator(stagingArea *model.StagingArea, height uint64, validator *externalapi.Validator) error {
	validatorBytes, err := serialization.SerializeValidator(validator)
	if err != nil {
		return err
	}
	r.versionedStores[model.VersionedIndexValidator].Stage(
		stagingArea, validator.NodeAddress.ByteSlice(), height, validatorBytes)
	return nil
}

func (r *repository) Validator(stagingArea *model.StagingArea, nodeAddress *externalapi.Address) (*externalapi.Validator, error) {
	validatorBytes, err := r.versionedStores[model.VersionedIndexValidator].Latest(
		r.databaseContext, stagingArea, nodeAddress.ByteSlice())
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeValidator(validatorBytes)
}

func (r *repository) ValidatorAt(stagingArea *model.StagingArea, nodeAddress *externalapi.Address,
	height uint64) (*externalapi.Validator, error) {

	validatorBytes, err := r.versionedStores[model.VersionedIndexValidator].AtHeight(
		r.databaseContext, stagingArea, nodeAddress.ByteSlice(), height)
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeValidator(validatorBytes)
}

func (r *repository) AllValidators(stagingArea *model.StagingArea) ([]*externalapi.Validator, error) {
	records, err := r.versionedStores[model.VersionedIndexValidator].AllLatest(r.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	validators := make([]*externalapi.Validator, len(records))
	for i, record := range records {
		validators[i], err = serialization.DeserializeValidator(record)
		if err != nil {
			return nil, err
		}
	}
	return validators, nil
}

func (r *repository) StageContract(stagingArea *model.StagingArea, height uint64, contract *externalapi.Contract) error {
	contractBytes, err := serialization.SerializeContract(contract)
	if err != nil {
		return err
	}
	r.versionedStores[model.VersionedIndexContract].Stage(stagingArea, contract.Address.ByteSlice(), height, contractBytes)
	return nil
}

func (r *repository) Contract(stagingArea *model.StagingArea, address *externalapi.Address) (*externalapi.Contract, error) {
	contractBytes, err := r.versionedStores[model.VersionedIndexContract].Latest(
		r.databaseContext, stagingArea, address.ByteSlice())
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeContract(contractBytes)
}

func (r *repository) StageContractCode(stagingArea *model.StagingArea, height uint64, address *externalapi.Address, code []byte) {
	r.versionedStores[model.VersionedIndexContractCode].Stage(stagingArea, address.ByteSlice(), height, code)
}

func (r *repository) ContractCode(stagingArea *model.StagingArea, address *externalapi.Address) ([]byte, error) {
	return r.versionedStores[model.VersionedIndexContractCode].Latest(r.databaseContext, stagingArea, address.ByteSlice())
}

func (r *repository) StageContractSnapshot(stagingArea *model.StagingArea, snapshot *externalapi.ContractSnapshot) error {
	snapshotBytes, err := serialization.SerializeContractSnapshot(snapshot)
	if err != nil {
		return err
	}
	r.versionedStores[model.VersionedIndexContractSnapshot].Stage(
		stagingArea, snapshot.Contract.ByteSlice(), snapshot.Height, snapshotBytes)
	return nil
}

func (r *repository) ContractSnapshot(stagingArea *model.StagingArea,
	address *externalapi.Address) (*externalapi.ContractSnapshot, error) {

	snapshotBytes, err := r.versionedStores[model.VersionedIndexContractSnapshot].Latest(
		r.databaseContext, stagingArea, address.ByteSlice())
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeContractSnapshot(snapshotBytes)
}

func (r *repository) StageToken(stagingArea *model.StagingArea, height uint64, token *externalapi.Token) error {
	tokenBytes, err := serialization.SerializeToken(token)
	if err != nil {
		return err
	}
	r.versionedStores[model.VersionedIndexToken].Stage(stagingArea, token.ID.ByteSlice(), height, tokenBytes)
	return nil
}

func (r *repository) Token(stagingArea *model.StagingArea, tokenID *externalapi.DomainHash) (*externalapi.Token, error) {
	tokenBytes, err := r.versionedStores[model.VersionedIndexToken].Latest(r.databaseContext, stagingArea, tokenID.ByteSlice())
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeToken(tokenBytes)
}

func (r *repository) TokenAt(stagingArea *model.StagingArea, tokenID *externalapi.DomainHash,
	height uint64) (*externalapi.Token, error) {

	tokenBytes, err := r.versionedStores[model.VersionedIndexToken].AtHeight(
		r.databaseContext, stagingArea, tokenID.ByteSlice(), height)
	if err != nil {
		return nil, err
	}
	return serialization.DeserializeToken(tokenBytes)
}
