package model

// VersionedIndex names one of the per-height versioned indices
type VersionedIndex string

// These are the per-height versioned indices
const (
	VersionedIndexLedger           VersionedIndex = "ledger"
	VersionedIndexValidator        VersionedIndex = "validator"
	VersionedIndexContract         VersionedIndex = "contract"
	VersionedIndexContractCode     VersionedIndex = "contractcode"
	VersionedIndexContractSnapshot VersionedIndex = "contractsnapshot"
	VersionedIndexToken            VersionedIndex = "token"
)

// AllVersionedIndices lists every versioned index, in the order they
// are pruned and rolled back
var AllVersionedIndices = []VersionedIndex{
	VersionedIndexLedger,
	VersionedIndexValidator,
	VersionedIndexContract,
	VersionedIndexContractCode,
	VersionedIndexContractSnapshot,
	VersionedIndexToken,
}

// VersionedStore keeps every version of an entity's record, keyed by the
// height at which the version was written. Reads return the newest
// version at or below a height.
type VersionedStore interface {
	Store
	Stage(stagingArea *StagingArea, entityKey []byte, height uint64, record []byte)
	Latest(dbContext DBReader, stagingArea *StagingArea, entityKey []byte) ([]byte, error)
	AtHeight(dbContext DBReader, stagingArea *StagingArea, entityKey []byte, height uint64) ([]byte, error)
	AllLatest(dbContext DBReader, stagingArea *StagingArea) ([][]byte, error)
	DeleteVersion(stagingArea *StagingArea, entityKey []byte, height uint64)
	DeleteVersionsAbove(stagingArea *StagingArea, height uint64)
	DeleteNonLatestBeforeHeight(stagingArea *StagingArea, height uint64)
	ResetCache()
}
