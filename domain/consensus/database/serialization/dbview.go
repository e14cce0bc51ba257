package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbView is the serializable form of externalapi.View
type DbView struct {
	_                     struct{} `cbor:",toarray"`
	ID                    uint64
	Timestamp             int64
	LastHash              []byte
	Blocks                [][]byte
	Votes                 [][]byte
	Transactions          [][]byte
	ScheduledTransactions [][]byte
	Rewards               [][]byte
}

// ViewToDbView converts a View to DbView
func ViewToDbView(view *externalapi.View) *DbView {
	return &DbView{
		ID:                    view.ID,
		Timestamp:             view.Timestamp,
		LastHash:              DomainHashToDbHash(view.LastHash),
		Blocks:                DomainHashesToDbHashes(view.Blocks),
		Votes:                 DomainHashesToDbHashes(view.Votes),
		Transactions:          DomainHashesToDbHashes(view.Transactions),
		ScheduledTransactions: DomainHashesToDbHashes(view.ScheduledTransactions),
		Rewards:               DomainHashesToDbHashes(view.Rewards),
	}
}

// ViewToDbViewPreimage converts a View to the DbView its hash is
// calculated over. Rewards are regenerated on commit and are not part of it.
func ViewToDbViewPreimage(view *externalapi.View) *DbView {
	dbView := ViewToDbView(view)
	dbView.Rewards = nil
	return dbView
}

// DbViewToView converts a DbView to View
func DbViewToView(dbView *DbView) (*externalapi.View, error) {
	lastHash, err := DbHashToDomainHash(dbView.LastHash)
	if err != nil {
		return nil, err
	}
	hashLists := make([][]*externalapi.DomainHash, 5)
	for i, dbHashes := range [][][]byte{dbView.Blocks, dbView.Votes, dbView.Transactions,
		dbView.ScheduledTransactions, dbView.Rewards} {

		hashLists[i], err = DbHashesToDomainHashes(dbHashes)
		if err != nil {
			return nil, err
		}
	}
	return &externalapi.View{
		ID:                    dbView.ID,
		Timestamp:             dbView.Timestamp,
		LastHash:              lastHash,
		Blocks:                hashLists[0],
		Votes:                 hashLists[1],
		Transactions:          hashLists[2],
		ScheduledTransactions: hashLists[3],
		Rewards:               hashLists[4],
	}, nil
}

// SerializeView serializes the given view
func SerializeView(view *externalapi.View) ([]byte, error) {
	return Serialize(ViewToDbView(view))
}

// DeserializeView deserializes a view serialized with SerializeView
func DeserializeView(viewBytes []byte) (*externalapi.View, error) {
	dbView := &DbView{}
	err := Deserialize(viewBytes, dbView)
	if err != nil {
		return nil, err
	}
	return DbViewToView(dbView)
}
