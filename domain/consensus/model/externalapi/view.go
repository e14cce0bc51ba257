package externalapi

// View is one atomic consensus step: the blocks, votes and
// transactions that are committed together at a height.
type View struct {
	ID                    uint64
	Timestamp             int64
	LastHash              *DomainHash
	Blocks                []*DomainHash
	Votes                 []*DomainHash
	Transactions          []*DomainHash
	ScheduledTransactions []*DomainHash

	// Rewards is regenerated on commit and never trusted from the caller
	Rewards []*DomainHash
}

// Clone returns a clone of View
func (view *View) Clone() *View {
	if view == nil {
		return nil
	}
	return &View{
		ID:                    view.ID,
		Timestamp:             view.Timestamp,
		LastHash:              view.LastHash,
		Blocks:                CloneHashes(view.Blocks),
		Votes:                 CloneHashes(view.Votes),
		Transactions:          CloneHashes(view.Transactions),
		ScheduledTransactions: CloneHashes(view.ScheduledTransactions),
		Rewards:               CloneHashes(view.Rewards),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = View{0, 0, &DomainHash{}, []*DomainHash{}, []*DomainHash{},
	[]*DomainHash{}, []*DomainHash{}, []*DomainHash{}}

// Equal returns whether view equals to other
func (view *View) Equal(other *View) bool {
	if view == nil || other == nil {
		return view == other
	}
	return view.ID == other.ID &&
		view.Timestamp == other.Timestamp &&
		view.LastHash.Equal(other.LastHash) &&
		HashesEqual(view.Blocks, other.Blocks) &&
		HashesEqual(view.Votes, other.Votes) &&
		HashesEqual(view.Transactions, other.Transactions) &&
		HashesEqual(view.ScheduledTransactions, other.ScheduledTransactions) &&
		HashesEqual(view.Rewards, other.Rewards)
}

// ViewBundle carries a view together with the objects it references.
// It is the unit in which a candidate chain is replayed.
type ViewBundle struct {
	View         *View
	Blocks       []*Block
	Votes        []*Vote
	Transactions []*Transaction
}
