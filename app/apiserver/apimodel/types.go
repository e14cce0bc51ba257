package apimodel

// Block is the API representation of a block
type Block struct {
	Hash       string `json:"hash,omitempty"`
	To         string `json:"to"`
	Value      uint64 `json:"value"`
	Timestamp  int64  `json:"timestamp"`
	LastHash   string `json:"lastHash"`
	Difficulty uint32 `json:"difficulty"`
	Nonce      uint64 `json:"nonce"`
}

// Vote is the API representation of a vote
type Vote struct {
	Hash          string `json:"hash,omitempty"`
	ViewHash      string `json:"viewHash"`
	PublicKey     string `json:"publicKey"`
	Stake         uint64 `json:"stake"`
	RewardAddress string `json:"rewardAddress"`
	Signature     string `json:"signature"`
}

// Transaction is the API representation of a transaction
type Transaction struct {
	Hash            string    `json:"hash,omitempty"`
	Type            string    `json:"type"`
	From            string    `json:"from"`
	To              string    `json:"to,omitempty"`
	Value           uint64    `json:"value"`
	MaxFee          uint64    `json:"maxFee"`
	SpentFee        uint64    `json:"spentFee,omitempty"`
	Timestamp       int64     `json:"timestamp"`
	Data            string    `json:"data,omitempty"`
	PublicKey       string    `json:"publicKey,omitempty"`
	Signature       string    `json:"signature,omitempty"`
	Effects         []*Effect `json:"effects,omitempty"`
	ExecutionResult string    `json:"executionResult,omitempty"`
}

// Effect is the API representation of a contract effect
type Effect struct {
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Value        uint64 `json:"value"`
	Contract     string `json:"contract,omitempty"`
	TokenID      string `json:"tokenId,omitempty"`
	ConsumeToken bool   `json:"consumeToken,omitempty"`
}

// View is the API representation of a view
type View struct {
	Hash                  string   `json:"hash"`
	ID                    uint64   `json:"id"`
	Timestamp             int64    `json:"timestamp"`
	LastHash              string   `json:"lastHash"`
	Blocks                []string `json:"blocks"`
	Votes                 []string `json:"votes"`
	Transactions          []string `json:"transactions"`
	ScheduledTransactions []string `json:"scheduledTransactions"`
	Rewards               []string `json:"rewards"`
}

// ChainState is the API representation of a chain state. Big integers
// are given as decimal strings.
type ChainState struct {
	ID                  uint64 `json:"id"`
	ViewHash            string `json:"viewHash"`
	Weight              string `json:"weight"`
	CurrentDifficulty   uint32 `json:"currentDifficulty"`
	TotalActiveStake    uint64 `json:"totalActiveStake"`
	TotalWork           string `json:"totalWork"`
	TotalVotes          uint64 `json:"totalVotes"`
	TotalTransactions   uint64 `json:"totalTransactions"`
	TotalBlocks         uint64 `json:"totalBlocks"`
	CollectedFees       uint64 `json:"collectedFees"`
	BlockReward         uint64 `json:"blockReward"`
	LastFinalizedHeight uint64 `json:"lastFinalizedHeight"`
	Timestamp           int64  `json:"timestamp"`
	LedgerCommitment    string `json:"ledgerCommitment"`
}

// Ledger is the API representation of an account balance
type Ledger struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Pending uint64 `json:"pending"`
}

// Validator is the API representation of a validator
type Validator struct {
	NodeAddress      string `json:"nodeAddress"`
	RewardAddress    string `json:"rewardAddress"`
	PublicKey        string `json:"publicKey"`
	Stake            uint64 `json:"stake"`
	Active           bool   `json:"active"`
	LastActiveHeight int64  `json:"lastActiveHeight"`
}

// Contract is the API representation of a deployed contract
type Contract struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	CodeHash string `json:"codeHash"`
	Height   uint64 `json:"height"`
}

// Token is the API representation of a token
type Token struct {
	ID              string `json:"id"`
	Contract        string `json:"contract"`
	Owner           string `json:"owner"`
	IsConsumed      bool   `json:"isConsumed"`
	MintTransaction string `json:"mintTransaction"`
}

// Event is the API representation of a state change notification
type Event struct {
	Type        string      `json:"type"`
	Height      uint64      `json:"height"`
	Address     string      `json:"address,omitempty"`
	Transaction string      `json:"transaction,omitempty"`
	TokenID     string      `json:"tokenId,omitempty"`
	ChainState  *ChainState `json:"chainState,omitempty"`
	Ledger      *Ledger     `json:"ledger,omitempty"`
	Validator   *Validator  `json:"validator,omitempty"`
}

// NodeInfo describes the node and its current position
type NodeInfo struct {
	UserAgent           string `json:"userAgent"`
	Network             string `json:"network"`
	State               string `json:"state"`
	ViewID              uint64 `json:"viewId"`
	ViewHash            string `json:"viewHash"`
	PendingBlocks       int    `json:"pendingBlocks"`
	PendingVotes        int    `json:"pendingVotes"`
	PendingTransactions int    `json:"pendingTransactions"`
}

// SubmitResponse is returned for every submitted object
type SubmitResponse struct {
	Hash            string `json:"hash"`
	Accepted        bool   `json:"accepted"`
	ExecutionResult string `json:"executionResult,omitempty"`
}

// ErrorResponse is returned when a request fails
type ErrorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}
