package apiserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/app/apiserver/apimodel"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/version"
)

// maxRequestBodySize bounds the size of submitted objects
const maxRequestBodySize = 1 << 20

type handlerError struct {
	ErrorCode    int
	ErrorMessage string
}

func (hErr *handlerError) Error() string {
	return hErr.ErrorMessage
}

func newHandlerError(code int, message string) *handlerError {
	return &handlerError{
		ErrorCode:    code,
		ErrorMessage: message,
	}
}

// newHandlerErrorFromError maps consensus errors to HTTP status codes
func newHandlerErrorFromError(err error) *handlerError {
	switch {
	case database.IsNotFoundError(err):
		return newHandlerError(http.StatusNotFound, err.Error())
	case errors.Is(err, ruleerrors.ErrMissingGenesis):
		return newHandlerError(http.StatusServiceUnavailable, "The chain has no genesis yet.")
	case ruleerrors.IsRuleError(err):
		return newHandlerError(http.StatusUnprocessableEntity, err.Error())
	default:
		log.Errorf("Unexpected error while handling request: %+v", err)
		return newHandlerError(http.StatusInternalServerError, "A server error occurred.")
	}
}

type handlerFunc func(vars map[string]string, r *http.Request) (interface{}, *handlerError)

func (s *Server) makeHandler(handler handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, hErr := handler(mux.Vars(r), r)
		if hErr != nil {
			sendErr(w, hErr)
			return
		}
		sendJSONResponse(w, http.StatusOK, response)
	}
}

func sendJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	b, err := json.Marshal(response)
	if err != nil {
		panic(errors.WithStack(err))
	}
	w.WriteHeader(statusCode)
	_, err = w.Write(b)
	if err != nil {
		log.Debugf("Could not write response: %s", err)
	}
}

func sendErr(w http.ResponseWriter, hErr *handlerError) {
	sendJSONResponse(w, hErr.ErrorCode, &apimodel.ErrorResponse{
		ErrorCode:    hErr.ErrorCode,
		ErrorMessage: hErr.ErrorMessage,
	})
}

func (s *Server) addRoutes(router *mux.Router) {
	router.HandleFunc("/", s.makeHandler(s.getInfoHandler)).Methods(http.MethodGet)
	router.HandleFunc("/info", s.makeHandler(s.getInfoHandler)).Methods(http.MethodGet)
	router.HandleFunc("/chainstate", s.makeHandler(s.getChainStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/chainstate/{height:[0-9]+}", s.makeHandler(s.getChainStateAtHandler)).Methods(http.MethodGet)
	router.HandleFunc("/views/{height:[0-9]+}", s.makeHandler(s.getViewHandler)).Methods(http.MethodGet)
	router.HandleFunc("/views/hash/{hash}", s.makeHandler(s.getViewByHashHandler)).Methods(http.MethodGet)
	router.HandleFunc("/blocks/{hash}", s.makeHandler(s.getBlockHandler)).Methods(http.MethodGet)
	router.HandleFunc("/votes/{hash}", s.makeHandler(s.getVoteHandler)).Methods(http.MethodGet)
	router.HandleFunc("/transactions/due", s.makeHandler(s.getDueTransactionsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/transactions/{hash}", s.makeHandler(s.getTransactionHandler)).Methods(http.MethodGet)
	router.HandleFunc("/ledgers/{address}", s.makeHandler(s.getLedgerHandler)).Methods(http.MethodGet)
	router.HandleFunc("/validators", s.makeHandler(s.getValidatorsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/validators/{address}", s.makeHandler(s.getValidatorHandler)).Methods(http.MethodGet)
	router.HandleFunc("/contracts/{address}", s.makeHandler(s.getContractHandler)).Methods(http.MethodGet)
	router.HandleFunc("/tokens/{id}", s.makeHandler(s.getTokenHandler)).Methods(http.MethodGet)

	router.HandleFunc("/blocks", s.makeHandler(s.submitBlockHandler)).Methods(http.MethodPost)
	router.HandleFunc("/votes", s.makeHandler(s.submitVoteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/transactions", s.makeHandler(s.submitTransactionHandler)).Methods(http.MethodPost)
}

func parseHashVar(vars map[string]string, name string) (*externalapi.DomainHash, *handlerError) {
	hash, err := externalapi.NewDomainHashFromString(vars[name])
	if err != nil {
		return nil, newHandlerError(http.StatusUnprocessableEntity,
			fmt.Sprintf("The given %s is not a hex-encoded %d-byte hash.", name, externalapi.DomainHashSize))
	}
	return hash, nil
}

func parseAddressVar(vars map[string]string, name string) (*externalapi.Address, *handlerError) {
	address, err := externalapi.NewAddressFromString(vars[name])
	if err != nil {
		return nil, newHandlerError(http.StatusUnprocessableEntity,
			fmt.Sprintf("The given %s is not a valid address: %s", name, err))
	}
	return address, nil
}

func parseHeightVar(vars map[string]string) (uint64, *handlerError) {
	height, err := strconv.ParseUint(vars["height"], 10, 64)
	if err != nil {
		return 0, newHandlerError(http.StatusUnprocessableEntity,
			fmt.Sprintf("The given height is not a valid number: %s", vars["height"]))
	}
	return height, nil
}

func decodeBody(r *http.Request, target interface{}) *handlerError {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return newHandlerError(http.StatusBadRequest, "Could not read the request body.")
	}
	err = json.Unmarshal(body, target)
	if err != nil {
		return newHandlerError(http.StatusUnprocessableEntity,
			fmt.Sprintf("The request body is not valid JSON: %s", err))
	}
	return nil
}

func (s *Server) getInfoHandler(_ map[string]string, _ *http.Request) (interface{}, *handlerError) {
	chainState := s.consensus.ChainState()
	pendingBlocks, pendingVotes, pendingTransactions := s.consensus.PendingCounts()
	info := &apimodel.NodeInfo{
		UserAgent:           version.UserAgent(),
		Network:             s.params.Name,
		State:               s.consensus.State().String(),
		PendingBlocks:       pendingBlocks,
		PendingVotes:        pendingVotes,
		PendingTransactions: pendingTransactions,
	}
	if chainState != nil {
		info.ViewID = chainState.ID
		info.ViewHash = chainState.ViewHash.String()
	}
	return info, nil
}

func (s *Server) getChainStateHandler(_ map[string]string, _ *http.Request) (interface{}, *handlerError) {
	chainState := s.consensus.ChainState()
	if chainState == nil {
		return nil, newHandlerError(http.StatusServiceUnavailable, "The chain has no genesis yet.")
	}
	return apimodel.DomainChainStateToChainState(chainState), nil
}

func (s *Server) getChainStateAtHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	height, hErr := parseHeightVar(vars)
	if hErr != nil {
		return nil, hErr
	}
	chainState, err := s.consensus.GetChainStateAt(height)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainChainStateToChainState(chainState), nil
}

func (s *Server) getViewHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	height, hErr := parseHeightVar(vars)
	if hErr != nil {
		return nil, hErr
	}
	view, err := s.consensus.GetView(height)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainViewToView(view), nil
}

func (s *Server) getViewByHashHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	viewHash, hErr := parseHashVar(vars, "hash")
	if hErr != nil {
		return nil, hErr
	}
	view, err := s.consensus.GetViewByHash(viewHash)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainViewToView(view), nil
}

func (s *Server) getBlockHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	blockHash, hErr := parseHashVar(vars, "hash")
	if hErr != nil {
		return nil, hErr
	}
	block, err := s.consensus.GetBlock(blockHash)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainBlockToBlock(block), nil
}

func (s *Server) getVoteHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	voteHash, hErr := parseHashVar(vars, "hash")
	if hErr != nil {
		return nil, hErr
	}
	vote, err := s.consensus.GetVote(voteHash)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainVoteToVote(vote), nil
}

func (s *Server) getTransactionHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	transactionHash, hErr := parseHashVar(vars, "hash")
	if hErr != nil {
		return nil, hErr
	}
	transaction, err := s.consensus.GetTransaction(transactionHash)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainTransactionToTransaction(transaction), nil
}

func (s *Server) getDueTransactionsHandler(_ map[string]string, _ *http.Request) (interface{}, *handlerError) {
	dueTransactions, err := s.consensus.GetDueTransactions()
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	hashes := make([]string, len(dueTransactions))
	for i, hash := range dueTransactions {
		hashes[i] = hash.String()
	}
	return hashes, nil
}

func (s *Server) getLedgerHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	address, hErr := parseAddressVar(vars, "address")
	if hErr != nil {
		return nil, hErr
	}
	ledger, err := s.consensus.Ledger(address)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainLedgerToLedger(ledger), nil
}

func (s *Server) getValidatorsHandler(_ map[string]string, _ *http.Request) (interface{}, *handlerError) {
	validators, err := s.consensus.Validators()
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	apiValidators := make([]*apimodel.Validator, len(validators))
	for i, validator := range validators {
		apiValidators[i] = apimodel.DomainValidatorToValidator(validator)
	}
	return apiValidators, nil
}

func (s *Server) getValidatorHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	address, hErr := parseAddressVar(vars, "address")
	if hErr != nil {
		return nil, hErr
	}
	validator, found, err := s.consensus.Validator(address)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	if !found {
		return nil, newHandlerError(http.StatusNotFound, "No validator with the given address was found.")
	}
	return apimodel.DomainValidatorToValidator(validator), nil
}

func (s *Server) getContractHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	address, hErr := parseAddressVar(vars, "address")
	if hErr != nil {
		return nil, hErr
	}
	contract, err := s.consensus.GetContract(address)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainContractToContract(contract), nil
}

func (s *Server) getTokenHandler(vars map[string]string, _ *http.Request) (interface{}, *handlerError) {
	tokenID, hErr := parseHashVar(vars, "id")
	if hErr != nil {
		return nil, hErr
	}
	token, err := s.consensus.GetToken(tokenID)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return apimodel.DomainTokenToToken(token), nil
}

func (s *Server) submitBlockHandler(_ map[string]string, r *http.Request) (interface{}, *handlerError) {
	apiBlock := &apimodel.Block{}
	hErr := decodeBody(r, apiBlock)
	if hErr != nil {
		return nil, hErr
	}
	block, err := apimodel.BlockToDomainBlock(apiBlock)
	if err != nil {
		return nil, newHandlerError(http.StatusUnprocessableEntity, err.Error())
	}
	accepted, err := s.consensus.AddBlock(r.Context(), block)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return &apimodel.SubmitResponse{
		Hash:     consensushashing.BlockHash(block).String(),
		Accepted: accepted,
	}, nil
}

func (s *Server) submitVoteHandler(_ map[string]string, r *http.Request) (interface{}, *handlerError) {
	apiVote := &apimodel.Vote{}
	hErr := decodeBody(r, apiVote)
	if hErr != nil {
		return nil, hErr
	}
	vote, err := apimodel.VoteToDomainVote(apiVote)
	if err != nil {
		return nil, newHandlerError(http.StatusUnprocessableEntity, err.Error())
	}
	accepted, err := s.consensus.AddVote(r.Context(), vote)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return &apimodel.SubmitResponse{
		Hash:     consensushashing.VoteHash(vote).String(),
		Accepted: accepted,
	}, nil
}

func (s *Server) submitTransactionHandler(_ map[string]string, r *http.Request) (interface{}, *handlerError) {
	apiTransaction := &apimodel.Transaction{}
	hErr := decodeBody(r, apiTransaction)
	if hErr != nil {
		return nil, hErr
	}
	transaction, err := apimodel.TransactionToDomainTransaction(apiTransaction)
	if err != nil {
		return nil, newHandlerError(http.StatusUnprocessableEntity, err.Error())
	}
	result, err := s.consensus.AddTransaction(r.Context(), transaction)
	if err != nil {
		return nil, newHandlerErrorFromError(err)
	}
	return &apimodel.SubmitResponse{
		Hash:            consensushashing.TransactionHash(transaction).String(),
		Accepted:        result == externalapi.ExecutionResultPending,
		ExecutionResult: result.String(),
	}, nil
}
