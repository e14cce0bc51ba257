package apiserver

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/domain/consensus"
	"github.com/viewledger/viewd/infrastructure/eventbus"
)

const gracefulShutdownTimeout = 30 * time.Second

// Server serves the ledger over HTTP: JSON queries, object submission and
// a websocket feed of consensus events
type Server struct {
	listenAddr string
	params     *chainconfig.Params
	consensus  consensus.Consensus
	eventBus   *eventbus.EventBus

	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener

	connectionsLock sync.Mutex
	connections     map[*websocketConnection]struct{}
}

// New creates a new API server. Call Start to begin serving.
func New(listenAddr string, params *chainconfig.Params, consensus consensus.Consensus,
	eventBus *eventbus.EventBus) *Server {

	s := &Server{
		listenAddr:  listenAddr,
		params:      params,
		consensus:   consensus,
		eventBus:    eventBus,
		connections: make(map[*websocketConnection]struct{}),
	}

	router := mux.NewRouter()
	router.Use(recoveryMiddleware)
	router.Use(loggingMiddleware)
	router.HandleFunc("/ws", s.handleWebsocket)

	apiRouter := router.NewRoute().Subrouter()
	apiRouter.Use(setJSONMiddleware)
	s.addRoutes(apiRouter)

	s.router = router
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves requests in the
// background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return errors.Wrapf(err, "could not listen on %s", s.listenAddr)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("API server listening on %s", listener.Addr())
	spawn("apiserver.Server.Start", func() {
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("API server stopped: %s", err)
		}
	})
	return nil
}

// Addr returns the address the server listens on. It is nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts the server down and closes all websocket feeds
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)

	s.connectionsLock.Lock()
	for connection := range s.connections {
		connection.close()
	}
	s.connectionsLock.Unlock()

	return errors.WithStack(err)
}
