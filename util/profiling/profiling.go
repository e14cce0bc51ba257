package profiling

import (
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/viewledger/viewd/infrastructure/logger"
	"github.com/viewledger/viewd/util/panics"
)

// NewRouter returns a router serving the runtime profiles under /debug/pprof
func NewRouter() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	router.Handle("/", http.RedirectHandler("/debug/pprof/", http.StatusSeeOther))
	return router
}

// Start starts the profiling server
func Start(port string, log *logger.Logger) {
	spawn := panics.GoroutineWrapperFunc(log)
	spawn("profiling.Start", func() {
		listenAddr := net.JoinHostPort("", port)
		log.Infof("Profile server listening on %s", listenAddr)
		log.Error(http.ListenAndServe(listenAddr, NewRouter()))
	})
}
