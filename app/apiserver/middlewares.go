package apiserver

import (
	"net/http"
	"runtime/debug"
	"sync/atomic"
)

var nextRequestID uint64

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := atomic.AddUint64(&nextRequestID, 1)
		log.Debugf("Request #%d: %s %s from %s", requestID, r.Method, r.RequestURI, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recoveryErr := recover()
			if recoveryErr != nil {
				log.Criticalf("Fatal error: %+v", recoveryErr)
				log.Criticalf("Stack trace: %s", debug.Stack())
				sendErr(w, newHandlerError(http.StatusInternalServerError, "A server error occurred."))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func setJSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
