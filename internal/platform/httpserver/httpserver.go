package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the project's timeouts. Registry lookups
// bound the slowest handler, so WriteTimeout leaves room for them.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
