package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server sized around the 30s per-request budget the
// middleware chain enforces: the write timeout leaves headroom for a
// handler that uses its whole budget.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
