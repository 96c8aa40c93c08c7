package httpserver

import (
	"context"
	"net/http"
	"time"
)

// New builds the API server. A manually triggered matching pass can hold a
// request open while it scores the whole population, so the write timeout is
// generous relative to the read side.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Shutdown drains in-flight requests, giving up after timeout.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
