// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const httpShutdownTimeout = 5 * time.Second

// HttpWorker serves the handler until the context is canceled.
type HttpWorker struct {
	Address string
	Handler http.Handler
}

func (w HttpWorker) String() string {
	return fmt.Sprintf("http(%v)", w.Address)
}

func (w HttpWorker) Start(ctx context.Context, ready chan<- struct{}) error {
	server := http.Server{
		Addr:              w.Address,
		Handler:           w.Handler,
		ReadHeaderTimeout: httpShutdownTimeout,
	}
	ln, err := net.Listen("tcp", w.Address)
	if err != nil {
		return err
	}
	slog.Info("http: listening", "address", ln.Addr().String())
	ready <- struct{}{}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http: shutdown failed", "error", err)
		}
	}()
	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
