package fakeapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/moamenhredeen/jptest/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Serve runs handler on l until ctx is cancelled, then drains in-flight
// requests.
func Serve(ctx context.Context, l net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()
	logging.GetLogger().Info("fake api listening", "addr", l.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logging.GetLogger().Info("fake api stopped")
	return nil
}
