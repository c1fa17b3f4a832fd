package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Closer releases a resource when the server stops
type Closer struct {
	Name  string
	Close func(ctx context.Context) error
}

type Server struct {
	srv     *http.Server
	closers []Closer
}

func New(addr string, handler http.Handler, closers ...Closer) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		closers: closers,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// closes every registered resource in reverse order.
func (s *Server) Run(ctx context.Context) error {
	log := logger.GetLogger(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🚀 Bookstore back-office listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var result error
	select {
	case err, ok := <-errCh:
		if ok {
			result = multierror.Append(result, fmt.Errorf("failed to start server: %w", err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http server: %w", err))
	}
	if err := CloseAll(shutdownCtx, s.closers...); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// CloseAll closes every resource in reverse order and reports all failures.
func CloseAll(ctx context.Context, closers ...Closer) error {
	var result error
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.Close(ctx); err != nil {
			logger.GetLogger(ctx).WithError(err).Errorf("failed to close %s", c.Name)
			result = multierror.Append(result, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return result
}
