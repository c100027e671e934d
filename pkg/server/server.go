// Package server implements the request dispatcher: it binds one Handler to
// a listening HTTP transport and converts every inbound request into exactly
// one terminal response.
//
// Per-request protocol:
//
//	RECEIVED -> CHECKING -> {INAPPLICABLE, APPLICABLE}
//	APPLICABLE -> HANDLING -> {HANDLED, FAILED}
//
// Terminal states: INAPPLICABLE responds 404 with an empty body, HANDLED
// leaves the response entirely to the handler, FAILED is translated by the
// dispatcher: typed errors keep their status code and message, untyped
// errors become a 500 with the error message, and a handler panicking with
// a non-error value becomes a 500 with the fixed body "Unknown error.".
//
// Each request is dispatched on its own goroutine by the transport; the
// dispatcher holds no mutable per-request state, so no ordering is promised
// across requests.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/shelfd/shelfd/internal/logger"
	"github.com/shelfd/shelfd/internal/ratelimiter"
	"github.com/shelfd/shelfd/pkg/handler"
	"github.com/shelfd/shelfd/pkg/httperror"
	"github.com/shelfd/shelfd/pkg/metrics"
)

// unknownBody is the fixed response body for failures that are not errors.
// It deliberately withholds internal detail.
const unknownBody = "Unknown error."

// Config holds the construction-time dispatcher settings.
type Config struct {
	// Port to listen on. 0 lets the OS pick a free port (useful in tests);
	// the bound address is available through Addr().
	Port int

	// RequestsPerSecond limits the sustained request rate across all
	// clients. 0 means unlimited.
	RequestsPerSecond uint

	// Burst is the rate limiter's bucket capacity.
	Burst uint
}

// Server owns the listening transport and the one injected handler. Both
// are fixed at construction; the Server holds no mutable shared state
// beyond the listener itself.
type Server struct {
	cfg         Config
	handler     handler.Handler
	httpMetrics metrics.HTTPMetrics
	limiter     *ratelimiter.RateLimiter

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// New creates a dispatcher for the given handler.
//
// httpMetrics may be nil, in which case no metrics are recorded. Panics if
// the handler is nil (programmer error).
func New(cfg Config, h handler.Handler, httpMetrics metrics.HTTPMetrics) *Server {
	if h == nil {
		panic("handler cannot be nil")
	}
	if httpMetrics == nil {
		httpMetrics = metrics.NoopHTTPMetrics()
	}

	var limiter *ratelimiter.RateLimiter
	if cfg.RequestsPerSecond > 0 {
		limiter = ratelimiter.New(cfg.RequestsPerSecond, cfg.Burst)
	}

	return &Server{
		cfg:         cfg,
		handler:     h,
		httpMetrics: httpMetrics,
		limiter:     limiter,
	}
}

// Serve binds the listener and serves requests until the context is
// cancelled or the listener fails. Returns nil on context-triggered or
// Stop-triggered shutdown.
func (s *Server) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		lis.Close()
		return fmt.Errorf("server already stopped")
	}
	s.listener = lis
	s.mu.Unlock()

	logger.Info("Server listening on %s", lis.Addr())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	httpServer := &http.Server{Handler: http.HandlerFunc(s.dispatch)}
	if err := httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
		// Serve always returns a non-nil error when the listener closes;
		// Stop() is the expected trigger
		s.mu.Lock()
		stopped := s.closed
		s.mu.Unlock()
		if stopped || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}

// Stop releases the listening socket. It does not abort requests already
// dispatched and does not wait for them either. Safe to call multiple
// times and concurrently with Serve.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.listener != nil {
		err := s.listener.Close()
		s.listener = nil
		return err
	}
	return nil
}

// Addr returns the bound listener address, or nil before Serve has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// dispatch drives the canHandle/handle protocol for one request and writes
// the terminal response for every non-HANDLED outcome.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	method := r.Method

	if s.limiter != nil && !s.limiter.Allow() {
		w.WriteHeader(http.StatusServiceUnavailable)
		s.httpMetrics.RecordRequest(method, metrics.OutcomeThrottled, time.Since(start))
		return
	}

	s.httpMetrics.RecordRequestStart()
	defer s.httpMetrics.RecordRequestEnd()

	ctx := r.Context()
	input := &handler.Input{Request: r, Response: w}

	if err := s.handler.CanHandle(ctx, input); err != nil {
		// Routing information, not a fault: empty body, no error log
		w.WriteHeader(http.StatusNotFound)
		logger.Debug("No handler for %s %s: %v", method, r.URL.Path, err)
		s.httpMetrics.RecordRequest(method, metrics.OutcomeUnmatched, time.Since(start))
		return
	}

	err, panicValue := s.invoke(ctx, input)

	switch {
	case err == nil && panicValue == nil:
		// HANDLED: the handler owns response finalization
		s.httpMetrics.RecordRequest(method, metrics.OutcomeHandled, time.Since(start))

	case err != nil:
		w.WriteHeader(httperror.StatusCodeOf(err))
		fmt.Fprint(w, err.Error())
		logger.Error("Handler failed for %s %s: %v", method, r.URL.Path, err)
		s.httpMetrics.RecordRequest(method, metrics.OutcomeFailed, time.Since(start))

	default:
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, unknownBody)
		logger.Error("Handler failed for %s %s with non-error value: %v", method, r.URL.Path, panicValue)
		s.httpMetrics.RecordRequest(method, metrics.OutcomeFailed, time.Since(start))
	}
}

// invoke runs Handle, converting panics into the dispatcher's tagged
// outcome: a panic with an error value keeps error semantics, anything
// else is an unknown failure reported through panicValue.
func (s *Server) invoke(ctx context.Context, input *handler.Input) (err error, panicValue any) {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(error); ok {
				err = e
				return
			}
			panicValue = v
		}
	}()

	err = s.handler.Handle(ctx, input)
	return err, nil
}
