// Package handler defines the polymorphic request-handling contract the
// dispatcher drives: an eligibility probe followed by a side-effecting
// execution that fully produces the response.
package handler

import (
	"context"
	"errors"
	"net/http"
)

// Input carries the transport-level request and response handles of one
// inbound request. Both are passed to handlers untouched and are exclusively
// owned by that request for its lifetime.
type Input struct {
	Request  *http.Request
	Response http.ResponseWriter
}

// Handler is the capability the dispatcher binds to its transport.
//
// CanHandle is always invoked before Handle for a given input; no ordering
// across requests is promised. Implementations hold no per-request state and
// must be safe for concurrent use.
type Handler interface {
	// CanHandle reports whether the handler is willing to process input.
	// A nil return means willing; a non-nil return is routing information,
	// not a fault, and must not be surfaced to the client beyond a 404.
	CanHandle(ctx context.Context, input *Input) error

	// Handle processes input and is responsible for fully writing the
	// response (status and body) before returning nil. A returned error is
	// translated to a terminal response by the dispatcher; the handler must
	// not have written anything in that case.
	Handle(ctx context.Context, input *Input) error
}

// ErrNotSupported is the canonical CanHandle rejection.
var ErrNotSupported = errors.New("handler does not support this request")

// Unconditional can be embedded by handlers that accept every request, so
// concrete handlers override CanHandle selectively.
type Unconditional struct{}

// CanHandle accepts every input.
func (Unconditional) CanHandle(context.Context, *Input) error {
	return nil
}

// Sequence composes handlers: the first one whose CanHandle succeeds wins.
//
// The dispatcher still sees a single Handler; routing across several
// handlers stays inside the sequence.
type Sequence []Handler

// CanHandle succeeds when any member is willing to process input.
func (s Sequence) CanHandle(ctx context.Context, input *Input) error {
	for _, h := range s {
		if err := h.CanHandle(ctx, input); err == nil {
			return nil
		}
	}
	return ErrNotSupported
}

// Handle dispatches to the first applicable member.
func (s Sequence) Handle(ctx context.Context, input *Input) error {
	for _, h := range s {
		if err := h.CanHandle(ctx, input); err == nil {
			return h.Handle(ctx, input)
		}
	}
	return ErrNotSupported
}
