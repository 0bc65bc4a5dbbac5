// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// A State is the lifecycle state of a Handle.
type State int

const (
	// Pending means the handle has not settled yet.
	Pending State = iota
	// Succeeded means the transport produced a successful response.
	Succeeded
	// Failed means the transport reported an error.
	Failed
	// Aborted means the handle was aborted before it settled.
	Aborted
)

var stateNames = []string{"Pending", "Succeeded", "Failed", "Aborted"}

// String returns the name of the state.
func (s State) String() string {
	return stateNames[int(s)]
}

// A Handle represents one attempt to send an Options value.
//
// A Handle starts Pending and settles exactly once. After it settles,
// its outcome never changes, with one exception: PostReceive event
// handlers may modify the decoded body of the Response in place before
// the outcome is published.
//
// Handle is safe for concurrent use.
type Handle struct {
	// ID uniquely identifies the handle.
	ID string

	// Options are the request options the handle was created from. It is
	// never nil.
	Options *Options

	// Start is when the handle was created.
	Start time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	completed chan struct{}
	complete  sync.Once

	mu       sync.Mutex
	state    State
	end      time.Time
	response *Response
	err      error
	progress Progress
	subs     map[int]ProgressFunc
	nextSub  int

	// data contains arbitrary user data, accessed with Value and
	// SetValue.
	data context.Context
}

// NewHandle returns a pending handle for o.
func NewHandle(o *Options) *Handle {
	if o == nil {
		panic("ajax/request: nil options")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		ID:        uuid.New().String(),
		Options:   o,
		Start:     time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		completed: make(chan struct{}),
	}
}

// Context returns a context which is cancelled when the handle is
// aborted or settles. Transports use it to stop work that is no longer
// wanted.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Settle records the outcome of the attempt. If err is nil the handle
// succeeds; otherwise it fails. The response may be non-nil in either
// case, for example when the server replied with an error status.
//
// Settle returns false, and changes nothing, if the handle has already
// settled.
func (h *Handle) Settle(resp *Response, err error) bool {
	state := Succeeded
	if err != nil {
		state = Failed
		if errors.Is(err, ErrAborted) {
			state = Aborted
		}
	}
	return h.settle(state, resp, err)
}

// Abort settles the handle as Aborted and cancels its context. It
// returns false if the handle had already settled.
func (h *Handle) Abort() bool {
	return h.settle(Aborted, nil, ErrAborted)
}

func (h *Handle) settle(state State, resp *Response, err error) bool {
	h.mu.Lock()
	if h.state != Pending {
		h.mu.Unlock()
		return false
	}
	h.state = state
	h.end = time.Now()
	h.response = resp
	if err != nil && h.Options.RejectWithRequest {
		err = &RejectionError{Request: h, Err: err}
	}
	h.err = err
	h.subs = nil
	h.mu.Unlock()

	h.cancel()
	close(h.done)
	return true
}

// Done returns a channel that is closed when the handle settles.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Complete marks the handle as completed: its outcome has been settled
// and published by whoever generated it. Complete settles a pending
// handle as Aborted first. Calls after the first do nothing.
func (h *Handle) Complete() {
	h.Abort()
	h.complete.Do(func() { close(h.completed) })
}

// Completed returns a channel that is closed when Complete is called.
// Controller calls Complete after its completion handling for the
// handle, including the response or error events, is done.
func (h *Handle) Completed() <-chan struct{} {
	return h.completed
}

// WaitCompleted blocks until the handle is completed or ctx is done,
// and returns the outcome.
func (h *Handle) WaitCompleted(ctx context.Context) (*Response, error) {
	select {
	case <-h.completed:
		return h.Response(), h.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait blocks until the handle settles or ctx is done, and returns the
// outcome.
func (h *Handle) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-h.done:
		return h.Response(), h.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Settled reports whether the handle has left the Pending state.
func (h *Handle) Settled() bool {
	return h.State() != Pending
}

// Response returns the captured response, or nil if there is none.
func (h *Handle) Response() *Response {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.response
}

// Err returns the error the handle settled with, or nil.
//
// If the options were built with RejectWithRequest, a non-nil error is
// a *RejectionError wrapping the underlying error.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// StatusCode returns the HTTP status code of the captured response, or
// zero if there is none.
func (h *Handle) StatusCode() int {
	if r := h.Response(); r != nil {
		return r.StatusCode
	}
	return 0
}

// StatusText returns the status text of the captured response, or the
// empty string if there is none.
func (h *Handle) StatusText() string {
	if r := h.Response(); r != nil {
		return r.StatusText
	}
	return ""
}

// Header returns the headers of the captured response. A nil header is
// returned if there is no response; it is safe for read-only use.
func (h *Handle) Header() http.Header {
	if r := h.Response(); r != nil {
		return r.Header
	}
	var nilHeader http.Header
	return nilHeader
}

// Duration returns how long the handle has been, or was, pending.
func (h *Handle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.end.IsZero() {
		return time.Since(h.Start)
	}
	return h.end.Sub(h.Start)
}

// ReportProgress records download progress and passes it to every
// subscriber. Reports after the handle settles are ignored.
func (h *Handle) ReportProgress(p Progress) {
	h.mu.Lock()
	if h.state != Pending {
		h.mu.Unlock()
		return
	}
	h.progress = p
	subs := make([]ProgressFunc, 0, len(h.subs))
	for _, f := range h.subs {
		subs = append(subs, f)
	}
	h.mu.Unlock()

	for _, f := range subs {
		f(p)
	}
}

// Progress returns the most recently reported progress.
func (h *Handle) Progress() Progress {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.progress
}

// Subscribe registers f to receive progress reports until the returned
// function is called or the handle settles.
func (h *Handle) Subscribe(f ProgressFunc) (unsubscribe func()) {
	if f == nil {
		panic("ajax/request: nil progress func")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Pending {
		return func() {}
	}
	if h.subs == nil {
		h.subs = make(map[int]ProgressFunc)
	}
	id := h.nextSub
	h.nextSub++
	h.subs[id] = f
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// SetValue allows event handlers to store arbitrary data in the handle.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of a built-in type.
func (h *Handle) SetValue(key, value interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ctx := h.data
	if ctx == nil {
		ctx = context.Background()
	}
	h.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this handle for key,
// or nil if there is no value associated with key.
func (h *Handle) Value(key interface{}) interface{} {
	h.mu.Lock()
	ctx := h.data
	h.mu.Unlock()
	if ctx == nil {
		return nil
	}
	return ctx.Value(key)
}
