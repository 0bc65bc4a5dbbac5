// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"sync"
	"time"

	"github.com/gogama/ajax"
	"github.com/gogama/ajax/diag"
	"github.com/gogama/ajax/request"
	"github.com/sirupsen/logrus"
)

// A Target is the component whose failed requests a Handler retries.
// *ajax.Controller implements Target.
type Target interface {
	GenerateRequest() (*request.Handle, error)
	LastRequest() *request.Handle
}

type attemptKey struct{}

// chain tracks a retry chain across handles.
type chain struct {
	index int
	start time.Time
}

// Handler is an event handler that generates the request of its
// Target again when the target's last request fails and the retry
// Policy allows it.
//
// Failures of requests which are no longer the target's last request
// are never retried, and neither are requests which were canceled or
// aborted.
//
// Install the handler on the PreSend and Error events of the target's
// handler group, for example with Install.
type Handler struct {
	// Target is the component to retry. It must not be nil.
	Target Target

	// Policy decides whether to retry and how long to wait. If Policy is
	// nil, DefaultPolicy is used.
	Policy Policy

	// Logger receives a debug entry for every scheduled retry. If Logger
	// is nil, nothing is logged.
	Logger logrus.FieldLogger

	mu        sync.Mutex
	next      *chain
	timer     *time.Timer
	scheduled bool
	stopped   bool
}

// Install adds h to g for every event h handles.
func (h *Handler) Install(g *ajax.HandlerGroup) {
	g.PushBack(ajax.PreSend, h)
	g.PushBack(ajax.Error, h)
}

// Handle implements ajax.Handler.
func (h *Handler) Handle(evt ajax.Event, n *ajax.Notification) {
	switch evt {
	case ajax.PreSend:
		h.presend(n)
	case ajax.Error:
		h.failed(n)
	}
}

func (h *Handler) presend(n *ajax.Notification) {
	h.mu.Lock()
	c := h.next
	h.next = nil
	h.mu.Unlock()
	if c != nil {
		n.Request.SetValue(attemptKey{}, c)
	}
}

func (h *Handler) failed(n *ajax.Notification) {
	if n.Err == nil || n.Err.Kind == ajax.KindCanceled {
		return
	}
	req := n.Request
	if req != h.Target.LastRequest() {
		return
	}

	c, _ := req.Value(attemptKey{}).(*chain)
	if c == nil {
		c = &chain{start: req.Start}
	}
	a := attemptOf(req, c.index, c.start)
	p := h.policy()
	if !p.Decide(a) {
		return
	}
	wait := p.Wait(a)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.logger().WithFields(logrus.Fields{
		"attempt": a.Index + 1,
		"wait":    wait,
		"status":  a.Status,
	}).Debug("ajax/retry: scheduling retry")
	h.scheduled = true
	h.timer = time.AfterFunc(wait, func() {
		h.fire(req, &chain{index: c.index + 1, start: c.start})
	})
}

func (h *Handler) fire(prev *request.Handle, next *chain) {
	h.mu.Lock()
	h.scheduled = false
	if h.stopped || prev != h.Target.LastRequest() {
		h.mu.Unlock()
		return
	}
	h.next = next
	h.mu.Unlock()

	if _, err := h.Target.GenerateRequest(); err != nil {
		h.logger().WithError(err).Warn("ajax/retry: retry failed")
	}

	// Drop the chain if a handler vetoed the request before PreSend ran.
	h.mu.Lock()
	if h.next == next {
		h.next = nil
	}
	h.mu.Unlock()
}

// Stop cancels any scheduled retry. After Stop returns, h schedules
// no further retries.
func (h *Handler) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	h.scheduled = false
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// Pending reports whether a retry is scheduled but has not yet been
// generated.
func (h *Handler) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scheduled
}

func (h *Handler) policy() Policy {
	if h.Policy == nil {
		return DefaultPolicy
	}
	return h.Policy
}

func (h *Handler) logger() logrus.FieldLogger {
	if h.Logger == nil {
		return diag.Discard()
	}
	return h.Logger
}
