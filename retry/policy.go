// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/ajax/request"
)

// An Attempt describes a failed request a retry Policy is consulted
// about.
type Attempt struct {
	// Index counts the retries that led to the failed request. It is
	// zero for the first request in a chain of retries.
	Index int

	// Start is when the first request in the chain started.
	Start time.Time

	// End is when the failed request settled.
	End time.Time

	// Status is the HTTP status of the failed request, or zero if there
	// was no response.
	Status int

	// Err is the error the failed request settled with.
	Err error

	// RetryAfter is the wait the server asked for in a Retry-After
	// header, or zero if it did not ask.
	RetryAfter time.Duration
}

// attemptOf describes the failure of h, which is the retry with index
// i of a chain started at start.
func attemptOf(h *request.Handle, i int, start time.Time) *Attempt {
	end := h.Start.Add(h.Duration())
	return &Attempt{
		Index:      i,
		Start:      start,
		End:        end,
		Status:     h.StatusCode(),
		Err:        h.Err(),
		RetryAfter: parseRetryAfter(h.Header().Get("Retry-After"), end),
	}
}

// Duration returns how long the chain of retries has taken so far.
func (a *Attempt) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// A Policy controls if and how failed requests of a controller are
// retried. After every failure of the controller's last request, a
// Policy decides whether a retry should be done and, if so, how long
// the wait period should be before generating the request again.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
//
// A Policy is composed of the Decider and Waiter interfaces. While you
// can implement Policy yourself, it may be more efficient to use one
// of the built-in retry policies, DefaultPolicy or Never, or to construct
// your policy using the NewPolicy constructor using existing Decider
// and Waiter implementations.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy is a general-purpose retry policy suitable for common
// use cases. It is a composition of DefaultDecider for retry decisions
// and DefaultWaiter for wait time calculations.
var DefaultPolicy Policy = policy{DefaultDecider, DefaultWaiter}

// Never is a policy that never retries.
var Never Policy = policy{Times(0), DefaultWaiter}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("ajax/retry: nil decider")
	}
	if w == nil {
		panic("ajax/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(a *Attempt) bool {
	return p.decider.Decide(a)
}

func (p policy) Wait(a *Attempt) time.Duration {
	return p.waiter.Wait(a)
}
