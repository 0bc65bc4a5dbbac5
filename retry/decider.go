// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/ajax/request"
	"github.com/gogama/ajax/transient"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, and Before, and the
// built-in decider TransientErr; or implement your Decider. Use
// DeciderFunc to convert an ordinary function into a Decider, and to
// compose deciders logically using DeciderFunc.And and DeciderFunc.Or.
type Decider interface {
	Decide(a *Attempt) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(a *Attempt) bool

// DefaultTimes is the number of times DefaultPolicy will retry.
const DefaultTimes = 5

// DefaultDecider is a general-purpose retry decider suitable for
// common use cases. It will allow up to DefaultTimes retries (i.e. up
// to 6 total requests), and will retry in the case of a transient error
// (TransientErr) or if the response has one of the following status
// codes: 429 (Too Many Requests); 502 (Bad Gateway); 503 (Service
// Unavailable); or 504 (Gateway Timeout).
var DefaultDecider = Times(DefaultTimes).And(StatusCode(429, 502, 503, 504).Or(TransientErr))

// TransientErr is a decider that indicates a retry if the error is
// transient according to transient.Categorize. Aborted requests are
// never retried.
var TransientErr DeciderFunc = transientErr

// Decide returns true if a retry should be done, and false otherwise.
func (f DeciderFunc) Decide(a *Attempt) bool {
	return f(a)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(a *Attempt) bool {
		return f(a) && g(a)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(a *Attempt) bool {
		return f(a) || g(a)
	}
}

// Times constructs a retry decider which allows up to n retries.
func Times(n int) DeciderFunc {
	return func(a *Attempt) bool {
		return a.Index < n
	}
}

// Before constructs a retry decider allowing retries until d has
// elapsed since the first request in the chain started.
func Before(d time.Duration) DeciderFunc {
	return func(a *Attempt) bool {
		return a.Duration() < d
	}
}

// StatusCode constructs a retry decider allowing retries when the
// failed request received a response whose status is in ss.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(a *Attempt) bool {
		for _, s := range ss2 {
			if a.Status == s {
				return true
			}
		}
		return false
	}
}

func transientErr(a *Attempt) bool {
	return transient.Categorize(a.Err, request.ErrAborted).Transient()
}
