// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// A Waiter computes how long a Handler waits before generating a
// failed request again. It is only consulted after the Decider agreed
// to retry.
//
// Implementations of Waiter must be safe for concurrent use by multiple
// goroutines.
type Waiter interface {
	Wait(a *Attempt) time.Duration
}

// DefaultWaiter honors a server's Retry-After hint of up to 30 seconds
// and otherwise backs off exponentially with full jitter from a base of
// 50 milliseconds up to a ceiling of 1 second.
var DefaultWaiter = RetryAfter(NewExpWaiter(50*time.Millisecond, 1*time.Second, time.Now()), 30*time.Second)

// NewFixedWaiter returns a Waiter that always waits d.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *Attempt) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter returns a Waiter that backs off exponentially. The wait
// before retry index i is drawn uniformly from [0, ceil) where
//
//	ceil = min(base << i, max)
//
// which is the "Full Jitter" scheme from
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter.
//
// Base must be positive and max must be at least base.
//
// Jitter selects the randomness. A nil jitter disables it, and every
// wait is exactly ceil. A time.Time, int or int64 seeds a new generator.
// A rand.Source or *rand.Rand is used as given.
func NewExpWaiter(base, max time.Duration, jitter interface{}) Waiter {
	if base < 1 {
		panic("ajax/retry: base must be positive")
	}
	if max < base {
		panic("ajax/retry: max must be at least base")
	}
	return &expWaiter{
		base: base,
		max:  max,
		rand: newRand(jitter),
	}
}

type expWaiter struct {
	base time.Duration
	max  time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

func (w *expWaiter) Wait(a *Attempt) time.Duration {
	ceil := w.ceil(a.Index)
	if w.rand == nil {
		return ceil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Duration(w.rand.Int63n(int64(ceil)))
}

func (w *expWaiter) ceil(i int) time.Duration {
	if i < 0 {
		i = 0
	}
	if i >= 63 {
		return w.max
	}
	c := w.base << uint(i)
	if c < w.base || c>>uint(i) != w.base || c > w.max {
		return w.max
	}
	return c
}

func newRand(jitter interface{}) *rand.Rand {
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		return rand.New(rand.NewSource(j.UnixNano()))
	case int:
		return rand.New(rand.NewSource(int64(j)))
	case int64:
		return rand.New(rand.NewSource(j))
	case *rand.Rand:
		if j == nil {
			panic("ajax/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		return rand.New(j)
	default:
		panic("ajax/retry: invalid jitter type")
	}
}

// RetryAfter returns a Waiter that waits as long as the failed
// response's Retry-After header asks, if the hint is present and no
// longer than limit. Otherwise it defers to w.
func RetryAfter(w Waiter, limit time.Duration) Waiter {
	if w == nil {
		panic("ajax/retry: nil waiter")
	}
	return &retryAfterWaiter{next: w, limit: limit}
}

type retryAfterWaiter struct {
	next  Waiter
	limit time.Duration
}

func (w *retryAfterWaiter) Wait(a *Attempt) time.Duration {
	if a.RetryAfter > 0 && a.RetryAfter <= w.limit {
		return a.RetryAfter
	}
	return w.next.Wait(a)
}

// parseRetryAfter reads a Retry-After value, given either as a number
// of seconds or as an HTTP date relative to now. It returns zero if v
// is empty, malformed or in the past.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0
	}
	if d := t.Sub(now); d > 0 {
		return d
	}
	return 0
}
