// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/ajax/request"
)

// A Policy defines a timeout policy which may be plugged into a
// transport to direct how to set the timeout on each request.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the request described by o.
	// A return value of zero or less means the request has no timeout.
	Timeout(o *request.Options) time.Duration
}

// DefaultPolicy is the default timeout policy. It uses the timeout
// resolved into the request options, where zero means no timeout.
var DefaultPolicy Policy = FromOptions()

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(0)

// Fixed constructs a timeout policy that ignores the request options
// and always returns d.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (p fixed) Timeout(_ *request.Options) time.Duration {
	return time.Duration(p)
}

// FromOptions constructs a timeout policy that returns the timeout
// resolved into the request options. If the options carry no timeout,
// the first positive value in fallback is used instead.
func FromOptions(fallback ...time.Duration) Policy {
	var d time.Duration
	for _, f := range fallback {
		if f > 0 {
			d = f
			break
		}
	}
	return fromOptions(d)
}

type fromOptions time.Duration

func (p fromOptions) Timeout(o *request.Options) time.Duration {
	return request.ResolveTimeout(o.Timeout, time.Duration(p))
}

// Capped constructs a timeout policy that returns the timeout of p,
// but never more than max. A request without a timeout under p gets
// max.
func Capped(p Policy, max time.Duration) Policy {
	if p == nil {
		panic("ajax/timeout: nil policy")
	}
	if max <= 0 {
		panic("ajax/timeout: max must be positive")
	}
	return capped{p, max}
}

type capped struct {
	p   Policy
	max time.Duration
}

func (c capped) Timeout(o *request.Options) time.Duration {
	d := c.p.Timeout(o)
	if d <= 0 || d > c.max {
		return c.max
	}
	return d
}
