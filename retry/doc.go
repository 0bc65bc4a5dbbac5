// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry generates the request of an ajax.Controller again when
// it fails, according to a flexible retry policy.
//
// The interface Policy defines a retry Policy. A Policy instance can be
// constructed using NewPolicy by providing a decision-maker, Decider,
// and a wait time calculator, Waiter. Both Decider and Waiter have
// constructors for common use cases, so that a useful policy can be
// quickly assembled:
//
//	decider := retry.Times(3).
//		And(retry.Before(5 * time.Second)).
//		And(retry.StatusCode(500).Or(retry.TransientErr))
//	waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now())
//	policy := retry.NewPolicy(decider, waiter)
//
// A Handler applies a Policy to a controller. It listens for the Error
// event and, if the failed request is still the controller's last
// request, schedules a new one:
//
//	g := &ajax.HandlerGroup{}
//	c := ajax.New(ajax.Environment{Handlers: g}, cfg)
//	h := &retry.Handler{Target: c, Policy: policy}
//	h.Install(g)
//	defer h.Stop()
//
// If the built-in functionality is insufficient, fully custom retry
// policies can be created by via custom implementations of Decider,
// Waiter, or Policy.
package retry
