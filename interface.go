// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

import (
	"context"

	"github.com/gogama/ajax/request"
)

// Generator is the interface that wraps the basic GenerateRequest
// method.
//
// GenerateRequest builds the request described by the current
// configuration, sends it, and returns its handle. Implementations
// call the handle's Complete method once the outcome is published.
// Controller implements the Generator interface.
type Generator interface {
	GenerateRequest() (*request.Handle, error)
}

// Publisher is the interface that wraps the read-only published state
// of a controller.
type Publisher interface {
	LastRequest() *request.Handle
	LastResponse() interface{}
	LastError() *ErrorRecord
	LastProgress() *request.Progress
	Loading() bool
	ActiveRequests() []*request.Handle
}

// Configurable is the interface that wraps the basic Config and Update
// methods.
type Configurable interface {
	Config() request.Config
	Update(f func(*request.Config))
}

// Requester is the interface that groups the Generator, Publisher and
// Configurable interfaces. Controller implements Requester.
type Requester interface {
	Generator
	Publisher
	Configurable
}

// Fetch uses the specified Generator to generate a request and waits
// until it is completed or ctx is done. When Fetch returns without a
// ctx error, the outcome is already published by the Generator.
//
// The returned handle is nil only if the request could not be built. A
// non-nil error is either the error the handle settled with or the
// error of ctx.
func Fetch(ctx context.Context, g Generator) (*request.Handle, error) {
	h, err := g.GenerateRequest()
	if err != nil {
		return nil, err
	}
	_, err = h.WaitCompleted(ctx)
	return h, err
}

// Refresh changes the configuration of c with f and then fetches the
// request it describes, whether or not Auto is set.
func Refresh(ctx context.Context, c interface {
	Generator
	Configurable
}, f func(*request.Config)) (*request.Handle, error) {
	if f != nil {
		c.Update(f)
	}
	return Fetch(ctx, c)
}

var _ Requester = (*Controller)(nil)
