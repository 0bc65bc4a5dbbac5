// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package ajax provides a declarative request component. A Controller
keeps the request described by its configuration in flight and
publishes the outcome of the most recent request.

Create a Controller to begin making requests.

	c := ajax.New(ajax.Environment{}, request.Config{
		URL:      "https://www.example.com/items",
		Params:   request.ParamsOf("page", 1),
		HandleAs: request.HandleAsJSON,
	})
	defer c.Close()
	h, err := ajax.Fetch(ctx, c)
	...
	items := c.LastResponse()

Set Auto in the configuration and the controller generates a request
by itself, after the debounce duration, whenever the URL, parameters,
headers, body or content type change:

	c.Update(func(cfg *request.Config) {
		cfg.Params.Put("page", 2)
	})

A slow request which has been superseded by a newer one never
overwrites the published outcome of the newer one, so LastResponse and
LastError always describe the last generated request.

For control over how requests are sent, use a custom Transport. Package
transport provides the standard HTTP path and a certificate-pinned
path:

	pc, err := transport.NewPinnedClient(pins)
	...
	env := ajax.Environment{
		Pinned:            transport.NewPinned(pc),
		CertificatePinned: true,
	}

To hook into the lifecycle of each request, install a handler into the
appropriate handler chain. A PreSend handler may veto the request:

	handlers := &ajax.HandlerGroup{}
	handlers.PushBack(ajax.PreSend, ajax.HandlerFunc(
		func(_ ajax.Event, n *ajax.Notification) {
			if n.Options.URL == "" {
				n.Cancel()
			}
		}),
	)
	c := ajax.New(ajax.Environment{Handlers: handlers}, cfg)

To retry failed requests, install a retry.Handler from package retry.

Package ajax provides basic interfaces for each facet of a controller
(Generator, Publisher, and Configurable); a combined interface that
composes them (Requester); and utility functions for working with a
Generator (Fetch and Refresh).
*/
package ajax
