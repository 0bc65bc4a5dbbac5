// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport contains the two request transports a controller can
send through.

Standard sends requests with a net/http client. It owns the mechanics of
one request: body encoding, timeout, cookies for credentialed requests,
progress reporting, JSON prefix stripping and decoding the response body
according to the handling mode.

	t := transport.NewStandard()
	resp, err := t.Send(ctx, opts, nil)

Pinned sends requests through a Native transport that validates the
server certificate itself. Native transports speak a different request
and response shape (NativeRequest and NativeResponse), so Pinned
translates in both directions:

	native, err := transport.NewPinnedClient(pins)
	...
	t := transport.NewPinned(native)

A native failure with status StatusNoNetwork is reported as
request.ErrFatalConnectivity rather than as an HTTP error.
*/
package transport
