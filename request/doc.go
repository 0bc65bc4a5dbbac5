// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Config (describes what request
should be in flight), Options (the immutable request derived from a
Config) and Handle (one attempt to send Options over a transport).

The first core type is Config, a snapshot of the declarative request
description: URL, method, query parameters, headers, body, and a handful
of flags controlling how the response is handled. A Config is typically
owned by an ajax.Controller and changes over time.

Build turns a Config into Options. Build is pure: given the same Config
and Env, it always produces equal Options.

	o, err := request.Build(cfg, request.Env{Defaults: defaults})
	...

The query string is derived from Params, which remembers insertion order
so that the generated URL is stable:

	params := request.NewParams()
	params.Put("q", "chrome")
	params.Put("tag", []string{"a", "b"})
	params.Put("flag", nil)
	request.QueryString(params) // "q=chrome&tag=a&tag=b&flag"

The second core type is Handle, which represents one attempt to send an
Options value. A Handle starts Pending and settles exactly once, either
Succeeded, Failed or Aborted. Callers observe completion through Done
and Wait; transports report download progress through ReportProgress.
You will typically not allocate Handle instances yourself, but will
instead work with the ones handed out by ajax.Controller.
*/
package request
