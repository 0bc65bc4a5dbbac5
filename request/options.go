// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"net/http"
	urlpkg "net/url"
	"strings"
	"time"

	"github.com/gogama/ajax/settings"
	"golang.org/x/net/http/httpguts"
)

// Options describe exactly one request. Build creates a fresh Options
// value for every attempt, and nothing modifies it afterwards except
// PreSend event handlers, which may adjust headers before it is sent.
type Options struct {
	// URL is the request URL including the query string.
	URL string

	// Method is the HTTP method. It is never empty.
	Method string

	// Header holds the request headers keyed by lower-case name.
	Header map[string]string

	// Body is the request body as configured.
	Body interface{}

	// Async is false when the request was configured as synchronous.
	Async bool

	// HandleAs is the handling mode. It is never empty.
	HandleAs string

	// JSONPrefix is stripped from JSON responses before parsing.
	JSONPrefix string

	// WithCredentials sends and stores cookies.
	WithCredentials bool

	// Timeout bounds the request. Zero means no timeout.
	Timeout time.Duration

	// RejectWithRequest wraps failures in a RejectionError.
	RejectWithRequest bool
}

// ContentType returns the content-type header.
func (o *Options) ContentType() string {
	return o.Header["content-type"]
}

// HTTPHeader returns the headers as an http.Header.
func (o *Options) HTTPHeader() http.Header {
	h := make(http.Header, len(o.Header))
	for k, v := range o.Header {
		h.Set(k, v)
	}
	return h
}

// An Env holds the process-wide inputs to Build.
type Env struct {
	// Defaults are the component defaults.
	Defaults settings.Defaults

	// Token is the session token. If non-empty, it is sent as the
	// Authorization header unless a default or configured header
	// overrides it.
	Token string

	// ResolveURL resolves URL prefixes. Nil means identity.
	ResolveURL func(string) string
}

func (env Env) resolve(u string) string {
	if env.ResolveURL == nil {
		return u
	}
	return env.ResolveURL(u)
}

// Build turns a configuration snapshot into request options. It has no
// side effects: building twice from the same Config and Env yields equal
// Options. The Options share the body of c, so an io.Reader body is
// drained by the first send; see Config.BufferBody.
func Build(c Config, env Env) (*Options, error) {
	method := c.Method
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("ajax/request: invalid method %q", method)
	}
	u := RequestURL(c, env.ResolveURL)
	if _, err := urlpkg.Parse(u); err != nil {
		return nil, err
	}
	header, err := RequestHeaders(c, env)
	if err != nil {
		return nil, err
	}
	handleAs := c.HandleAs
	if handleAs == "" {
		handleAs = DefaultHandleAs
	}
	if !validHandleAs(handleAs) {
		return nil, fmt.Errorf("ajax/request: invalid handling mode %q", handleAs)
	}
	return &Options{
		URL:               u,
		Method:            method,
		Header:            header,
		Body:              c.Body,
		Async:             !c.Sync,
		HandleAs:          handleAs,
		JSONPrefix:        c.JSONPrefix,
		WithCredentials:   c.WithCredentials,
		Timeout:           ResolveTimeout(c.Timeout, env.Defaults.Timeout),
		RejectWithRequest: c.RejectWithRequest,
	}, nil
}

// RequestURL returns the configured URL with the query string from
// Params appended, after prefix resolution.
func RequestURL(c Config, resolve func(string) string) string {
	env := Env{ResolveURL: resolve}
	qs := QueryString(c.Params)
	if qs == "" {
		return env.resolve(c.URL)
	}
	sep := "?"
	if strings.Contains(c.URL, "?") {
		sep = "&"
	}
	return env.resolve(c.URL) + sep + qs
}

// RequestHeaders returns the merged request headers keyed by lower-case
// name. Later sources win: the computed content type, then the session
// token, then the default headers, then the configured headers.
func RequestHeaders(c Config, env Env) (map[string]string, error) {
	h := make(map[string]string)
	contentType := c.ContentType
	if contentType == "" {
		if _, ok := c.Body.(string); ok {
			contentType = FormContentType
		}
	}
	if contentType != "" {
		h["content-type"] = contentType
	}
	if env.Token != "" {
		h["authorization"] = env.Token
	}
	for k, v := range env.Defaults.HeaderStrings() {
		h[strings.ToLower(k)] = v
	}
	for k, v := range c.Headers {
		h[strings.ToLower(k)] = fmt.Sprint(v)
	}
	for k, v := range h {
		if !httpguts.ValidHeaderFieldName(k) {
			return nil, fmt.Errorf("ajax/request: invalid header name %q", k)
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return nil, fmt.Errorf("ajax/request: invalid value for header %q", k)
		}
	}
	return h, nil
}

// ResolveTimeout returns explicit if it is positive, otherwise fallback
// if it is positive, otherwise zero.
func ResolveTimeout(explicit, fallback time.Duration) time.Duration {
	if explicit > 0 {
		return explicit
	}
	if fallback > 0 {
		return fallback
	}
	return 0
}

// validMethod reports whether method is an HTTP token, as required by
// RFC 7230 section 3.1.1. Empty methods are interpreted as GET before
// validation.
func validMethod(method string) bool {
	return method != "" && strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

func validHandleAs(s string) bool {
	switch s {
	case HandleAsText, HandleAsJSON, HandleAsXML, HandleAsArrayBuffer, HandleAsBlob, HandleAsDocument:
		return true
	}
	return false
}
