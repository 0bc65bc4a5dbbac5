// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gogama/ajax/request"
	"github.com/gogama/ajax/timeout"
	"golang.org/x/net/publicsuffix"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	Do(r *http.Request) (*http.Response, error)
}

// Standard is the default transport. Its zero value is a valid
// configuration.
//
// Standard is safe for concurrent use by multiple goroutines.
type Standard struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard net/http
	// package is used.
	HTTPDoer HTTPDoer

	// Jar stores cookies for requests made with credentials. Requests
	// without credentials never read or write it.
	//
	// If Jar is nil, a jar using the public suffix list is created on
	// first use.
	Jar http.CookieJar

	// TimeoutPolicy decides the timeout of each request.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy

	jarOnce sync.Once
}

// NewStandard returns a Standard transport using http.DefaultClient.
func NewStandard() *Standard {
	return &Standard{}
}

// Send performs the request described by o.
//
// A response with a non-2XX status is returned together with a
// *request.StatusError. Any other error has the type *url.Error, and
// its Timeout method reports whether the request timed out.
func (s *Standard) Send(ctx context.Context, o *request.Options, progress request.ProgressFunc) (*request.Response, error) {
	policy := s.TimeoutPolicy
	if policy == nil {
		policy = timeout.DefaultPolicy
	}
	if d := policy.Timeout(o); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	b, err := EncodeBody(o.Body, o.ContentType())
	if err != nil {
		return nil, urlErrorWrap(o, err)
	}
	var body io.Reader
	if len(b) > 0 {
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, o.Method, o.URL, body)
	if err != nil {
		return nil, urlErrorWrap(o, err)
	}
	req.Header = o.HTTPHeader()

	var jar http.CookieJar
	if o.WithCredentials {
		jar = s.jar()
		for _, c := range jar.Cookies(req.URL) {
			req.AddCookie(c)
		}
	}

	resp, err := s.doer().Do(req)
	if err != nil {
		return nil, urlErrorWrap(o, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if jar != nil {
		if rc := resp.Cookies(); len(rc) > 0 {
			jar.SetCookies(req.URL, rc)
		}
	}

	raw, err := readBody(resp, progress)
	if err != nil {
		return nil, urlErrorWrap(o, err)
	}

	r := &request.Response{
		URL:        o.URL,
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		r.URL = resp.Request.URL.String()
	}
	r.Raw, r.Body = Decode(o.HandleAs, o.JSONPrefix, resp.Header.Get("Content-Type"), raw)
	if !r.OK() {
		return r, &request.StatusError{StatusCode: r.StatusCode, StatusText: r.StatusText}
	}
	return r, nil
}

func (s *Standard) doer() HTTPDoer {
	if s.HTTPDoer == nil {
		return http.DefaultClient
	}
	return s.HTTPDoer
}

func (s *Standard) jar() http.CookieJar {
	s.jarOnce.Do(func() {
		if s.Jar == nil {
			// cookiejar.New never returns an error.
			s.Jar, _ = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		}
	})
	return s.Jar
}

func readBody(resp *http.Response, progress request.ProgressFunc) ([]byte, error) {
	if progress == nil {
		return io.ReadAll(resp.Body)
	}
	pr := &progressReader{
		r:        resp.Body,
		progress: progress,
		p: request.Progress{
			Total:            resp.ContentLength,
			LengthComputable: resp.ContentLength >= 0,
		},
	}
	if !pr.p.LengthComputable {
		pr.p.Total = 0
	}
	return io.ReadAll(pr)
}

type progressReader struct {
	r        io.Reader
	progress request.ProgressFunc
	p        request.Progress
}

func (pr *progressReader) Read(b []byte) (int, error) {
	n, err := pr.r.Read(b)
	if n > 0 {
		pr.p.Loaded += int64(n)
		pr.progress(pr.p)
	}
	return n, err
}

func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if strings.HasPrefix(resp.Status, prefix) {
		return resp.Status[len(prefix):]
	}
	if resp.Status != "" {
		return resp.Status
	}
	return http.StatusText(resp.StatusCode)
}

func urlErrorWrap(o *request.Options, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(o.Method),
		URL: o.URL,
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
