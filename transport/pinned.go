// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gogama/ajax/request"
)

// Status codes a Native transport reports for failures that never
// produced an HTTP response.
const (
	// StatusNoNetwork means the request could not reach the network.
	StatusNoNetwork = -1

	// StatusTLSFailure means the TLS handshake failed, including
	// certificate pin mismatches.
	StatusTLSFailure = -2
)

// SerializerJSON is the only serializer Pinned asks a Native transport
// to use.
const SerializerJSON = "json"

// A NativeRequest is the request shape a Native transport accepts.
type NativeRequest struct {
	Method          string
	Headers         map[string]string
	Data            interface{}
	Serializer      string
	Timeout         time.Duration
	WithCredentials bool
}

// A NativeResponse is the response shape a Native transport produces.
// Data holds the body of a successful response and Error the body, or
// message, of a failed one.
type NativeResponse struct {
	Status     int
	StatusText string
	URL        string
	Headers    map[string]string
	Data       string
	Error      string
}

// A NativeError is returned by a Native transport together with the
// NativeResponse describing a failed request.
type NativeError struct {
	Status  int
	Message string
}

func (err *NativeError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("ajax/transport: native request failed with status %d", err.Status)
	}
	return fmt.Sprintf("ajax/transport: native request failed with status %d: %s", err.Status, err.Message)
}

// A Native transport validates server certificates against a pin set
// and performs requests in its own request shape.
//
// SendRequest returns a nil error on success. On failure it returns a
// non-nil error and, whenever possible, a NativeResponse whose Status
// is either an HTTP status or one of StatusNoNetwork and
// StatusTLSFailure.
type Native interface {
	SendRequest(ctx context.Context, url string, r *NativeRequest) (*NativeResponse, error)
}

var acceptTypes = map[string]string{
	request.HandleAsJSON:        "application/json",
	request.HandleAsText:        "text/plain",
	request.HandleAsDocument:    "text/html",
	request.HandleAsXML:         "application/xml",
	request.HandleAsArrayBuffer: "application/octet-stream",
}

// Pinned adapts a Native transport into a transport a controller can
// send through.
type Pinned struct {
	Native Native
}

// NewPinned returns a Pinned transport sending through n.
func NewPinned(n Native) *Pinned {
	if n == nil {
		panic("ajax/transport: nil native transport")
	}
	return &Pinned{Native: n}
}

// Send performs the request described by o through the native
// transport.
//
// The response body is always parsed as JSON. A failure with status
// StatusNoNetwork, or a failure without any response, returns an error
// wrapping request.ErrFatalConnectivity. Any other failure returns the
// response, with its body parsed as JSON, and a *request.StatusError.
//
// Progress is not reported.
func (p *Pinned) Send(ctx context.Context, o *request.Options, _ request.ProgressFunc) (*request.Response, error) {
	nr, err := NativeRequestOf(o)
	if err != nil {
		return nil, err
	}
	u := EncodeQuery(o.URL)
	resp, err := p.Native.SendRequest(ctx, u, nr)
	if err == nil {
		if resp == nil {
			resp = &NativeResponse{Status: http.StatusOK}
		}
		return responseOf(u, resp, resp.Data), nil
	}
	if resp == nil || resp.Status == StatusNoNetwork {
		return nil, fmt.Errorf("%w: %v", request.ErrFatalConnectivity, err)
	}
	r := responseOf(u, resp, resp.Error)
	return r, &request.StatusError{StatusCode: r.StatusCode, StatusText: r.StatusText}
}

// NativeRequestOf translates request options into a NativeRequest. The
// accept header is set from the handling mode, and a string or []byte
// body is parsed as JSON.
func NativeRequestOf(o *request.Options) (*NativeRequest, error) {
	h := make(map[string]string, len(o.Header)+1)
	for k, v := range o.Header {
		h[k] = v
	}
	if a, ok := acceptTypes[o.HandleAs]; ok {
		h["accept"] = a
	}
	data, err := nativeData(o.Body)
	if err != nil {
		return nil, err
	}
	return &NativeRequest{
		Method:          o.Method,
		Headers:         h,
		Data:            data,
		Serializer:      SerializerJSON,
		Timeout:         o.Timeout,
		WithCredentials: o.WithCredentials,
	}, nil
}

func nativeData(body interface{}) (interface{}, error) {
	var b []byte
	switch x := body.(type) {
	case string:
		b = []byte(x)
	case []byte:
		b = x
	default:
		return body, nil
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("ajax/transport: body is not JSON: %w", err)
	}
	return v, nil
}

func responseOf(u string, nr *NativeResponse, body string) *request.Response {
	r := &request.Response{
		URL:        nr.URL,
		StatusCode: nr.Status,
		StatusText: nr.StatusText,
		Raw:        []byte(body),
	}
	if r.URL == "" {
		r.URL = u
	}
	if r.StatusText == "" {
		r.StatusText = http.StatusText(nr.Status)
	}
	if len(nr.Headers) > 0 {
		r.Header = make(http.Header, len(nr.Headers))
		for k, v := range nr.Headers {
			r.Header.Set(k, v)
		}
	}
	var v interface{}
	if err := json.Unmarshal(r.Raw, &v); err == nil {
		r.Body = v
	}
	return r
}

// EncodeQuery percent-encodes the query string of u unless it is
// already encoded. A query is taken to be encoded when decoding it
// changes it.
func EncodeQuery(u string) string {
	i := strings.IndexByte(u, '?')
	if i < 0 {
		return u
	}
	q := u[i+1:]
	if d, err := url.PathUnescape(q); err == nil && d != q {
		return u
	}
	return u[:i+1] + EncodeURI(q)
}

// EncodeURI percent-encodes every byte of s except letters, digits and
// the characters a URI may contain unescaped: ;,/?:@&=+$-_.!~*'()#
func EncodeURI(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(";,/?:@&=+$-_.!~*'()#", c) >= 0
}

// IsFatal reports whether err means the native transport could not
// reach the network.
func IsFatal(err error) bool {
	return errors.Is(err, request.ErrFatalConnectivity)
}
