// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"io"
	"reflect"
	"time"
)

// Handling modes say how a response body is decoded.
const (
	HandleAsText        = "text"
	HandleAsJSON        = "json"
	HandleAsXML         = "xml"
	HandleAsArrayBuffer = "arraybuffer"
	HandleAsBlob        = "blob"
	HandleAsDocument    = "document"
)

// DefaultHandleAs is the handling mode used when Config.HandleAs is
// empty.
const DefaultHandleAs = HandleAsJSON

// FormContentType is the content type assumed for plain string bodies.
const FormContentType = "application/x-www-form-urlencoded"

// A Config is a snapshot of the declarative description of the request
// that should be in flight.
//
// The zero value describes a GET with no URL, which a controller never
// fires automatically.
type Config struct {
	// URL is the target of the request, without query parameters from
	// Params. An empty URL means "unset".
	URL string `yaml:"url" json:"url"`

	// Method is the HTTP method. An empty string means GET.
	Method string `yaml:"method,omitempty" json:"method,omitempty"`

	// Params are appended to URL as a query string.
	Params *Params `yaml:"params,omitempty" json:"params,omitempty"`

	// Headers are the request headers. They override both the computed
	// content type and the process-wide default headers. Values are
	// formatted with fmt.Sprint.
	Headers map[string]interface{} `yaml:"headers,omitempty" json:"headers,omitempty"`

	// ContentType sets the content-type header unless Headers sets one.
	ContentType string `yaml:"content_type,omitempty" json:"contentType,omitempty"`

	// Body is the request body: nil, a string, a []byte, an io.Reader,
	// or a structured value encoded according to the content type.
	//
	// An io.Reader can be read only once. Call BufferBody to replace it
	// with its contents before the configuration is built more than
	// once. Controller does this whenever its configuration is set.
	Body interface{} `yaml:"body,omitempty" json:"body,omitempty"`

	// Sync makes GenerateRequest wait for completion handling before
	// returning.
	Sync bool `yaml:"sync,omitempty" json:"sync,omitempty"`

	// HandleAs is the handling mode. Empty means json.
	HandleAs string `yaml:"handle_as,omitempty" json:"handleAs,omitempty"`

	// JSONPrefix is stripped from JSON responses before parsing.
	JSONPrefix string `yaml:"json_prefix,omitempty" json:"jsonPrefix,omitempty"`

	// WithCredentials sends and stores cookies for the request.
	WithCredentials bool `yaml:"with_credentials,omitempty" json:"withCredentials,omitempty"`

	// Timeout bounds each request. Zero defers to the process-wide
	// default, and if that is zero too, there is no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Auto makes a controller fire a request whenever the request
	// description changes.
	Auto bool `yaml:"auto,omitempty" json:"auto,omitempty"`

	// DebounceDuration is how long a controller waits for changes to
	// settle before firing automatically.
	DebounceDuration time.Duration `yaml:"debounce_duration,omitempty" json:"debounceDuration,omitempty"`

	// Verbose sends raw request errors to the diagnostic logger.
	Verbose bool `yaml:"verbose,omitempty" json:"verbose,omitempty"`

	// Bubbles is the bubbling policy attached to request, response and
	// error notifications.
	Bubbles bool `yaml:"bubbles,omitempty" json:"bubbles,omitempty"`

	// RejectWithRequest makes a failed Handle report a RejectionError
	// carrying the handle, instead of the bare error.
	RejectWithRequest bool `yaml:"reject_with_request,omitempty" json:"rejectWithRequest,omitempty"`
}

// Clone returns a copy of c with its own Params and Headers. Maps,
// slices and arrays in Body are copied deeply, so the copy's body can be
// mutated in place without affecting c. Pointers, structs and readers
// in Body are shared.
func (c Config) Clone() Config {
	d := c
	d.Params = c.Params.Clone()
	d.Body = cloneBody(c.Body)
	if c.Headers != nil {
		d.Headers = make(map[string]interface{}, len(c.Headers))
		for k, v := range c.Headers {
			d.Headers[k] = v
		}
	}
	return d
}

// RequestChanged reports whether any field that determines the request
// differs between c and d. Verbose, Bubbles, DebounceDuration and
// RejectWithRequest are not considered.
func (c Config) RequestChanged(d Config) bool {
	return c.URL != d.URL ||
		c.Method != d.Method ||
		!c.Params.Equal(d.Params) ||
		!reflect.DeepEqual(c.Headers, d.Headers) ||
		c.ContentType != d.ContentType ||
		!reflect.DeepEqual(c.Body, d.Body) ||
		c.Sync != d.Sync ||
		c.HandleAs != d.HandleAs ||
		c.JSONPrefix != d.JSONPrefix ||
		c.WithCredentials != d.WithCredentials ||
		c.Timeout != d.Timeout ||
		c.Auto != d.Auto
}

// BufferBody replaces an io.Reader body with the bytes it yields,
// closing it if it is an io.Closer. Other bodies are left alone. If
// reading fails, Body is set to nil and the error is returned.
func (c *Config) BufferBody() error {
	r, ok := c.Body.(io.Reader)
	if !ok {
		return nil
	}
	b, err := io.ReadAll(r)
	if cl, ok := r.(io.Closer); ok {
		if cerr := cl.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		c.Body = nil
		return fmt.Errorf("ajax/request: reading body: %w", err)
	}
	c.Body = b
	return nil
}

func cloneBody(body interface{}) interface{} {
	if body == nil {
		return nil
	}
	if _, ok := body.(io.Reader); ok {
		return body
	}
	return cloneValue(reflect.ValueOf(body)).Interface()
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		w := reflect.New(v.Type()).Elem()
		w.Set(cloneValue(v.Elem()))
		return w
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		w := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			w.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return w
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		w := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			w.Index(i).Set(cloneValue(v.Index(i)))
		}
		return w
	case reflect.Array:
		w := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			w.Index(i).Set(cloneValue(v.Index(i)))
		}
		return w
	}
	return v
}
