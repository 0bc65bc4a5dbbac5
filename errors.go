// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

import (
	"errors"
	"fmt"

	"github.com/gogama/ajax/request"
	"github.com/gogama/ajax/transient"
)

// An ErrorKind classifies the failure of a request.
type ErrorKind int

const (
	// KindTransport is a connection, timeout or HTTP level failure.
	KindTransport ErrorKind = iota
	// KindCanceled means a PreSend handler vetoed the request, so no
	// network call was made.
	KindCanceled
	// KindFatal means the pinned transport could not reach the network
	// and produced no HTTP status.
	KindFatal
)

var kindNames = []string{"transport", "canceled", "fatal"}

// String returns the name of the kind.
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// An ErrorRecord describes the failure of one request. The last error
// of a Controller is an ErrorRecord, and so is the Err field of every
// error notification.
type ErrorRecord struct {
	// Request is the failed handle.
	Request *request.Handle

	// Err is the error the handle settled with.
	Err error

	// Kind classifies Err.
	Kind ErrorKind

	// Status is the HTTP status, or zero if there was no response.
	Status int

	// StatusText is the HTTP status text, or empty if there was no
	// response.
	StatusText string

	// Response is the parsed body of the error response, if any.
	Response interface{}
}

func newErrorRecord(h *request.Handle) *ErrorRecord {
	rec := &ErrorRecord{
		Request: h,
		Err:     h.Err(),
		Kind:    kindOf(h.Err()),
	}
	if resp := h.Response(); resp != nil {
		rec.Status = resp.StatusCode
		rec.StatusText = resp.StatusText
		rec.Response = resp.Body
	}
	return rec
}

func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, request.ErrAborted):
		return KindCanceled
	case errors.Is(err, request.ErrFatalConnectivity):
		return KindFatal
	default:
		return KindTransport
	}
}

func (rec *ErrorRecord) Error() string {
	if rec.Err == nil {
		return "ajax: " + rec.Kind.String() + " failure"
	}
	return rec.Err.Error()
}

// Unwrap returns Err.
func (rec *ErrorRecord) Unwrap() error {
	return rec.Err
}

// Category returns the transient error category of Err.
func (rec *ErrorRecord) Category() transient.Category {
	if rec.Kind == KindCanceled {
		return transient.Canceled
	}
	return transient.Categorize(rec.Err, request.ErrAborted)
}

// Transient reports whether the failure is likely to go away if the
// request is generated again. Canceled and fatal failures, and failures
// with an HTTP status, are never transient.
func (rec *ErrorRecord) Transient() bool {
	if rec.Kind != KindTransport || rec.Status != 0 {
		return false
	}
	return rec.Category().Transient()
}
