// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted is the error of a handle that was aborted before it
	// was sent or before it settled.
	ErrAborted = errors.New("ajax/request: request aborted")

	// ErrFatalConnectivity is reported when a transport cannot reach the
	// network at all and no HTTP status is available. It is not an HTTP
	// error and is never worth retrying within the same attempt.
	ErrFatalConnectivity = errors.New("ajax/request: unrecoverable connectivity failure")
)

// A StatusError reports that the server answered with a non-2XX status.
type StatusError struct {
	StatusCode int
	StatusText string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("ajax/request: request failed with status code: %d", err.StatusCode)
}

// A RejectionError carries the failed handle along with its error. It
// is reported instead of the bare error when the options were built
// with RejectWithRequest.
type RejectionError struct {
	Request *Handle
	Err     error
}

func (err *RejectionError) Error() string {
	return err.Err.Error()
}

// Unwrap returns the underlying error.
func (err *RejectionError) Unwrap() error {
	return err.Err
}
