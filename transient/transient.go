// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"syscall"
)

// A Category is the transience category of a request error, as
// reported by function Categorize().
//
// The category Not means the error is not transient: regenerating the
// same request is very unlikely to succeed. Canceled means nobody wanted
// the request to complete, so it should not be regenerated either.
//
// All other categories indicate the error is transient, in the sense
// that a fresh request made a little later has a reasonable chance of
// succeeding.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates the request timed out on the client side.
	//
	// Function Categorize() will return Timeout if the error or any of
	// its wrapped causes has a Timeout() function that reports true, or
	// is context.DeadlineExceeded.
	Timeout
	// ConnRefused indicates the remote host refused the connection, and
	// corresponds to the POSIX error code ECONNREFUSED.
	//
	// Connection refusal is transient because it happens while the
	// service on the remote host is starting or restarting.
	ConnRefused
	// ConnReset indicates the remote host returned an RST packet on a
	// previously active TCP connection, and corresponds to the POSIX
	// error code ECONNRESET.
	ConnReset
	// Canceled indicates the request was cancelled on the client side,
	// for example because it was aborted before being sent.
	//
	// Function Categorize() will return Canceled if the error is not a
	// Timeout and the error or any of its wrapped causes is
	// context.Canceled, or matches one of the extra errors passed to
	// Categorize.
	Canceled
)

var categoryNames = []string{"not", "timeout", "conn_refused", "conn_reset", "canceled"}

// String returns a short lower-case name for the category, suitable as
// a metric label.
func (c Category) String() string {
	return categoryNames[int(c)]
}

// Transient reports whether a request failing with an error in this
// category is worth regenerating.
func (c Category) Transient() bool {
	return c == Timeout || c == ConnRefused || c == ConnReset
}

// Categorize returns the transience category of err. Any errors in
// canceled are treated like context.Canceled.
func Categorize(err error, canceled ...error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	if errors.Is(err, context.Canceled) {
		return Canceled
	}
	for _, c := range canceled {
		if errors.Is(err, c) {
			return Canceled
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
