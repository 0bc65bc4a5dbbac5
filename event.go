// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

import (
	"github.com/gogama/ajax/request"
)

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Controller's Environment to
// observe or steer its requests.
type Event int

const (
	// PreSend identifies the event that occurs after a request handle
	// is created but before it is sent.
	//
	// When Controller fires PreSend, the notification's Request and
	// Options are set. Handlers may adjust the headers in Options. If
	// any handler cancels the notification, the handle is aborted and
	// never sent, and the controller's published state is left alone.
	PreSend Event = iota
	// Request identifies the generic event that occurs after a request
	// has been handed to the transport.
	Request
	// AjaxRequest identifies the specific event that occurs right after
	// Request.
	AjaxRequest
	// PostReceive identifies the event that occurs after a request
	// succeeds but before its response is published.
	//
	// Handlers may mutate the parsed body of the handle's response. The
	// notification is cancelable, but cancellation has no effect.
	PostReceive
	// Response identifies the generic event that occurs after a
	// successful response is published.
	//
	// Note that Response fires even for a handle that is no longer the
	// controller's last request, in which case nothing was published.
	Response
	// AjaxResponse identifies the specific event that occurs right
	// after Response.
	AjaxResponse
	// AjaxError identifies the specific event that occurs after a
	// request fails. The notification's Err is set.
	AjaxError
	// Error identifies the generic event that occurs right after
	// AjaxError.
	//
	// Like Response, Error fires for stale handles too.
	Error
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"ajax-presend",
	"request",
	"ajax-request",
	"ajax-postreceive",
	"response",
	"ajax-response",
	"ajax-error",
	"error",
}

// Events returns a slice containing all events which can occur during
// the lifecycle of one request, in the order in which they would occur.
// A request fires either the response events or the error events, never
// both.
func Events() []Event {
	return []Event{
		PreSend,
		Request,
		AjaxRequest,
		PostReceive,
		Response,
		AjaxResponse,
		AjaxError,
		Error,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}

// Cancelable reports whether handlers can cancel a notification of the
// event.
func (evt Event) Cancelable() bool {
	return evt == PreSend || evt == PostReceive
}

// A Notification is the payload handed to each Handler when an event
// fires.
type Notification struct {
	// Request is the handle the event concerns. It is never nil.
	Request *request.Handle

	// Options are the request options. They are set for PreSend,
	// Request and AjaxRequest.
	Options *request.Options

	// Err describes the failure. It is set for AjaxError and Error.
	Err *ErrorRecord

	// Bubbles is the bubbling policy of the controller that fired the
	// event. PreSend notifications always bubble.
	Bubbles bool

	evt      Event
	canceled bool
}

// Event returns the event being fired.
func (n *Notification) Event() Event {
	return n.evt
}

// Cancel cancels the notification if its event is cancelable, and does
// nothing otherwise.
func (n *Notification) Cancel() {
	if n.evt.Cancelable() {
		n.canceled = true
	}
}

// Canceled reports whether some handler canceled the notification.
func (n *Notification) Canceled() bool {
	return n.canceled
}
