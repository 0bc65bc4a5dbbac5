// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

// A HandlerGroup is a group of event handler chains which can be
// installed in a Controller.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler chain
// for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("ajax: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

// run runs the handler chain for evt and reports whether the
// notification was canceled. A nil group runs nothing.
func (g *HandlerGroup) run(evt Event, n *Notification) bool {
	n.evt = evt
	if g == nil {
		return false
	}
	i := int(evt)
	if i < len(g.handlers) {
		run(g.handlers[i], evt, n)
	}
	return n.Canceled()
}

func run(chain []Handler, evt Event, n *Notification) {
	for _, h := range chain {
		h.Handle(evt, n)
	}
}

// A Handler handles the occurrence of an event during the lifecycle of
// a request.
type Handler interface {
	Handle(Event, *Notification)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers. If f is a function with appropriate
// signature, then HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(Event, *Notification)

// Handle calls f(evt, n).
func (f HandlerFunc) Handle(evt Event, n *Notification) {
	f(evt, n)
}
