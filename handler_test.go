// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

import (
	"fmt"
	"testing"

	"github.com/gogama/ajax/request"
	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	var evts []string
	var notes []*Notification
	h1 := &testHandler{seq: 1, evts: &evts, notes: &notes}
	h2 := &testHandler{seq: 2, evts: &evts, notes: &notes, cancel: true}
	g := &HandlerGroup{}
	t.Run("PushBack", func(t *testing.T) {
		assert.Panics(t, func() { g.PushBack(PreSend, nil) })
		assert.Panics(t, func() { g.PushBack(Event(123), h1) })
		g.PushBack(PreSend, h1)
		g.PushBack(PreSend, h2)
		g.PushBack(Error, h1)
		g.PushBack(Response, h2)
	})
	t.Run("run", func(t *testing.T) {
		n1 := &Notification{Request: request.NewHandle(&request.Options{})}
		n2 := &Notification{Request: request.NewHandle(&request.Options{})}
		assert.Empty(t, evts)
		assert.Empty(t, notes)
		assert.False(t, g.run(AjaxError, n1))
		assert.Empty(t, evts)
		assert.Empty(t, notes)
		assert.True(t, g.run(PreSend, n1))
		assert.Equal(t, []string{"1.ajax-presend", "2.ajax-presend"}, evts)
		assert.Equal(t, []*Notification{n1, n1}, notes)
		evts = evts[:0]
		notes = notes[:0]
		assert.False(t, g.run(Error, n2))
		assert.Equal(t, []string{"1.error"}, evts)
		assert.Equal(t, []*Notification{n2}, notes)
		evts = evts[:0]
		notes = notes[:0]
		assert.False(t, g.run(Response, n2), "Response is not cancelable")
		assert.Equal(t, []string{"2.response"}, evts)
	})
	t.Run("nil group", func(t *testing.T) {
		var nilGroup *HandlerGroup
		n := &Notification{}
		assert.False(t, nilGroup.run(PreSend, n))
		assert.Equal(t, PreSend, n.Event())
	})
}

type testHandler struct {
	seq    int
	evts   *[]string
	notes  *[]*Notification
	cancel bool
}

func (h *testHandler) Handle(evt Event, n *Notification) {
	*h.evts = append(*h.evts, fmt.Sprintf("%d.%s", h.seq, evt))
	*h.notes = append(*h.notes, n)
	if h.cancel {
		n.Cancel()
	}
}

func TestHandlerFunc(t *testing.T) {
	var _evt Event
	var _n *Notification
	var f = func(evt Event, n *Notification) {
		_evt = evt
		_n = n
	}
	h := HandlerFunc(f)
	n := &Notification{}
	h.Handle(PostReceive, n)

	assert.Equal(t, PostReceive, _evt)
	assert.Same(t, n, _n)
}
