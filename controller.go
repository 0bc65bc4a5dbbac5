// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ajax

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gogama/ajax/diag"
	"github.com/gogama/ajax/request"
	"github.com/gogama/ajax/settings"
	"github.com/gogama/ajax/transport"
	"github.com/sirupsen/logrus"
)

// DebounceTask is the name of the debounce task a Controller restarts
// whenever its request configuration changes.
const DebounceTask = "generate-request"

// A Transport sends the request described by a set of options and
// returns the response.
//
// Send must honor ctx, and should report download progress to progress
// if it is non-nil. A non-2XX response should be returned together with
// a *request.StatusError so the response body is available to error
// handlers.
type Transport interface {
	Send(ctx context.Context, o *request.Options, progress request.ProgressFunc) (*request.Response, error)
}

// An Environment holds the process-wide collaborators of a Controller.
// Its zero value is a valid configuration.
type Environment struct {
	// Name identifies the component. It labels metrics and log entries.
	//
	// If Name is empty, settings.DefaultComponent is used.
	Name string

	// Transport is the standard request path.
	//
	// If Transport is nil, transport.NewStandard() is used.
	Transport Transport

	// Pinned is the certificate-pinned request path. A nil value means
	// the host cannot pin certificates.
	Pinned Transport

	// CertificatePinned enables the pinned path when Pinned is non-nil.
	CertificatePinned bool

	// Defaults are the default headers and timeout of the component.
	Defaults settings.Defaults

	// Session supplies the token sent in the Authorization header.
	//
	// If Session is nil, no token is sent.
	Session settings.TokenSource

	// ResolveURL resolves URL prefixes. If ResolveURL is nil, URLs are
	// used as configured.
	ResolveURL func(string) string

	// Handlers are run when request lifecycle events occur.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup

	// Logger receives lifecycle logs at debug level and, for verbose
	// configurations, request errors at error level.
	//
	// If Logger is nil, nothing is logged.
	Logger logrus.FieldLogger

	// Metrics records request metrics. If Metrics is nil, nothing is
	// recorded.
	Metrics *MetricsCollector

	// OnFatal is called, after the error events fire, for every request
	// that failed with request.ErrFatalConnectivity.
	OnFatal func(*ErrorRecord)
}

// A Controller keeps the request described by its configuration in
// flight and publishes the outcome of the most recent request.
//
// Every call to GenerateRequest creates a new request handle which
// becomes the controller's last request. When a handle settles, its
// outcome is published as LastResponse or LastError only if it is still
// the last request, so a slow, superseded request can never overwrite
// the outcome of a newer one. The events of a superseded request still
// fire.
//
// With Auto set in the configuration, the controller generates a
// request by itself, after the debounce duration, whenever the request
// configuration changes.
//
// Controller is safe for concurrent use by multiple goroutines. Event
// handlers run without any lock held, and may call back into the
// controller.
type Controller struct {
	env      Environment
	name     string
	log      logrus.FieldLogger
	debounce debouncer

	mu           sync.Mutex
	cfg          request.Config
	lastRequest  *request.Handle
	lastResponse interface{}
	lastError    *ErrorRecord
	lastProgress *request.Progress
	loading      bool
	active       []*request.Handle
	unsubscribe  func()
}

// New returns a controller for the given environment and initial
// configuration. An io.Reader body in cfg is read into memory. As if the
// configuration had just changed, an automatic request is scheduled when
// cfg has Auto set and a non-empty URL.
func New(env Environment, cfg request.Config) *Controller {
	c := &Controller{
		env:  env,
		name: env.Name,
		cfg:  cfg.Clone(),
	}
	if c.name == "" {
		c.name = settings.DefaultComponent
	}
	if c.env.Transport == nil {
		c.env.Transport = transport.NewStandard()
	}
	var log logrus.FieldLogger = diag.Discard()
	if env.Logger != nil {
		log = env.Logger
	}
	c.log = log.WithField("component", c.name)
	c.bufferBody(&c.cfg)
	c.schedule(cfg.DebounceDuration)
	return c
}

// Config returns a copy of the current configuration.
func (c *Controller) Config() request.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Clone()
}

// Update changes the configuration. An io.Reader body set by f is read
// into memory before Update returns. If any field that determines the
// request changed, the debounce task is restarted, and when it fires the
// controller generates a request if the configuration at that moment has
// Auto set and a non-empty URL.
func (c *Controller) Update(f func(*request.Config)) {
	c.mu.Lock()
	prev := c.cfg
	next := prev.Clone()
	f(&next)
	c.bufferBody(&next)
	c.cfg = next
	c.mu.Unlock()

	if prev.RequestChanged(next) {
		c.schedule(next.DebounceDuration)
	}
}

func (c *Controller) bufferBody(cfg *request.Config) {
	if err := cfg.BufferBody(); err != nil {
		c.log.WithError(err).Error("ajax: request body dropped")
	}
}

func (c *Controller) schedule(d time.Duration) {
	c.debounce.Run(DebounceTask, d, c.autoFire)
}

func (c *Controller) autoFire() {
	cfg := c.Config()
	if cfg.URL == "" || !cfg.Auto {
		return
	}
	c.env.Metrics.RecordAutoFire(c.name)
	if _, err := c.GenerateRequest(); err != nil {
		c.log.WithError(err).Error("ajax: automatic request not generated")
	}
}

// Close cancels the pending debounce task, if any, and stops automatic
// requests. Requests already in flight are not affected.
func (c *Controller) Close() {
	c.debounce.Stop()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// GenerateRequest creates and sends a request from the current
// configuration and returns its handle.
//
// The request is sent on the certificate-pinned path if the environment
// enables it and provides it, otherwise on the standard path. If a
// PreSend handler cancels the request, the handle is aborted without
// being sent and the controller's published state is left alone.
//
// GenerateRequest returns before the request settles unless the
// configuration has Sync set, in which case it returns after completion
// handling, including the response or error events, is done. Observe
// the settled outcome through the handle's Done and Wait methods, and
// the published one through Completed and WaitCompleted.
//
// An error is returned, and no handle is created, only if the
// configuration cannot be built into request options.
func (c *Controller) GenerateRequest() (*request.Handle, error) {
	cfg := c.Config()
	o, err := request.Build(cfg, c.requestEnv())
	if err != nil {
		return nil, err
	}
	t := c.transport()
	h := request.NewHandle(o)

	c.mu.Lock()
	c.active = append(c.active, h)
	c.mu.Unlock()
	c.env.Metrics.RecordActive(c.name, 1)
	log := c.log.WithFields(logrus.Fields{"request": h.ID, "method": o.Method, "url": o.URL})

	if c.fire(PreSend, &Notification{Request: h, Options: o, Bubbles: true}) {
		log.Debug("ajax: request canceled before send")
		h.Abort()
		c.complete(h)
		return h, nil
	}

	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.unsubscribe = h.Subscribe(func(p request.Progress) {
		c.setProgress(h, p)
	})
	c.lastProgress = nil
	c.lastRequest = h
	c.loading = true
	c.mu.Unlock()

	log.Debug("ajax: sending request")
	go func() {
		resp, err := t.Send(h.Context(), o, h.ReportProgress)
		h.Settle(resp, err)
	}()

	c.fire(Request, &Notification{Request: h, Options: o, Bubbles: cfg.Bubbles})
	c.fire(AjaxRequest, &Notification{Request: h, Options: o, Bubbles: cfg.Bubbles})

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-h.Done()
		c.complete(h)
	}()
	if cfg.Sync {
		<-done
	}
	return h, nil
}

func (c *Controller) transport() Transport {
	if c.env.CertificatePinned && c.env.Pinned != nil {
		return c.env.Pinned
	}
	return c.env.Transport
}

func (c *Controller) setProgress(h *request.Handle, p request.Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h == c.lastRequest {
		c.lastProgress = &p
	}
}

// complete runs completion handling for a settled handle, discards it
// and marks it completed.
func (c *Controller) complete(h *request.Handle) {
	defer h.Complete()
	defer c.discard(h)
	c.env.Metrics.RecordRequest(c.name, h.Options.Method, strings.ToLower(h.State().String()), h.Duration())
	if h.State() == request.Succeeded {
		c.handleResponse(h)
	} else {
		c.handleError(h)
	}
}

func (c *Controller) handleResponse(h *request.Handle) {
	c.fire(PostReceive, &Notification{Request: h, Bubbles: c.bubbles()})

	c.mu.Lock()
	current := h == c.lastRequest
	if current {
		c.lastResponse = h.Response().Body
		c.lastError = nil
		c.loading = false
	}
	bubbles := c.cfg.Bubbles
	c.mu.Unlock()

	if !current {
		c.env.Metrics.RecordStale(c.name)
	}
	c.log.WithFields(logrus.Fields{
		"request": h.ID,
		"status":  h.StatusCode(),
		"stale":   !current,
	}).Debug("ajax: response received")

	c.fire(Response, &Notification{Request: h, Bubbles: bubbles})
	c.fire(AjaxResponse, &Notification{Request: h, Bubbles: bubbles})
}

func (c *Controller) handleError(h *request.Handle) {
	rec := newErrorRecord(h)

	c.mu.Lock()
	current := h == c.lastRequest
	if current {
		c.lastError = rec
		c.lastResponse = nil
		c.loading = false
	}
	bubbles := c.cfg.Bubbles
	verbose := c.cfg.Verbose
	c.mu.Unlock()

	if !current && rec.Kind != KindCanceled {
		c.env.Metrics.RecordStale(c.name)
	}
	log := c.log.WithFields(logrus.Fields{
		"request": h.ID,
		"kind":    rec.Kind,
		"status":  rec.Status,
		"stale":   !current,
	}).WithError(rec.Err)
	if verbose {
		log.Error("ajax: request failed")
	} else {
		log.Debug("ajax: request failed")
	}

	c.fire(AjaxError, &Notification{Request: h, Err: rec, Bubbles: bubbles})
	c.fire(Error, &Notification{Request: h, Err: rec, Bubbles: bubbles})

	if rec.Kind == KindFatal {
		log.Error("ajax: unrecoverable connectivity failure")
		if c.env.OnFatal != nil {
			c.env.OnFatal(rec)
		}
	}
}

// discard removes h from the active requests. Discarding a handle that
// is not active does nothing.
func (c *Controller) discard(h *request.Handle) {
	c.mu.Lock()
	removed := false
	for i := range c.active {
		if c.active[i] == h {
			c.active = append(c.active[:i], c.active[i+1:]...)
			removed = true
			break
		}
	}
	c.mu.Unlock()
	if removed {
		c.env.Metrics.RecordActive(c.name, -1)
	}
}

func (c *Controller) fire(evt Event, n *Notification) bool {
	return c.env.Handlers.run(evt, n)
}

func (c *Controller) bubbles() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Bubbles
}

func (c *Controller) requestEnv() request.Env {
	env := request.Env{
		Defaults:   c.env.Defaults,
		ResolveURL: c.env.ResolveURL,
	}
	if c.env.Session != nil {
		env.Token = c.env.Session.Token()
	}
	return env
}

// LastRequest returns the handle of the most recently sent request, or
// nil if no request was sent yet. Requests canceled by a PreSend
// handler never become the last request.
func (c *Controller) LastRequest() *request.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRequest
}

// LastResponse returns the parsed response body of the last request if
// it succeeded, and nil otherwise.
func (c *Controller) LastResponse() interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponse
}

// LastError returns the error record of the last request if it failed,
// and nil otherwise.
func (c *Controller) LastError() *ErrorRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// LastProgress returns the most recent progress report of the last
// request, or nil if it has not reported progress.
func (c *Controller) LastProgress() *request.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastProgress == nil {
		return nil
	}
	p := *c.lastProgress
	return &p
}

// Loading reports whether the last request is still in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ActiveRequests returns the handles that were created and not yet
// discarded, oldest first.
func (c *Controller) ActiveRequests() []*request.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := make([]*request.Handle, len(c.active))
	copy(a, c.active)
	return a
}

// RequestURL returns the URL, with query string, of the request the
// current configuration describes.
func (c *Controller) RequestURL() string {
	return request.RequestURL(c.Config(), c.env.ResolveURL)
}

// QueryString returns the query string of the request the current
// configuration describes.
func (c *Controller) QueryString() string {
	cfg := c.Config()
	return request.QueryString(cfg.Params)
}

// RequestHeaders returns the headers of the request the current
// configuration describes, keyed by lower-case name.
func (c *Controller) RequestHeaders() (map[string]string, error) {
	return request.RequestHeaders(c.Config(), c.requestEnv())
}

// ToRequestOptions builds the options of the request the current
// configuration describes, without sending anything.
func (c *Controller) ToRequestOptions() (*request.Options, error) {
	return request.Build(c.Config(), c.requestEnv())
}
