// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command ajax performs one declarative request and prints its outcome.
//
// The request is described by a YAML document holding the process
// settings and a request snapshot:
//
//	certificate_pinned: false
//	components:
//	  ajax:
//	    timeout: 10s
//	log:
//	  level: debug
//	request:
//	  url: https://www.example.com/items
//	  params:
//	    page: 1
//	  handle_as: json
//
// Usage:
//
//	ajax -config request.yaml [-retries 3] [-css sel] [-xpath expr] [-summary] [-metrics]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/gogama/ajax"
	"github.com/gogama/ajax/diag"
	"github.com/gogama/ajax/request"
	"github.com/gogama/ajax/retry"
	"github.com/gogama/ajax/settings"
	"github.com/gogama/ajax/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type document struct {
	Component string         `yaml:"component"`
	Request   request.Config `yaml:"request"`
}

type options struct {
	config  string
	retries int
	wait    time.Duration
	css     string
	xpath   string
	summary bool
	metrics bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("ajax", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.config, "config", os.Getenv("AJAX_CONFIG"), "path to the request document (or set AJAX_CONFIG)")
	fs.IntVar(&o.retries, "retries", 0, "maximum number of retries of a failed request")
	fs.DurationVar(&o.wait, "wait", time.Minute, "maximum time to wait for the outcome")
	fs.StringVar(&o.css, "css", "", "print the text of document nodes matching a CSS selector")
	fs.StringVar(&o.xpath, "xpath", "", "print the text of document nodes matching an XPath expression")
	fs.BoolVar(&o.summary, "summary", false, "print a summary table of the last request")
	fs.BoolVar(&o.metrics, "metrics", false, "print request metrics on exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.config == "" {
		return nil, fmt.Errorf("missing -config")
	}
	return o, nil
}

func load(path string) (*settings.File, *document, error) {
	file, err := settings.Load(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var doc document
	if err = yaml.Unmarshal(b, &doc); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Component == "" {
		doc.Component = settings.DefaultComponent
	}
	return file, &doc, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ajax: %v\n", err)
		return 2
	}
	file, doc, err := load(o.config)
	if err != nil {
		fmt.Fprintf(stderr, "ajax: config load: %v\n", err)
		return 1
	}

	log, err := diag.NewWithConsole(file.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ajax: logger: %v\n", err)
		return 1
	}
	defer log.Close()

	registry := prometheus.NewRegistry()
	handlers := &ajax.HandlerGroup{}
	env := ajax.Environment{
		Name:              doc.Component,
		Defaults:          file.Defaults(doc.Component),
		CertificatePinned: file.CertificatePinned,
		Handlers:          handlers,
		Logger:            log,
		Metrics:           ajax.NewMetricsCollectorWithRegistry(registry),
		OnFatal: func(rec *ajax.ErrorRecord) {
			log.WithError(rec.Err).Error("ajax: giving up")
		},
	}
	if file.CertificatePinned && len(file.Pins) > 0 {
		pc, err := transport.NewPinnedClient(file.Pins)
		if err != nil {
			fmt.Fprintf(stderr, "ajax: pins: %v\n", err)
			return 1
		}
		env.Pinned = transport.NewPinned(pc)
	}

	cfg := doc.Request
	cfg.Auto = false
	c := ajax.New(env, cfg)
	defer c.Close()

	var rh *retry.Handler
	if o.retries > 0 {
		rh = &retry.Handler{
			Target: c,
			Policy: retry.NewPolicy(retry.Times(o.retries).And(retry.DefaultDecider), retry.DefaultWaiter),
			Logger: log,
		}
		rh.Install(handlers)
		defer rh.Stop()
	}

	var attempts int32
	handlers.PushBack(ajax.Request, ajax.HandlerFunc(func(ajax.Event, *ajax.Notification) {
		atomic.AddInt32(&attempts, 1)
	}))

	done := make(chan struct{}, 1)
	notify := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}
	handlers.PushBack(ajax.Response, ajax.HandlerFunc(func(ajax.Event, *ajax.Notification) {
		notify()
	}))
	handlers.PushBack(ajax.Error, ajax.HandlerFunc(func(ajax.Event, *ajax.Notification) {
		if rh == nil || !rh.Pending() {
			notify()
		}
	}))

	if _, err = c.GenerateRequest(); err != nil {
		fmt.Fprintf(stderr, "ajax: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, o.wait)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		fmt.Fprintf(stderr, "ajax: %v\n", ctx.Err())
		return 1
	}

	code := report(c, o, stdout, stderr)
	if o.summary {
		if err = writeSummary(stderr, c, int(atomic.LoadInt32(&attempts))); err != nil {
			fmt.Fprintf(stderr, "ajax: summary: %v\n", err)
		}
	}
	if o.metrics {
		if err = writeMetrics(registry, stderr); err != nil {
			fmt.Fprintf(stderr, "ajax: metrics: %v\n", err)
		}
	}
	return code
}

func report(c *ajax.Controller, o *options, stdout, stderr io.Writer) int {
	if rec := c.LastError(); rec != nil {
		fmt.Fprintf(stderr, "ajax: %s: %v\n", rec.Kind, rec.Err)
		if rec.Response != nil {
			_ = printBody(stdout, rec.Response)
		}
		return 1
	}
	if o.css != "" || o.xpath != "" {
		texts, err := selectText(c.LastResponse(), o.css, o.xpath)
		if err != nil {
			fmt.Fprintf(stderr, "ajax: %v\n", err)
			return 1
		}
		for _, text := range texts {
			fmt.Fprintln(stdout, text)
		}
		return 0
	}
	if err := printBody(stdout, c.LastResponse()); err != nil {
		fmt.Fprintf(stderr, "ajax: %v\n", err)
		return 1
	}
	return 0
}

func printBody(w io.Writer, body interface{}) error {
	switch b := body.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, b)
		return err
	case []byte:
		_, err := w.Write(b)
		return err
	case *request.Blob:
		_, err := w.Write(b.Data)
		return err
	case *html.Node:
		_, err := fmt.Fprintln(w, htmlquery.OutputHTML(b, true))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		_, err = fmt.Fprintf(w, "%v\n", body)
		return err
	}
	return nil
}

func writeMetrics(g prometheus.Gatherer, w io.Writer) error {
	mfs, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
