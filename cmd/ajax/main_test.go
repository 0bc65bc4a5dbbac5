// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/items":
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"page":%q,"agent":%q}`, r.URL.Query().Get("page"), r.Header.Get("X-Agent"))
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(pageHTML))
		case "/flaky":
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`"recovered"`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer server.Close()

	t.Run("success", func(t *testing.T) {
		path := writeDocument(t, `
components:
  ajax:
    headers:
      X-Agent: cli
log:
  quiet: true
request:
  url: `+server.URL+`/items
  params:
    page: 2
`)
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-config", path}, &stdout, &stderr)
		assert.Equal(t, 0, code, stderr.String())
		assert.JSONEq(t, `{"page":"2","agent":"cli"}`, stdout.String())
	})
	t.Run("status error", func(t *testing.T) {
		path := writeDocument(t, `
log:
  quiet: true
request:
  url: `+server.URL+`/missing
`)
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-config", path}, &stdout, &stderr)
		assert.Equal(t, 1, code)
		assert.JSONEq(t, `{"error":"not found"}`, stdout.String())
		assert.Contains(t, stderr.String(), "404")
	})
	t.Run("retries", func(t *testing.T) {
		path := writeDocument(t, `
log:
  quiet: true
request:
  url: `+server.URL+`/flaky
`)
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-config", path, "-retries", "3", "-metrics", "-summary"}, &stdout, &stderr)
		assert.Equal(t, 0, code, stderr.String())
		assert.Equal(t, "recovered\n", stdout.String())
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
		assert.Contains(t, stderr.String(), "Attempts")
		assert.Contains(t, stderr.String(), "/flaky")
		assert.Contains(t, stderr.String(), `ajax_requests_total{component="ajax",method="GET",outcome="failed"} 2`)
		assert.Contains(t, stderr.String(), `ajax_requests_total{component="ajax",method="GET",outcome="succeeded"} 1`)
	})
	t.Run("document selectors", func(t *testing.T) {
		path := writeDocument(t, `
log:
  quiet: true
request:
  url: `+server.URL+`/page
  handle_as: document
`)
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-config", path, "-css", "li.item", "-xpath", "//h1"}, &stdout, &stderr)
		assert.Equal(t, 0, code, stderr.String())
		assert.Equal(t, "one\ntwo\nTitle\n", stdout.String())
	})
	t.Run("selectors need a document", func(t *testing.T) {
		path := writeDocument(t, `
log:
  quiet: true
request:
  url: `+server.URL+`/items
`)
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), []string{"-config", path, "-css", "li"}, &stdout, &stderr)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr.String(), "document response")
	})
	t.Run("missing config", func(t *testing.T) {
		t.Setenv("AJAX_CONFIG", "")
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
		assert.Contains(t, stderr.String(), "missing -config")
	})
	t.Run("bad config", func(t *testing.T) {
		path := writeDocument(t, "request: [")
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 1, run(context.Background(), []string{"-config", path}, &stdout, &stderr))
		assert.Contains(t, stderr.String(), "config load")
	})
	t.Run("bad pins", func(t *testing.T) {
		path := writeDocument(t, `
certificate_pinned: true
pins: ["not-a-pin"]
log:
  quiet: true
request:
  url: `+server.URL+`/items
`)
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 1, run(context.Background(), []string{"-config", path}, &stdout, &stderr))
		assert.Contains(t, stderr.String(), "pins")
	})
}

const pageHTML = `<html><head><title>t</title></head><body>
<h1>Title</h1>
<ul><li class="item">one</li><li class="item"> two </li><li>skip</li></ul>
</body></html>`

func writeDocument(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
