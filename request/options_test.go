// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/gogama/ajax/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		env     Env
		asserts func(t *testing.T, o *Options, err error)
	}{
		{
			name: "defaults",
			cfg:  Config{URL: "http://example.com/a"},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, "http://example.com/a", o.URL)
				assert.Equal(t, "GET", o.Method)
				assert.Equal(t, HandleAsJSON, o.HandleAs)
				assert.True(t, o.Async)
				assert.Equal(t, time.Duration(0), o.Timeout)
				assert.Empty(t, o.Header)
			},
		},
		{
			name: "params",
			cfg:  Config{URL: "http://example.com/a?x=1", Params: ParamsOf("q", "a b")},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, "http://example.com/a?x=1&q=a%20b", o.URL)
			},
		},
		{
			name: "resolve url",
			cfg:  Config{URL: "api://items", Params: ParamsOf("p", 1)},
			env: Env{ResolveURL: func(u string) string {
				return strings.Replace(u, "api://", "https://api.example.com/", 1)
			}},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, "https://api.example.com/items?p=1", o.URL)
			},
		},
		{
			name: "header precedence",
			cfg: Config{
				URL:     "http://example.com",
				Body:    "a=1",
				Headers: map[string]interface{}{"X-Count": 3, "Authorization": "mine"},
			},
			env: Env{
				Token: "session",
				Defaults: settings.Defaults{
					Headers: map[string]interface{}{"X-Count": 1, "X-Default": "yes"},
				},
			},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, map[string]string{
					"content-type":  FormContentType,
					"authorization": "mine",
					"x-count":       "3",
					"x-default":     "yes",
				}, o.Header)
				assert.Equal(t, FormContentType, o.ContentType())
				assert.Equal(t, "yes", o.HTTPHeader().Get("X-Default"))
			},
		},
		{
			name: "session token",
			cfg:  Config{URL: "http://example.com", ContentType: "application/json"},
			env:  Env{Token: "t0k"},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, "t0k", o.Header["authorization"])
				assert.Equal(t, "application/json", o.ContentType())
			},
		},
		{
			name: "timeout",
			cfg:  Config{URL: "http://example.com", Timeout: time.Second},
			env:  Env{Defaults: settings.Defaults{Timeout: time.Minute}},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, time.Second, o.Timeout)
			},
		},
		{
			name: "default timeout",
			cfg:  Config{URL: "http://example.com"},
			env:  Env{Defaults: settings.Defaults{Timeout: time.Minute}},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, time.Minute, o.Timeout)
			},
		},
		{
			name: "passthrough",
			cfg: Config{
				URL: "http://example.com", Method: "PATCH", Sync: true, HandleAs: HandleAsText,
				JSONPrefix: ")]}'", WithCredentials: true, RejectWithRequest: true, Body: 42,
			},
			asserts: func(t *testing.T, o *Options, err error) {
				require.NoError(t, err)
				assert.Equal(t, "PATCH", o.Method)
				assert.False(t, o.Async)
				assert.Equal(t, HandleAsText, o.HandleAs)
				assert.Equal(t, ")]}'", o.JSONPrefix)
				assert.True(t, o.WithCredentials)
				assert.True(t, o.RejectWithRequest)
				assert.Equal(t, 42, o.Body)
			},
		},
		{
			name: "invalid method",
			cfg:  Config{URL: "http://example.com", Method: "GE T"},
			asserts: func(t *testing.T, _ *Options, err error) {
				assert.EqualError(t, err, `ajax/request: invalid method "GE T"`)
			},
		},
		{
			name: "invalid handling mode",
			cfg:  Config{URL: "http://example.com", HandleAs: "yaml"},
			asserts: func(t *testing.T, _ *Options, err error) {
				assert.EqualError(t, err, `ajax/request: invalid handling mode "yaml"`)
			},
		},
		{
			name: "invalid url",
			cfg:  Config{URL: "http://[::1"},
			asserts: func(t *testing.T, _ *Options, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "invalid header",
			cfg:  Config{URL: "http://example.com", Headers: map[string]interface{}{"Bad Name": "x"}},
			asserts: func(t *testing.T, _ *Options, err error) {
				assert.EqualError(t, err, `ajax/request: invalid header name "bad name"`)
			},
		},
		{
			name: "invalid header value",
			cfg:  Config{URL: "http://example.com", Headers: map[string]interface{}{"X": "a\nb"}},
			asserts: func(t *testing.T, _ *Options, err error) {
				assert.EqualError(t, err, `ajax/request: invalid value for header "x"`)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			o, err := Build(testCase.cfg, testCase.env)
			testCase.asserts(t, o, err)
		})
	}
}

func TestBuild_Idempotent(t *testing.T) {
	cfg := Config{URL: "http://example.com", Params: ParamsOf("a", 1), Headers: map[string]interface{}{"X": 1}}
	o1, err := Build(cfg, Env{Token: "t"})
	require.NoError(t, err)
	o2, err := Build(cfg, Env{Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, o1, o2)
}

func TestResolveTimeout(t *testing.T) {
	assert.Equal(t, time.Second, ResolveTimeout(time.Second, time.Minute))
	assert.Equal(t, time.Minute, ResolveTimeout(0, time.Minute))
	assert.Equal(t, time.Minute, ResolveTimeout(-1, time.Minute))
	assert.Equal(t, time.Duration(0), ResolveTimeout(0, -time.Minute))
}

func TestConfig_RequestChanged(t *testing.T) {
	base := Config{
		URL:     "http://example.com",
		Params:  ParamsOf("a", 1),
		Headers: map[string]interface{}{"X": 1},
		Body:    map[string]interface{}{"ids": []interface{}{1, 2}},
	}
	testCases := []struct {
		name    string
		f       func(c *Config)
		changed bool
	}{
		{"identical", func(c *Config) {}, false},
		{"verbose", func(c *Config) { c.Verbose = true }, false},
		{"bubbles", func(c *Config) { c.Bubbles = true }, false},
		{"debounce", func(c *Config) { c.DebounceDuration = time.Second }, false},
		{"reject", func(c *Config) { c.RejectWithRequest = true }, false},
		{"url", func(c *Config) { c.URL += "/x" }, true},
		{"method", func(c *Config) { c.Method = "POST" }, true},
		{"params", func(c *Config) { c.Params.Put("b", 2) }, true},
		{"headers", func(c *Config) { c.Headers["X"] = 2 }, true},
		{"body", func(c *Config) { c.Body = "x" }, true},
		{"body mutated", func(c *Config) { c.Body.(map[string]interface{})["ids"] = nil }, true},
		{"body nested", func(c *Config) { c.Body.(map[string]interface{})["ids"].([]interface{})[0] = 9 }, true},
		{"content type", func(c *Config) { c.ContentType = "text/plain" }, true},
		{"auto", func(c *Config) { c.Auto = true }, true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			next := base.Clone()
			testCase.f(&next)
			assert.Equal(t, testCase.changed, base.RequestChanged(next))
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	c := Config{Params: ParamsOf("a", 1), Headers: map[string]interface{}{"X": 1}}
	d := c.Clone()
	d.Params.Put("b", 2)
	d.Headers["Y"] = 2
	assert.Equal(t, 1, c.Params.Len())
	assert.Len(t, c.Headers, 1)

	t.Run("body", func(t *testing.T) {
		type point struct{ X, Y int }
		testCases := []struct {
			name   string
			body   interface{}
			mutate func(body interface{})
		}{
			{"map", map[string]interface{}{"a": map[string]interface{}{"b": 1}}, func(body interface{}) {
				body.(map[string]interface{})["a"].(map[string]interface{})["b"] = 2
			}},
			{"slice", []interface{}{[]int{1}}, func(body interface{}) {
				body.([]interface{})[0].([]int)[0] = 2
			}},
			{"bytes", []byte("abc"), func(body interface{}) {
				body.([]byte)[0] = 'x'
			}},
			{"structs", []point{{1, 2}}, func(body interface{}) {
				body.([]point)[0].X = 5
			}},
		}
		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				c := Config{Body: testCase.body}
				want := Config{Body: testCase.body}.Clone()
				d := c.Clone()
				testCase.mutate(d.Body)
				assert.Equal(t, want.Body, c.Body)
				assert.True(t, c.RequestChanged(d))
			})
		}
	})

	t.Run("scalar and nil bodies", func(t *testing.T) {
		assert.Nil(t, Config{}.Clone().Body)
		assert.Equal(t, "s", Config{Body: "s"}.Clone().Body)
		var m map[string]interface{}
		assert.Nil(t, Config{Body: m}.Clone().Body.(map[string]interface{}))
	})

	t.Run("reader shared", func(t *testing.T) {
		r := strings.NewReader("x")
		assert.Same(t, r, Config{Body: r}.Clone().Body)
	})
}

func TestConfig_BufferBody(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		rc := &closeRecorder{Reader: strings.NewReader(`{"a":1}`)}
		c := Config{Body: rc}
		require.NoError(t, c.BufferBody())
		assert.Equal(t, []byte(`{"a":1}`), c.Body)
		assert.True(t, rc.closed)

		o1, err := Build(c, Env{})
		require.NoError(t, err)
		o2, err := Build(c, Env{})
		require.NoError(t, err)
		assert.Equal(t, o1.Body, o2.Body)
	})
	t.Run("not a reader", func(t *testing.T) {
		c := Config{Body: map[string]interface{}{"a": 1}}
		require.NoError(t, c.BufferBody())
		assert.Equal(t, map[string]interface{}{"a": 1}, c.Body)
	})
	t.Run("read error", func(t *testing.T) {
		c := Config{Body: iotest.ErrReader(errors.New("broken"))}
		err := c.BufferBody()
		assert.EqualError(t, err, "ajax/request: reading body: broken")
		assert.Nil(t, c.Body)
	})
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (r *closeRecorder) Close() error {
	r.closed = true
	return nil
}
