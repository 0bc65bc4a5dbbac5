// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrPinMismatch is returned when no certificate presented by the server
// matches a configured pin.
var ErrPinMismatch = errors.New("ajax/transport: no certificate matches a pinned key")

// PinnedClient is a Native transport that sends requests with net/http
// and accepts a TLS connection only when some certificate in the chain
// presented by the server has a pinned public key.
//
// A pin is the base64 encoding of the SHA-256 digest of a certificate's
// DER encoded SubjectPublicKeyInfo.
type PinnedClient struct {
	client *http.Client
	pins   map[string]bool
}

// A PinnedOption configures a PinnedClient.
type PinnedOption func(*pinnedConfig)

type pinnedConfig struct {
	roots *x509.CertPool
	base  *http.Transport
}

// WithRootCAs sets the root certificates used to verify server chains
// before pins are checked. By default the host's root set is used.
func WithRootCAs(pool *x509.CertPool) PinnedOption {
	return func(c *pinnedConfig) {
		c.roots = pool
	}
}

// WithBaseTransport sets the transport whose settings are cloned for the
// client. Its TLS configuration is replaced.
func WithBaseTransport(t *http.Transport) PinnedOption {
	return func(c *pinnedConfig) {
		c.base = t
	}
}

// NewPinnedClient returns a PinnedClient accepting the given pins. Each
// pin may carry a "sha256/" prefix.
func NewPinnedClient(pins []string, opts ...PinnedOption) (*PinnedClient, error) {
	if len(pins) == 0 {
		return nil, errors.New("ajax/transport: no pins")
	}
	set := make(map[string]bool, len(pins))
	for _, p := range pins {
		p = strings.TrimPrefix(strings.TrimSpace(p), "sha256/")
		if b, err := base64.StdEncoding.DecodeString(p); err != nil || len(b) != sha256.Size {
			return nil, errors.New("ajax/transport: invalid pin " + p)
		}
		set[p] = true
	}

	var cfg pinnedConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	base := cfg.base
	if base == nil {
		base = http.DefaultTransport.(*http.Transport)
	}
	t := base.Clone()
	pc := &PinnedClient{pins: set}
	t.TLSClientConfig = &tls.Config{
		RootCAs:               cfg.roots,
		MinVersion:            tls.VersionTLS12,
		VerifyPeerCertificate: pc.verify,
	}
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	pc.client = &http.Client{Transport: t, Jar: jar}
	return pc, nil
}

// Pin returns the pin of cert.
func Pin(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (pc *PinnedClient) verify(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			continue
		}
		if pc.pins[Pin(cert)] {
			return nil
		}
	}
	return ErrPinMismatch
}

// SendRequest performs r against url. Data is serialized as JSON.
//
// A failure to connect reports StatusNoNetwork, and a failed handshake,
// including a pin mismatch, reports StatusTLSFailure. A response with a
// non-2XX status is a failure carrying the response body in Error.
func (pc *PinnedClient) SendRequest(ctx context.Context, url string, r *NativeRequest) (*NativeResponse, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	var body io.Reader
	if r.Data != nil {
		b, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		status := StatusNoNetwork
		if tlsFailure(err) {
			status = StatusTLSFailure
		}
		return &NativeResponse{Status: status, URL: url, Error: err.Error()}, &NativeError{Status: status, Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NativeResponse{Status: StatusNoNetwork, URL: url, Error: err.Error()}, &NativeError{Status: StatusNoNetwork, Message: err.Error()}
	}

	nr := &NativeResponse{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		URL:        resp.Request.URL.String(),
		Headers:    make(map[string]string, len(resp.Header)),
	}
	for k := range resp.Header {
		nr.Headers[strings.ToLower(k)] = resp.Header.Get(k)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		nr.Error = string(b)
		return nr, &NativeError{Status: resp.StatusCode}
	}
	nr.Data = string(b)
	return nr, nil
}

func tlsFailure(err error) bool {
	if errors.Is(err, ErrPinMismatch) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	var verification *tls.CertificateVerificationError
	var record tls.RecordHeaderError
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid) ||
		errors.As(err, &verification) ||
		errors.As(err, &record)
}
