// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package settings loads the process-wide configuration shared by all
// controllers: per-component default headers and timeouts, the
// certificate pinning switch and its pins, and logging.
//
// Settings are read once, before any request is generated, and injected
// into each controller at construction time. Nothing in this package
// mutates a File after Load returns.
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gogama/ajax/diag"
	"gopkg.in/yaml.v3"
)

// DefaultComponent is the component name used when none is given.
const DefaultComponent = "ajax"

// Defaults are the default request settings for one component.
type Defaults struct {
	// Headers are merged over the computed content type and session
	// token, and under the controller's own headers. Values are
	// formatted with fmt.Sprint.
	Headers map[string]interface{} `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Timeout applies when the controller has no timeout of its own.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// HeaderStrings returns the default headers with stringified values.
func (d Defaults) HeaderStrings() map[string]string {
	if len(d.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// A File is the root of a settings document.
//
//	certificate_pinned: true
//	pins:
//	  - "sha256/AAAA..."
//	components:
//	  ajax:
//	    timeout: 10s
//	    headers:
//	      X-Requested-With: XMLHttpRequest
//	log:
//	  level: debug
type File struct {
	// CertificatePinned turns on the pinned transport for every
	// controller whose host supports it.
	CertificatePinned bool `yaml:"certificate_pinned"`

	// Pins are base64 SHA-256 digests of trusted SubjectPublicKeyInfo
	// structures, optionally prefixed with "sha256/".
	Pins []string `yaml:"pins,omitempty"`

	// Components maps component names to their defaults.
	Components map[string]Defaults `yaml:"components,omitempty"`

	// Log configures the diagnostic logger.
	Log diag.LogConfig `yaml:"log"`
}

// Defaults returns the defaults registered for component, or the zero
// Defaults if there are none.
func (f *File) Defaults(component string) Defaults {
	if f == nil {
		return Defaults{}
	}
	if component == "" {
		component = DefaultComponent
	}
	return f.Components[component]
}

// Load reads and parses the settings file at path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("ajax/settings: %s: %w", path, err)
	}
	return f, nil
}

// Parse parses a settings document.
func Parse(b []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	for i, pin := range f.Pins {
		f.Pins[i] = strings.TrimPrefix(strings.TrimSpace(pin), "sha256/")
	}
	return &f, nil
}
