// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const document = `
certificate_pinned: true
pins:
  - " sha256/AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA= "
  - BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBA=
components:
  ajax:
    timeout: 10s
    headers:
      X-Requested-With: XMLHttpRequest
      X-Version: 2
  search:
    timeout: 1m
log:
  level: debug
  format: json
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(document))
	require.NoError(t, err)
	assert.True(t, f.CertificatePinned)
	assert.Equal(t, []string{
		"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		"BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBA=",
	}, f.Pins)
	assert.Equal(t, "debug", f.Log.Level)
	assert.Equal(t, "json", f.Log.Format)

	d := f.Defaults(DefaultComponent)
	assert.Equal(t, 10*time.Second, d.Timeout)
	assert.Equal(t, map[string]string{
		"X-Requested-With": "XMLHttpRequest",
		"X-Version":        "2",
	}, d.HeaderStrings())
	assert.Equal(t, d, f.Defaults(""))
	assert.Equal(t, time.Minute, f.Defaults("search").Timeout)
	assert.Nil(t, f.Defaults("search").HeaderStrings())
	assert.Equal(t, Defaults{}, f.Defaults("missing"))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("pins: {"))
	assert.Error(t, err)
}

func TestFile_DefaultsNil(t *testing.T) {
	var f *File
	assert.Equal(t, Defaults{}, f.Defaults("ajax"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Run("ok", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte(document), 0o600))
		f, err := Load(path)
		require.NoError(t, err)
		assert.True(t, f.CertificatePinned)
	})
	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("components: ["), 0o600))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ajax/settings: "+path)
	})
}
