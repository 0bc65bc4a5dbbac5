// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package settings

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession(t *testing.T) {
	var s Session
	assert.Equal(t, "", s.Token())
	_, ok := s.Get("k")
	assert.False(t, ok)
	s.Delete("k")

	s.Set("k", "v")
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	s.Set(AuthTokenKey, "Bearer abc")
	assert.Equal(t, "Bearer abc", s.Token())
	s.Delete(AuthTokenKey)
	assert.Equal(t, "", s.Token())
}

func TestSession_Concurrent(t *testing.T) {
	var s Session
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := fmt.Sprintf("k%d", i)
			s.Set(k, k)
			v, _ := s.Get(k)
			assert.Equal(t, k, v)
			_ = s.Token()
		}(i)
	}
	wg.Wait()
}

func TestTokenFunc(t *testing.T) {
	var src TokenSource = TokenFunc(func() string { return "t" })
	assert.Equal(t, "t", src.Token())
}
