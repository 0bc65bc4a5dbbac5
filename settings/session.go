// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package settings

import "sync"

// AuthTokenKey is the session key holding the bearer/session token.
const AuthTokenKey = "auth_token"

// A TokenSource supplies the current session token. An empty token
// means there is none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts an ordinary function to a TokenSource.
type TokenFunc func() string

// Token calls f().
func (f TokenFunc) Token() string {
	return f()
}

// Session is session-scoped key/value storage. It is safe for
// concurrent use. The zero value is an empty session.
type Session struct {
	mu sync.RWMutex
	m  map[string]string
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Set stores value under key.
func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string]string)
	}
	s.m[key] = value
}

// Delete removes key.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

// Token returns the value stored under AuthTokenKey.
func (s *Session) Token() string {
	v, _ := s.Get(AuthTokenKey)
	return v
}
