// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWaiter(t *testing.T) {
	ceilings := []time.Duration{
		50 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1 * time.Second,
		1 * time.Second,
	}
	for i, ceil := range ceilings {
		wait := DefaultWaiter.Wait(&Attempt{Index: i})
		assert.GreaterOrEqual(t, wait, time.Duration(0))
		assert.Less(t, wait, ceil)
	}
	assert.Equal(t, 5*time.Second, DefaultWaiter.Wait(&Attempt{RetryAfter: 5 * time.Second}))
	assert.LessOrEqual(t, DefaultWaiter.Wait(&Attempt{RetryAfter: time.Hour}), time.Duration(50*time.Millisecond))
}

func TestNewFixedWaiter(t *testing.T) {
	w := NewFixedWaiter(3 * time.Second)
	assert.Equal(t, 3*time.Second, w.Wait(&Attempt{}))
	assert.Equal(t, 3*time.Second, w.Wait(&Attempt{Index: 10}))
}

func TestNewExpWaiter(t *testing.T) {
	base, max := 1*time.Millisecond, 1*time.Hour
	t.Run("bad args", func(t *testing.T) {
		assert.PanicsWithValue(t, "ajax/retry: base must be positive", func() { NewExpWaiter(-1, max, nil) })
		assert.PanicsWithValue(t, "ajax/retry: base must be positive", func() { NewExpWaiter(0, max, nil) })
		assert.PanicsWithValue(t, "ajax/retry: max must be at least base", func() { NewExpWaiter(2, 1, nil) })
		assert.PanicsWithValue(t, "ajax/retry: invalid jitter type", func() { NewExpWaiter(base, max, 1.5) })
		var nilRand *rand.Rand
		assert.PanicsWithValue(t, "ajax/retry: jitter may not be a typed nil", func() { NewExpWaiter(base, max, nilRand) })
	})
	t.Run("no jitter", func(t *testing.T) {
		w := NewExpWaiter(base, max, nil)
		for i := 0; i < 20; i++ {
			assert.Equal(t, base<<uint(i), w.Wait(&Attempt{Index: i}), fmt.Sprintf("index %d", i))
		}
		assert.Equal(t, base, w.Wait(&Attempt{Index: -1}))
		for _, i := range []int{22, 40, 62, 63, 1000, math.MaxInt32} {
			assert.Equal(t, max, w.Wait(&Attempt{Index: i}), fmt.Sprintf("index %d", i))
		}
	})
	t.Run("jitter kinds", func(t *testing.T) {
		jitters := map[string]interface{}{
			"time.Time":   time.Now(),
			"zero time":   time.Time{},
			"int":         7,
			"int64":       int64(7),
			"rand.Source": rand.NewSource(7),
			"*rand.Rand":  rand.New(rand.NewSource(7)),
		}
		for name, jitter := range jitters {
			t.Run(name, func(t *testing.T) {
				w := NewExpWaiter(base, max, jitter)
				for i := 0; i < 64; i++ {
					d := w.Wait(&Attempt{Index: i})
					assert.GreaterOrEqual(t, d, time.Duration(0))
					assert.Less(t, d, max)
				}
			})
		}
	})
	t.Run("same seed same waits", func(t *testing.T) {
		w1 := NewExpWaiter(base, max, 42)
		w2 := NewExpWaiter(base, max, 42)
		for i := 0; i < 10; i++ {
			assert.Equal(t, w1.Wait(&Attempt{Index: i}), w2.Wait(&Attempt{Index: i}))
		}
	})
	t.Run("concurrent", func(t *testing.T) {
		w := NewExpWaiter(base, max, 0)
		var wg sync.WaitGroup
		var mu sync.Mutex
		var total time.Duration
		for g := 0; g < 100; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 22; i++ {
					d := w.Wait(&Attempt{Index: i})
					assert.GreaterOrEqual(t, d, time.Duration(0))
					assert.Less(t, d, base<<uint(i))
					mu.Lock()
					total += d
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Greater(t, total, time.Duration(0))
	})
}

func TestRetryAfter(t *testing.T) {
	assert.PanicsWithValue(t, "ajax/retry: nil waiter", func() { RetryAfter(nil, time.Second) })
	w := RetryAfter(NewFixedWaiter(time.Millisecond), 10*time.Second)
	assert.Equal(t, time.Millisecond, w.Wait(&Attempt{}))
	assert.Equal(t, 10*time.Second, w.Wait(&Attempt{RetryAfter: 10 * time.Second}))
	assert.Equal(t, time.Millisecond, w.Wait(&Attempt{RetryAfter: 11 * time.Second}))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"   ", 0},
		{"3", 3 * time.Second},
		{" 120 ", 2 * time.Minute},
		{"0", 0},
		{"-5", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, testCase := range testCases {
		t.Run(fmt.Sprintf("%q", testCase.value), func(t *testing.T) {
			assert.Equal(t, testCase.want, parseRetryAfter(testCase.value, now))
		})
	}
}
