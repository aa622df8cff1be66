package ratelimit_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aidaptics/lead-relay/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLimiter(t *testing.T, maxKeys, maxRequests int, clock *fakeClock) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.New("test", time.Minute, maxKeys, maxRequests, ratelimit.WithClock(clock.Now))
	require.NoError(t, err)
	return l
}

func TestLimiter_Admit(t *testing.T) {
	t.Run("success - admits exactly N then rejects", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		l := newLimiter(t, 10, 3, clock)

		assert.True(t, l.Admit("ip1"))
		assert.True(t, l.Admit("ip1"))
		assert.True(t, l.Admit("ip1"))
		assert.False(t, l.Admit("ip1"))

		e, ok := l.Peek("ip1")
		require.True(t, ok)
		assert.Equal(t, 3, e.Count)
	})

	t.Run("success - window rollover admits again", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		l := newLimiter(t, 10, 3, clock)

		for i := 0; i < 3; i++ {
			require.True(t, l.Admit("ip1"))
		}
		require.False(t, l.Admit("ip1"))

		clock.Advance(time.Minute)
		assert.True(t, l.Admit("ip1"))
		e, _ := l.Peek("ip1")
		assert.Equal(t, 1, e.Count)
	})

	t.Run("success - keys are counted independently", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		l := newLimiter(t, 10, 1, clock)

		assert.True(t, l.Admit("ip1"))
		assert.True(t, l.Admit("ip2"))
		assert.False(t, l.Admit("ip1"))
		assert.False(t, l.Admit("ip2"))
	})

	t.Run("eviction - least recently used key is dropped when full", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		l := newLimiter(t, 2, 5, clock)

		l.Admit("a")
		l.Admit("b")
		l.Admit("a") // a becomes most recent
		l.Admit("c") // evicts b

		assert.Equal(t, 2, l.Len())
		_, ok := l.Peek("b")
		assert.False(t, ok)
		_, ok = l.Peek("a")
		assert.True(t, ok)
	})

	t.Run("prune - removes expired entries", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		l := newLimiter(t, 10, 5, clock)

		l.Admit("a")
		clock.Advance(30 * time.Second)
		l.Admit("b")
		clock.Advance(45 * time.Second)

		assert.Equal(t, 1, l.Prune())
		assert.Equal(t, 1, l.Len())
	})

	t.Run("concurrency - no lost updates", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		l := newLimiter(t, 10, 100, clock)

		var wg sync.WaitGroup
		var mu sync.Mutex
		admitted := 0
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.Admit("shared") {
					mu.Lock()
					admitted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 100, admitted)
	})

	t.Run("error - invalid configuration", func(t *testing.T) {
		_, err := ratelimit.New("x", 0, 10, 10)
		require.Error(t, err)
		_, err = ratelimit.New("x", time.Second, 0, 10)
		require.Error(t, err)
		_, err = ratelimit.New("x", time.Second, 10, 0)
		require.Error(t, err)
	})
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded for first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "", "198.51.100.2"},
		{"remote addr header", map[string]string{"Remote-Addr": "192.0.2.10"}, "", "192.0.2.10"},
		{"connection address", nil, "192.0.2.55:41234", "192.0.2.55"},
		{"ipv6", map[string]string{"X-Real-IP": "2001:db8::1"}, "", "2001:db8::1"},
		{"garbage", map[string]string{"X-Forwarded-For": "not-an-ip"}, "", ratelimit.Unknown},
		{"nothing", nil, "", ratelimit.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tc.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tc.want, ratelimit.ClientIP(h, tc.remoteAddr))
		})
	}
}

func TestMask(t *testing.T) {
	assert.Equal(t, "203.0.11...", ratelimit.Mask("203.0.113.7"))
	assert.Equal(t, "unknown...", ratelimit.Mask("unknown"))
}

func ExampleLimiter_Admit() {
	l, _ := ratelimit.New("example", time.Minute, 100, 2)
	for i := 0; i < 3; i++ {
		fmt.Println(l.Admit("203.0.113.7"))
	}
	// Output:
	// true
	// true
	// false
}
