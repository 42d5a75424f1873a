package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, opt Options) (*Cache, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	opt.Clock = clk
	c, err := New(opt)
	require.NoError(t, err)
	return c, clk
}

func TestRemember_HitsWithinWindow(t *testing.T) {
	c, clk := newTestCache(t, Options{TTL: time.Hour})
	calls := 0
	load := func() ([]int, error) {
		calls++
		return []int{calls}, nil
	}

	v, err := Remember(c, "list_issues", Key("list_issues"), load)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, v)

	clk.Advance(59 * time.Minute)
	v, err = Remember(c, "list_issues", Key("list_issues"), load)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, v, "served from cache")

	clk.Advance(time.Minute)
	v, err = Remember(c, "list_issues", Key("list_issues"), load)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, v, "expired at exactly one hour")
	assert.Equal(t, 2, c.loadCount())
}

func TestRemember_KeysAreIndependent(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	a, _ := Remember(c, "get_issue", Key("get_issue", "3"), func() (string, error) { return "three", nil })
	b, _ := Remember(c, "get_issue", Key("get_issue", "4"), func() (string, error) { return "four", nil })
	assert.Equal(t, "three", a)
	assert.Equal(t, "four", b)
	assert.Equal(t, 2, c.Len())
}

func TestRemember_RouteTTL(t *testing.T) {
	c, clk := newTestCache(t, Options{TTL: time.Hour, Routes: map[string]time.Duration{"list_articles": 10 * time.Minute}})
	assert.Equal(t, 10*time.Minute, c.TTL("list_articles"))
	assert.Equal(t, time.Hour, c.TTL("list_issues"))

	n := 0
	load := func() (int, error) { n++; return n, nil }
	_, _ = Remember(c, "list_articles", "k", load)
	clk.Advance(11 * time.Minute)
	v, _ := Remember(c, "list_articles", "k", load)
	assert.Equal(t, 2, v)
}

func TestRemember_ErrorsNotCached(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	boom := errors.New("boom")

	_, err := Remember(c, "op", "k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := Remember(c, "op", "k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestRemember_SkipReturnsValueWithoutCaching(t *testing.T) {
	c, _ := newTestCache(t, Options{})

	v, err := Remember(c, "op", "k", func() ([]string, error) { return []string{}, ErrSkip })
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.Equal(t, 0, c.Len())
}

func TestRemember_ConcurrentMissesShareLoad(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Remember(c, "op", "shared", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 42, nil
			})
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 42, r)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "op", Key("op"))
	assert.NotEqual(t, Key("op", "a", "b"), Key("op", "ab"))
}
