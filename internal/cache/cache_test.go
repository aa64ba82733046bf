package cache

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestStoreGetSet(t *testing.T) {
	clock := newClock()
	s := New[string](time.Minute, 10).WithClock(clock.Now)

	_, found := s.Get("a")
	assert.False(t, found)

	s.Set("a", "alpha")
	v, found := s.Get("a")
	require.True(t, found)
	assert.Equal(t, "alpha", v)
}

func TestStoreExpiresByAge(t *testing.T) {
	clock := newClock()
	s := New[int](time.Minute, 10).WithClock(clock.Now)

	s.Set("a", 1)
	clock.Advance(30 * time.Second)
	s.Set("b", 2)

	clock.Advance(31 * time.Second)
	_, found := s.Get("a")
	assert.False(t, found, "a is older than the TTL")
	_, found = s.Get("b")
	assert.True(t, found)
	assert.Equal(t, 1, s.Len())
}

func TestStoreEvictsOldestBeyondCapacity(t *testing.T) {
	clock := newClock()
	s := New[int](time.Hour, 3).WithClock(clock.Now)

	for i := 0; i < 5; i++ {
		s.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Second)
	}

	assert.Equal(t, 3, s.Len())
	for _, gone := range []string{"k0", "k1"} {
		_, found := s.Get(gone)
		assert.False(t, found, gone)
	}
	for _, kept := range []string{"k2", "k3", "k4"} {
		_, found := s.Get(kept)
		assert.True(t, found, kept)
	}
}

func TestStoreRewriteRefreshesTimestamp(t *testing.T) {
	clock := newClock()
	s := New[int](time.Hour, 2).WithClock(clock.Now)

	s.Set("a", 1)
	clock.Advance(time.Second)
	s.Set("b", 2)
	clock.Advance(time.Second)
	s.Set("a", 3)
	clock.Advance(time.Second)
	s.Set("c", 4)

	_, found := s.Get("b")
	assert.False(t, found)
	v, found := s.Get("a")
	require.True(t, found)
	assert.Equal(t, 3, v)
}

func TestStoreKeepsNewestOnTimestampTie(t *testing.T) {
	clock := newClock()
	s := New[int](time.Hour, 1).WithClock(clock.Now)

	s.Set("a", 1)
	s.Set("b", 2)

	_, found := s.Get("b")
	assert.True(t, found)
	assert.Equal(t, 1, s.Len())
}

func TestSlot(t *testing.T) {
	clock := newClock()
	s := NewSlot[string](10 * time.Second).WithClock(clock.Now)

	_, found := s.Get()
	assert.False(t, found)

	s.Set("snapshot-1")
	clock.Advance(9 * time.Second)
	v, found := s.Get()
	require.True(t, found)
	assert.Equal(t, "snapshot-1", v)

	clock.Advance(time.Second)
	_, found = s.Get()
	assert.False(t, found)
}
