package personas

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock fetcher for testing - counts calls
type mockFetcher struct {
	personas []domain.Persona
	err      error
	calls    atomic.Int32
	delay    time.Duration
}

func (m *mockFetcher) ListActivePersonas(ctx context.Context) ([]domain.Persona, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.personas, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestCache(fetcher Fetcher) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(fetcher, 5*time.Minute)
	cache.now = clock.Now
	return cache, clock
}

var testPersonas = []domain.Persona{
	{Id: 42, Name: "Ada"},
	{Id: 7, Name: "Grace Hopper"},
	{Id: 9, Name: "Linus"},
}

func TestCache_FetchesOnceWhileFresh(t *testing.T) {
	fetcher := &mockFetcher{personas: testPersonas}
	cache, clock := newTestCache(fetcher)

	for i := 0; i < 3; i++ {
		personas, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Len(t, personas, 3)
		clock.Advance(time.Minute)
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestCache_ExpiredTriggersExactlyOneRefetch(t *testing.T) {
	fetcher := &mockFetcher{personas: testPersonas}
	cache, clock := newTestCache(fetcher)

	_, err := cache.Search(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, int32(1), fetcher.calls.Load())

	clock.Advance(5*time.Minute + time.Second)

	// same query as before expiry
	_, err = cache.Search(context.Background(), "a")
	require.NoError(t, err)
	_, err = cache.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestCache_ConcurrentRefetchCollapses(t *testing.T) {
	fetcher := &mockFetcher{personas: testPersonas, delay: 50 * time.Millisecond}
	cache, _ := newTestCache(fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestCache_ErrorKeepsNothingAndRetries(t *testing.T) {
	fetcher := &mockFetcher{err: assert.AnError}
	cache, _ := newTestCache(fetcher)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, assert.AnError)

	fetcher.err = nil
	fetcher.personas = testPersonas
	personas, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, personas, 3)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestCache_EmptyListIsCached(t *testing.T) {
	fetcher := &mockFetcher{personas: nil}
	cache, _ := newTestCache(fetcher)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestCache_Invalidate(t *testing.T) {
	fetcher := &mockFetcher{personas: testPersonas}
	cache, _ := newTestCache(fetcher)

	cache.Get(context.Background())
	cache.Invalidate()
	cache.Get(context.Background())
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []domain.PersonaId
	}{
		{"empty query matches all", "", []domain.PersonaId{42, 7, 9}},
		{"case insensitive", "ADA", []domain.PersonaId{42}},
		{"substring", "op", []domain.PersonaId{7}},
		{"shared letter keeps order", "n", []domain.PersonaId{7, 9}},
		{"no match", "zz", []domain.PersonaId{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(testPersonas, tt.query)
			ids := make([]domain.PersonaId, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.Id)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}
