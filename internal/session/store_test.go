package session

import (
	"context"
	"math/rand/v2"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"prompt-enhancer/internal/seed"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore() *Store {
	return NewStore(Options{DefaultPlatform: "flux", DefaultPreset: "custom", Rand: rand.New(rand.NewPCG(1, 1))})
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestStore()
	scope := Scope(10, 20)

	p := s.Snapshot(scope, "alice")
	assert.Equal(t, "flux", p.Platform)
	p.Controls["lens"] = "wide lens"

	assert.Empty(t, s.Snapshot(scope, "").Controls["lens"])
}

func TestUpdateAndClear(t *testing.T) {
	s := newTestStore()
	scope := Scope(1, 2)

	got := s.Update(scope, "bob", func(p *Prefs) {
		p.Platform = "pony"
		p.Controls["time_of_day"] = "dusk"
		p.Directives[0] = "style_only"
	})
	assert.Equal(t, "pony", got.Platform)
	assert.Equal(t, "dusk", s.Snapshot(scope, "").Controls["time_of_day"])

	s.Clear(scope)
	p := s.Snapshot(scope, "")
	assert.Equal(t, "flux", p.Platform)
	assert.Empty(t, p.Controls)
	assert.Empty(t, p.Directives[0])
}

func TestAdvanceContinuity(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	r, err := s.Advance(ctx, "cli", 100, seed.Increment)
	require.NoError(t, err)
	assert.Equal(t, int64(100), r.Seed)

	r, err = s.Advance(ctx, "cli", 100, seed.Increment)
	require.NoError(t, err)
	assert.Equal(t, int64(101), r.Seed)

	r, err = s.Advance(ctx, "cli", 100, seed.Decrement)
	require.NoError(t, err)
	assert.Equal(t, int64(100), r.Seed)

	r, err = s.Advance(ctx, "other", 7, seed.Increment)
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.Seed)

	_, err = s.Advance(ctx, "", 1, seed.Fixed)
	assert.ErrorIs(t, err, seed.ErrNoScope)
}

func TestAdvanceConcurrent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	_, err := s.Advance(ctx, "shared", 0, seed.Fixed)
	require.NoError(t, err)

	const workers = 32
	var wg sync.WaitGroup
	seen := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Advance(ctx, "shared", 0, seed.Increment)
			if err == nil {
				seen <- r.Seed
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		unique[v] = true
	}
	assert.Len(t, unique, workers)
	assert.True(t, unique[workers])
}

func TestPrune(t *testing.T) {
	s := newTestStore()
	s.Snapshot("a", "")
	s.Snapshot("b", "")

	s.mu.Lock()
	s.sessions["a"].LastActivity = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	assert.Equal(t, 1, s.Prune(time.Hour))
	s.mu.Lock()
	_, ok := s.sessions["b"]
	s.mu.Unlock()
	assert.True(t, ok)
}

func TestStateCodec(t *testing.T) {
	st, err := decodeState(encodeState(seed.Resolved{Seed: 42, Mode: seed.Decrement}))
	require.NoError(t, err)
	assert.Equal(t, seed.State{Last: 42, Mode: seed.Decrement, Set: true}, st)

	st, err = decodeState("")
	require.NoError(t, err)
	assert.False(t, st.Set)

	_, err = decodeState("abc|fixed")
	assert.Error(t, err)
}

func TestRedisSeeds(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedisSeeds(ctx, RedisOptions{Addr: addr})
	require.NoError(t, err)
	defer r.Close()

	scope := "test:" + time.Now().Format("150405.000000")
	first, err := r.Advance(ctx, scope, 5, seed.Increment)
	require.NoError(t, err)
	second, err := r.Advance(ctx, scope, 5, seed.Increment)
	require.NoError(t, err)
	assert.Equal(t, first.Seed+1, second.Seed)
}

func TestNewRedisSeedsRequiresAddr(t *testing.T) {
	_, err := NewRedisSeeds(context.Background(), RedisOptions{})
	assert.Error(t, err)
}
