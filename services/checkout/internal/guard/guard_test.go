package guard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SecondAcquireRejected(t *testing.T) {
	g := NewMemory()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)

	_, err = g.Acquire(ctx, "u-1")
	assert.ErrorIs(t, err, ErrHeld)

	// a different user is unaffected
	otherRelease, err := g.Acquire(ctx, "u-2")
	require.NoError(t, err)
	otherRelease()

	release()

	release2, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)
	release2()
}

func TestMemory_ReleaseIsIdempotent(t *testing.T) {
	g := NewMemory()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)

	release()
	release()

	_, err = g.Acquire(ctx, "u-1")
	assert.NoError(t, err)
}

func TestMemory_ConcurrentAcquires(t *testing.T) {
	g := NewMemory()
	ctx := context.Background()

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire(ctx, "u-1")
			if err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
				release()
			}
		}()
	}
	wg.Wait()

	// every successful acquire released, so at least one must have won
	assert.Greater(t, granted, 0)

	// after the dust settles the guard must be free
	release, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)
	release()
}

func newRedisGuard(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestRedis_SecondAcquireRejected(t *testing.T) {
	g, _ := newRedisGuard(t)
	ctx := context.Background()

	release, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)

	_, err = g.Acquire(ctx, "u-1")
	assert.ErrorIs(t, err, ErrHeld)

	release()

	release2, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)
	release2()
}

func TestRedis_ExpiredLeaseNotReleasedByOldHolder(t *testing.T) {
	g, mr := newRedisGuard(t)
	ctx := context.Background()

	staleRelease, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)

	// lease expires while the first holder is still working
	mr.FastForward(defaultHoldTTL + time.Second)

	newRelease, err := g.Acquire(ctx, "u-1")
	require.NoError(t, err)

	// the stale holder's release must not free the new holder's lease
	staleRelease()
	_, err = g.Acquire(ctx, "u-1")
	assert.ErrorIs(t, err, ErrHeld)

	newRelease()
}
