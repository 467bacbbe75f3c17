package linking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *stubConn) Authorized(ctx context.Context) (bool, error)  { return false, nil }
func (c *stubConn) SendCode(ctx context.Context, phone string) (string, error) {
	return "hash", nil
}
func (c *stubConn) SignIn(ctx context.Context, phone, code, codeHash string) error { return nil }
func (c *stubConn) SignInWithPassword(ctx context.Context, password string) error  { return nil }
func (c *stubConn) SessionBlob(ctx context.Context) (string, error)                { return "blob", nil }

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestAttemptStore_PutReplacesAndClosesPrevious(t *testing.T) {
	store := NewAttemptStore(time.Minute)

	first := &stubConn{}
	second := &stubConn{}

	store.Put("user-1", &Attempt{Conn: first, Phone: "+15550001"})
	store.Put("user-1", &Attempt{Conn: second, Phone: "+15550002"})

	assert.True(t, first.isClosed(), "replaced connection should be closed")
	assert.False(t, second.isClosed())
	assert.Equal(t, 1, store.Len())

	got := store.Get("user-1")
	require.NotNil(t, got)
	assert.Equal(t, "+15550002", got.Phone)
}

func TestAttemptStore_GetMissingReturnsNil(t *testing.T) {
	store := NewAttemptStore(time.Minute)
	assert.Nil(t, store.Get("nobody"))
}

func TestAttemptStore_RemoveDoesNotClose(t *testing.T) {
	store := NewAttemptStore(time.Minute)
	conn := &stubConn{}

	store.Put("user-1", &Attempt{Conn: conn})
	store.Remove("user-1")

	assert.False(t, conn.isClosed(), "Remove hands ownership to the caller")
	assert.Equal(t, 0, store.Len())
}

func TestAttemptStore_AbandonCloses(t *testing.T) {
	store := NewAttemptStore(time.Minute)
	conn := &stubConn{}

	store.Put("user-1", &Attempt{Conn: conn})
	store.Abandon("user-1")

	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, store.Len())

	// Abandoning again is a no-op.
	store.Abandon("user-1")
}

func TestAttemptStore_SweepEvictsStale(t *testing.T) {
	store := NewAttemptStore(10 * time.Millisecond)

	stale := &stubConn{}
	fresh := &stubConn{}

	store.Put("stale", &Attempt{Conn: stale})
	time.Sleep(25 * time.Millisecond)
	store.Put("fresh", &Attempt{Conn: fresh})

	evicted := store.Sweep()

	assert.Equal(t, 1, evicted)
	assert.True(t, stale.isClosed())
	assert.False(t, fresh.isClosed())
	assert.Nil(t, store.Get("stale"))
	assert.NotNil(t, store.Get("fresh"))
}

func TestAttemptStore_GetRefreshesIdleTimer(t *testing.T) {
	store := NewAttemptStore(30 * time.Millisecond)
	conn := &stubConn{}

	store.Put("user-1", &Attempt{Conn: conn})
	time.Sleep(20 * time.Millisecond)
	require.NotNil(t, store.Get("user-1"))
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 0, store.Sweep(), "recently touched attempt should survive")
}

func TestAttemptStore_StopReleasesRemaining(t *testing.T) {
	store := NewAttemptStore(time.Minute)
	conn := &stubConn{}

	store.Put("user-1", &Attempt{Conn: conn})
	store.Stop()

	assert.True(t, conn.isClosed())
	assert.Equal(t, 0, store.Len())
}

func TestAttemptStore_ConcurrentAccess(t *testing.T) {
	store := NewAttemptStore(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n%5)
			store.Put(userID, &Attempt{Conn: &stubConn{}})
			store.Get(userID)
			store.Sweep()
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 5)
}
