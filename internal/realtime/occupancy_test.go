package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newOccupancy(t *testing.T) (*RedisOccupancy, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisOccupancy(client, ""), mr
}

func TestOccupancySetAndGet(t *testing.T) {
	occ, mr := newOccupancy(t)
	ctx := context.Background()

	require.NoError(t, occ.SetActive(ctx, "note-1", 3))

	count, err := occ.GetActive(ctx, "note-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)

	// Counts carry a TTL so a crashed process leaves nothing stale.
	ttl := mr.TTL("presence:note-1")
	require.Greater(t, ttl.Seconds(), float64(0))
}

func TestOccupancyClear(t *testing.T) {
	occ, _ := newOccupancy(t)
	ctx := context.Background()

	require.NoError(t, occ.SetActive(ctx, "note-1", 2))
	require.NoError(t, occ.Clear(ctx, "note-1"))

	count, err := occ.GetActive(ctx, "note-1")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestOccupancyMissingKeyIsZero(t *testing.T) {
	occ, _ := newOccupancy(t)

	count, err := occ.GetActive(context.Background(), "note-never-seen")
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestHubMirrorsOccupancy(t *testing.T) {
	occ, _ := newOccupancy(t)
	h := NewHub(occ)
	go h.Run()
	defer h.Close()

	h.Join("note-1", "alice", "Alice", newFakeConn("c-alice"))
	h.Join("note-1", "bob", "Bob", newFakeConn("c-bob"))

	require.Eventually(t, func() bool {
		n, err := occ.GetActive(context.Background(), "note-1")
		return err == nil && n == 2
	}, time.Second, 10*time.Millisecond)

	h.Leave("note-1", "alice")
	h.Leave("note-1", "bob")

	require.Eventually(t, func() bool {
		n, err := occ.GetActive(context.Background(), "note-1")
		return err == nil && n == 0
	}, time.Second, 10*time.Millisecond)
}
