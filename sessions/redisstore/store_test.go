package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/sessions/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	server *miniredis.Miniredis
	store  *redisstore.Store
}

func setupTestFixture(t *testing.T, options ...redisstore.Option) *testFixture {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := redisstore.New(client, options...)
	require.NoError(t, err)
	return &testFixture{server: server, store: store}
}

func TestStore_WriteReadClear(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	creds, err := f.store.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)

	require.NoError(t, f.store.Write(ctx, sessions.Credentials{Token: "T1", Username: "alice"}))
	require.Equal(t, "T1", f.server.HGet("storyclient:credentials", "token"))
	require.Equal(t, "alice", f.server.HGet("storyclient:credentials", "username"))

	creds, err = f.store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, &sessions.Credentials{Token: "T1", Username: "alice"}, creds)

	require.NoError(t, f.store.Clear(ctx))
	require.False(t, f.server.Exists("storyclient:credentials"))
}

func TestStore_HalfWrittenIsAbsent(t *testing.T) {
	f := setupTestFixture(t, redisstore.WithPrefix("test:"))
	f.server.HSet("test:credentials", "token", "T1")

	creds, err := f.store.Read(context.Background())
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestStore_TTL(t *testing.T) {
	f := setupTestFixture(t, redisstore.WithTTL(time.Hour))
	require.NoError(t, f.store.Write(context.Background(), sessions.Credentials{Token: "T1", Username: "alice"}))
	require.Equal(t, time.Hour, f.server.TTL(f.store.Key()))

	f.server.FastForward(2 * time.Hour)
	creds, err := f.store.Read(context.Background())
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestStore_Unavailable(t *testing.T) {
	f := setupTestFixture(t)
	f.server.Close()

	_, err := f.store.Read(context.Background())
	require.Error(t, err)
	require.Error(t, f.store.Clear(context.Background()))
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := redisstore.New(nil)
	require.Error(t, err)
}
