package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/sessions/sqlitestore"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*sqlitestore.Store, string) {
	dir := t.TempDir()
	store, err := sqlitestore.Open(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dir
}

func TestStore_ReadEmpty(t *testing.T) {
	store, _ := openStore(t)

	creds, err := store.Read(context.Background())
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestStore_WriteReadClear(t *testing.T) {
	ctx := context.Background()
	store, _ := openStore(t)

	require.NoError(t, store.Write(ctx, sessions.Credentials{Token: "T1", Username: "alice"}))
	require.NoError(t, store.Write(ctx, sessions.Credentials{Token: "T2", Username: "alice"}))

	creds, err := store.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, &sessions.Credentials{Token: "T2", Username: "alice"}, creds)

	require.NoError(t, store.Clear(ctx))
	creds, err = store.Read(ctx)
	require.NoError(t, err)
	require.Nil(t, creds)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, dir := openStore(t)
	require.NoError(t, store.Write(ctx, sessions.Credentials{Token: "T1", Username: "bob"}))
	require.NoError(t, store.Close())

	reopened, err := sqlitestore.OpenPath(ctx, filepath.Join(dir, sqlitestore.FileName))
	require.NoError(t, err)
	defer reopened.Close()

	creds, err := reopened.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob", creds.Username)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := sqlitestore.Open(context.Background(), "")
	require.Error(t, err)
}
