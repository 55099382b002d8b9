package favorites_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-story-client/favorites"
	"github.com/jrsteele09/go-story-client/gateway"
	fakegateway "github.com/jrsteele09/go-story-client/gateway/gatewayfake"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/sessions"
	fakestore "github.com/jrsteele09/go-story-client/sessions/repofakes"
	"github.com/jrsteele09/go-story-client/stories"
	"github.com/jrsteele09/go-story-client/views"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	gateway   *fakegateway.FakeGateway
	sessions  *sessions.Controller
	view      *views.View
	favorites *favorites.Controller
	storyID   string
}

func setupTestFixture(t *testing.T) *testFixture {
	gw, err := fakegateway.NewFakeGateway()
	require.NoError(t, err)
	require.NoError(t, gw.SeedUser("alice", "secret", "Alice"))
	require.NoError(t, gw.SeedUser("bob", "secret", "Bob"))
	story, err := gw.SeedStory("bob", stories.Fields{Author: "Bob", Title: "Gophers", URL: "https://go.dev/blog"})
	require.NoError(t, err)

	controller, err := sessions.NewController(gw, fakestore.NewFakeStore())
	require.NoError(t, err)
	view, err := views.New(gw, controller)
	require.NoError(t, err)
	favs, err := favorites.NewController(gw, controller, view)
	require.NoError(t, err)

	return &testFixture{gateway: gw, sessions: controller, view: view, favorites: favs, storyID: story.ID}
}

func (f *testFixture) login(t *testing.T) {
	_, err := f.sessions.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
}

func (f *testFixture) sessionHasFavorite(t *testing.T) bool {
	session, ok := f.sessions.Current()
	require.True(t, ok)
	return session.HasFavorite(f.storyID)
}

func (f *testFixture) serverFavorites(t *testing.T) stories.Collection {
	account, err := f.gateway.Service().Account("alice")
	require.NoError(t, err)
	return account.Favorites
}

func TestToggle_RequiresLogin(t *testing.T) {
	f := setupTestFixture(t)

	star, err := f.favorites.Toggle(context.Background(), f.storyID)
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.Equal(t, favorites.Far, star)
	require.Zero(t, f.gateway.Calls(gateway.OpAddFavorite))
}

func TestToggle_AddThenRemove(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	ctx := context.Background()

	star, err := f.favorites.Toggle(ctx, f.storyID)
	require.NoError(t, err)
	require.Equal(t, favorites.Fas, star)
	require.True(t, f.sessionHasFavorite(t))
	require.False(t, f.favorites.Pending(f.storyID))
	require.Equal(t, []string{f.storyID}, f.view.Current().Favorites.IDs())

	star, err = f.favorites.Toggle(ctx, f.storyID)
	require.NoError(t, err)
	require.Equal(t, favorites.Far, star)
	require.False(t, f.sessionHasFavorite(t))
	require.Empty(t, f.view.Current().Favorites)
}

func TestToggle_OptimisticWhileInFlight(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	gate := f.gateway.Block(gateway.OpAddFavorite)

	done := make(chan error)
	go func() {
		_, err := f.favorites.Toggle(context.Background(), f.storyID)
		done <- err
	}()
	<-gate.Entered()

	require.Equal(t, favorites.Fas, f.favorites.Star(f.storyID))
	require.True(t, f.favorites.Pending(f.storyID))
	require.False(t, f.sessionHasFavorite(t))

	gate.Release()
	require.NoError(t, <-done)
	require.Equal(t, favorites.Fas, f.favorites.Star(f.storyID))
	require.True(t, f.sessionHasFavorite(t))
}

func TestToggle_LatestRequestWins(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	gate := f.gateway.Block(gateway.OpAddFavorite)

	first := make(chan error)
	go func() {
		_, err := f.favorites.Toggle(context.Background(), f.storyID)
		first <- err
	}()
	<-gate.Entered()

	// the second toggle starts from the optimistic star and unfavorites
	type result struct {
		star favorites.Star
		err  error
	}
	second := make(chan result)
	go func() {
		star, err := f.favorites.Toggle(context.Background(), f.storyID)
		second <- result{star, err}
	}()
	require.Eventually(t, func() bool {
		return f.favorites.Star(f.storyID) == favorites.Far
	}, time.Second, time.Millisecond)

	// the first result arrives late and is dropped
	gate.Release()
	require.NoError(t, <-first)
	unfavorited := <-second
	require.NoError(t, unfavorited.err)
	require.Equal(t, favorites.Far, unfavorited.star)
	require.Equal(t, favorites.Far, f.favorites.Star(f.storyID))
	require.False(t, f.sessionHasFavorite(t))
	require.False(t, f.favorites.Pending(f.storyID))
	require.Empty(t, f.serverFavorites(t))
}

// heldMarker holds the first AddFavorite back before it reaches the service.
type heldMarker struct {
	favorites.Marker

	entered chan struct{}
	release chan struct{}
	held    atomic.Bool
	removes atomic.Int32
}

func (m *heldMarker) AddFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error) {
	if m.held.CompareAndSwap(false, true) {
		close(m.entered)
		<-m.release
	}
	return m.Marker.AddFavorite(ctx, token, username, storyID)
}

func (m *heldMarker) RemoveFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error) {
	m.removes.Add(1)
	return m.Marker.RemoveFavorite(ctx, token, username, storyID)
}

func TestToggle_RequestsReachServiceInOrder(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	marker := &heldMarker{Marker: f.gateway, entered: make(chan struct{}), release: make(chan struct{})}
	favs, err := favorites.NewController(marker, f.sessions, f.view)
	require.NoError(t, err)

	first := make(chan error)
	go func() {
		_, err := favs.Toggle(context.Background(), f.storyID)
		first <- err
	}()
	<-marker.entered

	second := make(chan error)
	go func() {
		_, err := favs.Toggle(context.Background(), f.storyID)
		second <- err
	}()
	require.Eventually(t, func() bool {
		return favs.Star(f.storyID) == favorites.Far
	}, time.Second, time.Millisecond)
	require.Zero(t, marker.removes.Load())

	close(marker.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)
	require.Equal(t, int32(1), marker.removes.Load())

	require.Equal(t, favorites.Far, favs.Star(f.storyID))
	require.False(t, f.sessionHasFavorite(t))
	require.Empty(t, f.serverFavorites(t))
}

// failingReplace rejects every session replacement.
type failingReplace struct {
	*sessions.Controller
	err error
}

func (s *failingReplace) Replace(ctx context.Context, session *sessions.Session) error {
	if s.err != nil {
		return s.err
	}
	return s.Controller.Replace(ctx, session)
}

func TestToggle_ReplaceFailureKeepsStarUntilReconcile(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	replace := &failingReplace{Controller: f.sessions, err: apperrors.ErrStoreUnavailable}
	favs, err := favorites.NewController(f.gateway, replace, f.view)
	require.NoError(t, err)

	star, err := favs.Toggle(context.Background(), f.storyID)
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	require.Equal(t, favorites.Fas, star)
	require.True(t, favs.Pending(f.storyID))
	require.False(t, f.sessionHasFavorite(t))
	require.Len(t, f.serverFavorites(t), 1)

	replace.err = nil
	require.NoError(t, favs.Reconcile(context.Background()))
	require.False(t, favs.Pending(f.storyID))
	require.Equal(t, favorites.Fas, favs.Star(f.storyID))
	require.True(t, f.sessionHasFavorite(t))
}

func TestToggle_FailureReconciles(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.gateway.SetError(gateway.OpAddFavorite, gateway.ErrTransport)

	star, err := f.favorites.Toggle(context.Background(), f.storyID)
	require.ErrorIs(t, err, gateway.ErrTransport)
	require.Equal(t, favorites.Far, star)
	require.False(t, f.favorites.Pending(f.storyID))
	require.Equal(t, 1, f.gateway.Calls(gateway.OpRestoreSession))
}

func TestToggle_FailureWithoutReconcileKeepsStarUntilRefresh(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.gateway.SetError(gateway.OpAddFavorite, gateway.ErrTransport)
	f.gateway.SetError(gateway.OpRestoreSession, gateway.ErrTransport)

	star, err := f.favorites.Toggle(context.Background(), f.storyID)
	require.ErrorIs(t, err, gateway.ErrTransport)
	require.Equal(t, favorites.Fas, star)
	require.True(t, f.favorites.Pending(f.storyID))

	require.Error(t, f.favorites.Reconcile(context.Background()))
	require.Equal(t, favorites.Fas, f.favorites.Star(f.storyID))

	f.gateway.SetError(gateway.OpRestoreSession, nil)
	require.NoError(t, f.favorites.Reconcile(context.Background()))
	require.Equal(t, favorites.Far, f.favorites.Star(f.storyID))
	require.False(t, f.favorites.Pending(f.storyID))
}

func TestToggle_NotFound(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)

	_, err := f.favorites.Toggle(context.Background(), "missing")
	require.ErrorIs(t, err, gateway.ErrNotFound)
	require.Equal(t, favorites.Far, f.favorites.Star("missing"))
}

func TestReset(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t)
	f.gateway.SetError(gateway.OpAddFavorite, gateway.ErrTransport)
	f.gateway.SetError(gateway.OpRestoreSession, gateway.ErrTransport)
	_, err := f.favorites.Toggle(context.Background(), f.storyID)
	require.Error(t, err)
	require.True(t, f.favorites.Pending(f.storyID))

	f.favorites.Reset()
	require.False(t, f.favorites.Pending(f.storyID))
	require.Equal(t, favorites.Far, f.favorites.Star(f.storyID))
}

func TestStar_Opposite(t *testing.T) {
	require.Equal(t, favorites.Fas, favorites.Far.Opposite())
	require.Equal(t, favorites.Far, favorites.Fas.Opposite())
}
