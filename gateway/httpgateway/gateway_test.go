package httpgateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-story-client/board"
	"github.com/jrsteele09/go-story-client/client"
	"github.com/jrsteele09/go-story-client/favorites"
	"github.com/jrsteele09/go-story-client/gateway"
	"github.com/jrsteele09/go-story-client/gateway/httpgateway"
	"github.com/jrsteele09/go-story-client/internal/config"
	"github.com/jrsteele09/go-story-client/server"
	"github.com/jrsteele09/go-story-client/sessions"
	fakestore "github.com/jrsteele09/go-story-client/sessions/repofakes"
	"github.com/jrsteele09/go-story-client/stories"
	fakestoryrepo "github.com/jrsteele09/go-story-client/stories/repofake"
	fakeuserrepo "github.com/jrsteele09/go-story-client/users/repofake"
	"github.com/stretchr/testify/require"
)

const password = "Passw0rdX"

// countingTransport counts the requests that reach the network.
type countingTransport struct {
	requests atomic.Int32
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.requests.Add(1)
	return http.DefaultTransport.RoundTrip(req)
}

type testFixture struct {
	ctx       context.Context
	server    *httptest.Server
	transport *countingTransport
	gateway   *httpgateway.Gateway
}

func setupTestFixture(t *testing.T) *testFixture {
	repos := board.Repos{
		Users:   fakeuserrepo.NewFakeUserRepo(),
		Stories: fakestoryrepo.NewFakeStoryRepo(),
	}
	srv, err := server.New(config.New(), repos)
	require.NoError(t, err)

	f := &testFixture{
		ctx:       context.Background(),
		server:    httptest.NewServer(srv),
		transport: &countingTransport{},
	}
	t.Cleanup(f.server.Close)

	f.gateway, err = httpgateway.New(f.server.URL, httpgateway.WithTransport(f.transport), httpgateway.WithTimeout(5*time.Second))
	require.NoError(t, err)
	return f
}

func (f *testFixture) signup(t *testing.T, username string) *sessions.Session {
	session, err := f.gateway.Signup(f.ctx, username, password, username+" name")
	require.NoError(t, err)
	return session
}

func (f *testFixture) addStory(t *testing.T, token, title string) stories.Story {
	story, err := f.gateway.AddStory(f.ctx, token, stories.Fields{Author: "A", Title: title, URL: "https://example.com/" + title})
	require.NoError(t, err)
	return story
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://example.com", "http://"} {
		_, err := httpgateway.New(raw)
		require.Error(t, err, raw)
	}
}

func TestSignupLoginRestore(t *testing.T) {
	f := setupTestFixture(t)

	session := f.signup(t, "alice")
	require.NotEmpty(t, session.Token)
	require.Equal(t, "alice", session.Username)
	require.Equal(t, "alice name", session.Name)
	require.NotNil(t, session.OwnStories)
	require.NotNil(t, session.Favorites)

	_, err := f.gateway.Signup(f.ctx, "alice", password, "again")
	require.ErrorIs(t, err, gateway.ErrAuth)
	var gwErr *gateway.Error
	require.ErrorAs(t, err, &gwErr)
	require.Equal(t, http.StatusConflict, gwErr.Status)
	require.Equal(t, gateway.OpSignup, gwErr.Op)

	_, err = f.gateway.Login(f.ctx, "alice", "wrong")
	require.ErrorIs(t, err, gateway.ErrAuth)

	loggedIn, err := f.gateway.Login(f.ctx, "alice", password)
	require.NoError(t, err)

	restored, err := f.gateway.RestoreSession(f.ctx, loggedIn.Token, "alice")
	require.NoError(t, err)
	require.Equal(t, loggedIn.Token, restored.Token)
	require.Equal(t, "alice", restored.Username)
}

func TestRestoreSession_RejectedCredentials(t *testing.T) {
	f := setupTestFixture(t)
	session := f.signup(t, "alice")
	f.signup(t, "bob")

	tests := []struct {
		name            string
		token, username string
	}{
		{"garbage token", "garbage", "alice"},
		{"other user", session.Token, "bob"},
		{"unknown user", session.Token, "nobody"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restored, err := f.gateway.RestoreSession(f.ctx, tt.token, tt.username)
			require.NoError(t, err)
			require.Nil(t, restored)
		})
	}
}

func TestValidationError(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.gateway.Signup(f.ctx, "al", password, "Al")
	require.ErrorIs(t, err, gateway.ErrValidation)

	session := f.signup(t, "alice")
	_, err = f.gateway.AddStory(f.ctx, session.Token, stories.Fields{Title: "t"})
	require.ErrorIs(t, err, gateway.ErrValidation)
}

func TestMissingTokenMakesNoRequest(t *testing.T) {
	f := setupTestFixture(t)
	fields := stories.Fields{Author: "a", Title: "t", URL: "https://x.io"}

	_, err := f.gateway.AddStory(f.ctx, "", fields)
	require.ErrorIs(t, err, gateway.ErrMissingToken)
	_, err = f.gateway.UpdateStory(f.ctx, "", "id", fields)
	require.ErrorIs(t, err, gateway.ErrMissingToken)
	require.ErrorIs(t, f.gateway.DeleteStory(f.ctx, "", "id"), gateway.ErrMissingToken)
	_, err = f.gateway.AddFavorite(f.ctx, "", "alice", "id")
	require.ErrorIs(t, err, gateway.ErrMissingToken)
	_, err = f.gateway.RemoveFavorite(f.ctx, "", "alice", "id")
	require.ErrorIs(t, err, gateway.ErrMissingToken)
	_, err = f.gateway.UpdateProfile(f.ctx, "", "alice", sessions.ProfileFields{Name: "A"})
	require.ErrorIs(t, err, gateway.ErrMissingToken)
	_, err = f.gateway.DeleteAccount(f.ctx, "", "alice")
	require.ErrorIs(t, err, gateway.ErrMissingToken)

	require.Zero(t, f.transport.requests.Load())
}

func TestStoriesAndFavorites(t *testing.T) {
	f := setupTestFixture(t)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")

	all, err := f.gateway.FetchAllStories(f.ctx)
	require.NoError(t, err)
	require.NotNil(t, all)
	require.Empty(t, all)

	story := f.addStory(t, alice.Token, "first")
	require.Equal(t, "alice", story.Username)

	_, err = f.gateway.UpdateStory(f.ctx, bob.Token, story.ID, stories.Fields{Author: "B", Title: "x", URL: "https://x.io"})
	require.ErrorIs(t, err, gateway.ErrNotFound)

	updated, err := f.gateway.UpdateStory(f.ctx, alice.Token, story.ID, stories.Fields{Author: "A", Title: "renamed", URL: "https://x.io"})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)

	session, err := f.gateway.AddFavorite(f.ctx, bob.Token, "bob", story.ID)
	require.NoError(t, err)
	require.Equal(t, bob.Token, session.Token)
	require.True(t, session.HasFavorite(story.ID))

	_, err = f.gateway.AddFavorite(f.ctx, bob.Token, "alice", story.ID)
	require.ErrorIs(t, err, gateway.ErrAuth)
	_, err = f.gateway.AddFavorite(f.ctx, bob.Token, "bob", "missing")
	require.ErrorIs(t, err, gateway.ErrNotFound)

	session, err = f.gateway.RemoveFavorite(f.ctx, bob.Token, "bob", story.ID)
	require.NoError(t, err)
	require.False(t, session.HasFavorite(story.ID))

	require.NoError(t, f.gateway.DeleteStory(f.ctx, alice.Token, story.ID))
	all, err = f.gateway.FetchAllStories(f.ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestProfileAndDeleteAccount(t *testing.T) {
	f := setupTestFixture(t)
	alice := f.signup(t, "alice")

	session, err := f.gateway.UpdateProfile(f.ctx, alice.Token, "alice", sessions.ProfileFields{Name: "Alice L."})
	require.NoError(t, err)
	require.Equal(t, "Alice L.", session.Name)
	require.Equal(t, alice.Token, session.Token)

	_, err = f.gateway.DeleteAccount(f.ctx, alice.Token, "alice")
	require.NoError(t, err)

	restored, err := f.gateway.RestoreSession(f.ctx, alice.Token, "alice")
	require.NoError(t, err)
	require.Nil(t, restored)
}

func TestTransportFailures(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		f := setupTestFixture(t)
		f.server.Close()

		_, err := f.gateway.FetchAllStories(f.ctx)
		require.ErrorIs(t, err, gateway.ErrTransport)
		_, err = f.gateway.RestoreSession(f.ctx, "T1", "alice")
		require.ErrorIs(t, err, gateway.ErrTransport)
	})

	t.Run("server error", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer broken.Close()
		gw, err := httpgateway.New(broken.URL)
		require.NoError(t, err)

		_, err = gw.FetchAllStories(context.Background())
		require.ErrorIs(t, err, gateway.ErrTransport)
		var gwErr *gateway.Error
		require.ErrorAs(t, err, &gwErr)
		require.Equal(t, http.StatusInternalServerError, gwErr.Status)
	})

	t.Run("malformed response", func(t *testing.T) {
		broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{nope"))
		}))
		defer broken.Close()
		gw, err := httpgateway.New(broken.URL)
		require.NoError(t, err)

		_, err = gw.FetchAllStories(context.Background())
		require.ErrorIs(t, err, gateway.ErrTransport)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := setupTestFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.gateway.FetchAllStories(ctx)
		require.ErrorIs(t, err, gateway.ErrTransport)
	})
}

func TestClientOverHTTP(t *testing.T) {
	f := setupTestFixture(t)
	alice := f.signup(t, "alice")
	story := f.addStory(t, alice.Token, "shared")

	store := fakestore.NewFakeStore()
	c, err := client.New(f.gateway, store)
	require.NoError(t, err)

	_, err = c.Start(f.ctx)
	require.NoError(t, err)
	snap, err := c.Login(f.ctx, "alice", password)
	require.NoError(t, err)
	require.Equal(t, []string{story.ID}, snap.Views.Own.IDs())

	star, err := c.ToggleFavorite(f.ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, favorites.Fas, star)
	require.Equal(t, []string{story.ID}, c.Snapshot().Views.Favorites.IDs())

	restarted, err := client.New(f.gateway, store)
	require.NoError(t, err)
	snap, err = restarted.Start(f.ctx)
	require.NoError(t, err)
	require.True(t, snap.Authenticated())
	require.Equal(t, favorites.Fas, snap.Star(story.ID))

	_, err = restarted.Logout(f.ctx)
	require.NoError(t, err)
	require.Empty(t, store.Keys())
}
