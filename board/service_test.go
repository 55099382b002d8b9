package board_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-story-client/board"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
	fakestoryrepo "github.com/jrsteele09/go-story-client/stories/repofake"
	"github.com/jrsteele09/go-story-client/token"
	fakeuserrepo "github.com/jrsteele09/go-story-client/users/repofake"
	"github.com/stretchr/testify/require"
)

const password = "Passw0rdX"

type testFixture struct {
	now     time.Time
	tokens  *token.Manager
	service *board.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	f := &testFixture{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	nowFunc := func() time.Time { return f.now }

	var err error
	f.tokens, err = token.New(token.NewHMACSigner("board-secret"), token.WithNowFunc(nowFunc))
	require.NoError(t, err)

	repos := board.Repos{
		Users:   fakeuserrepo.NewFakeUserRepo(),
		Stories: fakestoryrepo.NewFakeStoryRepo(),
	}
	f.service, err = board.NewService(repos, f.tokens, board.WithNowTime(nowFunc))
	require.NoError(t, err)
	return f
}

func (f *testFixture) advance() {
	f.now = f.now.Add(time.Minute)
}

func (f *testFixture) signup(t *testing.T, username string) *board.Account {
	account, err := f.service.Signup(username, password, username+" name")
	require.NoError(t, err)
	return account
}

func (f *testFixture) story(t *testing.T, username, title string) stories.Story {
	f.advance()
	story, err := f.service.AddStory(username, stories.Fields{Author: username, Title: title, URL: "https://example.com/" + title})
	require.NoError(t, err)
	return story
}

func TestNewService_Validation(t *testing.T) {
	tokens, err := token.New(token.NewHMACSigner("s"))
	require.NoError(t, err)

	_, err = board.NewService(board.Repos{Stories: fakestoryrepo.NewFakeStoryRepo()}, tokens)
	require.Error(t, err)
	_, err = board.NewService(board.Repos{Users: fakeuserrepo.NewFakeUserRepo()}, tokens)
	require.Error(t, err)
	_, err = board.NewService(board.Repos{Users: fakeuserrepo.NewFakeUserRepo(), Stories: fakestoryrepo.NewFakeStoryRepo()}, nil)
	require.Error(t, err)
}

func TestSignup(t *testing.T) {
	f := setupTestFixture(t)

	account := f.signup(t, "alice")
	require.NotEmpty(t, account.Token)
	require.Equal(t, "alice", account.User.Username)
	require.Equal(t, f.now, account.User.CreatedAt)
	require.Empty(t, account.Stories)
	require.Empty(t, account.Favorites)

	session := account.Session()
	require.Equal(t, account.Token, session.Token)
	require.Equal(t, "alice name", session.Name)

	_, err := f.service.Signup("alice", password, "Again")
	require.ErrorIs(t, err, board.ErrUsernameTaken)
	require.ErrorIs(t, err, apperrors.ErrAuth)
}

func TestSignup_RejectsBadInput(t *testing.T) {
	f := setupTestFixture(t)

	tests := []struct {
		name                     string
		username, password, full string
	}{
		{"short username", "al", password, "Al"},
		{"odd characters", "al ice", password, "Al"},
		{"weak password", "alice", "secret", "Alice"},
		{"no name", "alice", password, "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Signup(tt.username, tt.password, tt.full)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, "alice")

	_, err := f.service.Login("alice", "wrong")
	require.ErrorIs(t, err, apperrors.ErrAuth)
	_, err = f.service.Login("nobody", password)
	require.ErrorIs(t, err, apperrors.ErrAuth)

	account, err := f.service.Login("alice", password)
	require.NoError(t, err)

	user, claims, err := f.service.Authenticate(account.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice", claims.Subject)

	_, _, err = f.service.Authenticate("garbage")
	require.ErrorIs(t, err, apperrors.ErrAuth)
}

func TestAuthenticate_RejectsTokenOfEarlierAccount(t *testing.T) {
	f := setupTestFixture(t)
	old := f.signup(t, "alice")
	_, claims, err := f.service.Authenticate(old.Token)
	require.NoError(t, err)

	f.advance()
	second, err := f.service.Login("alice", password)
	require.NoError(t, err)
	_, err = f.service.DeleteAccount("alice", claims)
	require.NoError(t, err)

	_, _, err = f.service.Authenticate(old.Token)
	require.ErrorIs(t, err, apperrors.ErrAuth)

	f.advance()
	f.signup(t, "alice")
	_, _, err = f.service.Authenticate(second.Token)
	require.ErrorIs(t, err, apperrors.ErrAuth)
}

func TestUpdateProfile(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, "alice")

	account, err := f.service.UpdateProfile("alice", sessions.ProfileFields{Name: " Alice L. "})
	require.NoError(t, err)
	require.Equal(t, "Alice L.", account.User.Name)

	_, err = f.service.UpdateProfile("alice", sessions.ProfileFields{Name: "Alice", Password: "weak"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.service.UpdateProfile("alice", sessions.ProfileFields{Name: "Alice", Password: "N3wPassword"})
	require.NoError(t, err)
	_, err = f.service.Login("alice", password)
	require.ErrorIs(t, err, apperrors.ErrAuth)
	_, err = f.service.Login("alice", "N3wPassword")
	require.NoError(t, err)
}

func TestStories_OwnershipRules(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, "alice")
	f.signup(t, "bob")

	first := f.story(t, "alice", "first")
	second := f.story(t, "bob", "second")

	all, err := f.service.ListStories()
	require.NoError(t, err)
	require.Equal(t, []string{second.ID, first.ID}, all.IDs())

	_, err = f.service.UpdateStory("bob", first.ID, stories.Fields{Author: "bob", Title: "mine", URL: "https://x.io"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.service.DeleteStory("bob", first.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	f.advance()
	updated, err := f.service.UpdateStory("alice", first.ID, stories.Fields{Author: "Alice", Title: "renamed", URL: "https://x.io"})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.Equal(t, f.now, updated.UpdatedAt)
	require.Equal(t, first.CreatedAt, updated.CreatedAt)

	_, err = f.service.AddStory("alice", stories.Fields{Author: "Alice", Title: "bad", URL: "ftp://x.io"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestFavorites(t *testing.T) {
	f := setupTestFixture(t)
	f.signup(t, "alice")
	f.signup(t, "bob")
	first := f.story(t, "bob", "first")
	second := f.story(t, "bob", "second")

	_, err := f.service.AddFavorite("alice", "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.service.AddFavorite("alice", second.ID)
	require.NoError(t, err)
	account, err := f.service.AddFavorite("alice", first.ID)
	require.NoError(t, err)
	require.Equal(t, []string{second.ID, first.ID}, account.Favorites.IDs())

	account, err = f.service.RemoveFavorite("alice", second.ID)
	require.NoError(t, err)
	require.Equal(t, []string{first.ID}, account.Favorites.IDs())

	account, err = f.service.RemoveFavorite("alice", second.ID)
	require.NoError(t, err)
	require.Equal(t, []string{first.ID}, account.Favorites.IDs())

	_, err = f.service.DeleteStory("bob", first.ID)
	require.NoError(t, err)
	account, err = f.service.Account("alice")
	require.NoError(t, err)
	require.Empty(t, account.Favorites)
}

func TestDeleteAccount(t *testing.T) {
	f := setupTestFixture(t)
	alice := f.signup(t, "alice")
	f.signup(t, "bob")
	own := f.story(t, "alice", "own")
	f.story(t, "bob", "other")
	_, err := f.service.AddFavorite("bob", own.ID)
	require.NoError(t, err)

	_, claims, err := f.service.Authenticate(alice.Token)
	require.NoError(t, err)
	last, err := f.service.DeleteAccount("alice", claims)
	require.NoError(t, err)
	require.Equal(t, []string{own.ID}, last.Stories.IDs())

	all, err := f.service.ListStories()
	require.NoError(t, err)
	require.Len(t, all, 1)

	bob, err := f.service.Account("bob")
	require.NoError(t, err)
	require.Empty(t, bob.Favorites)

	_, _, err = f.service.Authenticate(alice.Token)
	require.ErrorIs(t, err, apperrors.ErrAuth)
	_, err = f.service.Login("alice", password)
	require.ErrorIs(t, err, apperrors.ErrAuth)
}
