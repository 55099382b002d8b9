package users_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/users"
	fakeuserrepo "github.com/jrsteele09/go-story-client/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Passw0rdX"))

	require.ErrorContains(t, users.ValidatePasswordStrength("Sh0rt"), "at least 8")
	require.ErrorContains(t, users.ValidatePasswordStrength("password1"), "uppercase")
	require.ErrorContains(t, users.ValidatePasswordStrength("PASSWORD1"), "lowercase")
	require.ErrorContains(t, users.ValidatePasswordStrength("Passwordx"), "number")
}

func TestValidateUsername(t *testing.T) {
	require.NoError(t, users.ValidateUsername("alice_01"))
	require.Error(t, users.ValidateUsername("al"))
	require.Error(t, users.ValidateUsername("alice smith"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("Passw0rdX")
	require.NoError(t, err)

	u := &users.User{Username: "alice", PasswordHash: hash}
	require.True(t, u.CheckPassword("Passw0rdX"))
	require.False(t, u.CheckPassword("wrong"))
}

func TestFavorites(t *testing.T) {
	u := &users.User{Username: "alice", Favorites: []string{"S1"}}

	require.Equal(t, []string{"S1", "S2"}, u.WithFavorite("S2"))
	require.Equal(t, []string{"S1"}, u.WithFavorite("S1"))
	require.Equal(t, []string{}, u.WithoutFavorite("S1"))
	require.Equal(t, []string{"S1"}, u.Favorites, "helpers must not modify the user")
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()
	require.NoError(t, repo.Upsert(&users.User{Username: "bob"}))
	require.NoError(t, repo.Upsert(&users.User{Username: "alice"}))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alice", list[0].Username)

	require.NoError(t, repo.SetFavorites("alice", []string{"S1"}))
	alice, err := repo.GetByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, []string{"S1"}, alice.Favorites)

	alice.Favorites[0] = "mutated"
	again, err := repo.GetByUsername("alice")
	require.NoError(t, err)
	require.Equal(t, []string{"S1"}, again.Favorites)

	require.NoError(t, repo.Delete("alice"))
	_, err = repo.GetByUsername("alice")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.ErrorIs(t, repo.SetFavorites("alice", nil), apperrors.ErrNotFound)
}
