package fakeuserrepo

import (
	"sort"
	"sync"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/internal/utils"
	"github.com/jrsteele09/go-story-client/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users map[string]*users.User
	lock  sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users: make(map[string]*users.User),
	}
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored := *user
	stored.Favorites = utils.CloneSlice(user.Favorites)
	ur.users[user.Username] = &stored
	return nil
}

func (ur *FakeUserRepo) Delete(username string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[username]; !ok {
		return apperrors.ErrNotFound
	}
	delete(ur.users, username)
	return nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	user := *u
	user.Favorites = utils.CloneSlice(u.Favorites)
	return &user, nil
}

func (ur *FakeUserRepo) List() ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, u := range ur.users {
		user := *u
		user.Favorites = utils.CloneSlice(u.Favorites)
		userList = append(userList, &user)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].Username < userList[j].Username
	})
	return userList, nil
}

func (ur *FakeUserRepo) SetFavorites(username string, storyIDs []string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[username]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Favorites = utils.CloneSlice(storyIDs)
	return nil
}
