package fakestore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-story-client/sessions"
)

var _ sessions.Store = (*FakeStore)(nil)

// FakeStore keeps the two credential keys in memory. Errors set with SetError are returned by every
// call until cleared.
type FakeStore struct {
	values map[string]string
	err    error
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		values: make(map[string]string),
	}
}

func (fs *FakeStore) Read(_ context.Context) (*sessions.Credentials, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.err != nil {
		return nil, fs.err
	}
	token, hasToken := fs.values["token"]
	username, hasUsername := fs.values["username"]
	if !hasToken || !hasUsername {
		return nil, nil
	}
	return &sessions.Credentials{Token: token, Username: username}, nil
}

func (fs *FakeStore) Write(_ context.Context, creds sessions.Credentials) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.err != nil {
		return fs.err
	}
	fs.values["token"] = creds.Token
	fs.values["username"] = creds.Username
	return nil
}

func (fs *FakeStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.err != nil {
		return fs.err
	}
	fs.values = make(map[string]string)
	return nil
}

// SetKey stores a single raw key, for simulating half written credentials.
func (fs *FakeStore) SetKey(key, value string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values[key] = value
}

// Keys returns a copy of the raw stored keys.
func (fs *FakeStore) Keys() map[string]string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	out := make(map[string]string, len(fs.values))
	for k, v := range fs.values {
		out[k] = v
	}
	return out
}

func (fs *FakeStore) SetError(err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.err = err
}
