// Package fakegateway is an in-memory story service for tests. It runs the real service rules over
// fake repositories and lets tests inject failures and hold back results.
package fakegateway

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-story-client/board"
	"github.com/jrsteele09/go-story-client/gateway"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
	fakestoryrepo "github.com/jrsteele09/go-story-client/stories/repofake"
	"github.com/jrsteele09/go-story-client/token"
	"github.com/jrsteele09/go-story-client/users"
	fakeuserrepo "github.com/jrsteele09/go-story-client/users/repofake"
	"github.com/pkg/errors"
)

var _ gateway.Gateway = (*FakeGateway)(nil)

// Gate holds back the results of an operation until released. The operation itself has already been
// applied by the time a call waits on the gate.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered receives once for every call that reaches the gate.
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

type FakeGateway struct {
	service *board.Service
	users   users.UserRepo
	tokens  *sequentialTokens

	lock  sync.RWMutex
	errs  map[string]error
	gates map[string]*Gate
	calls map[string]int
	clock time.Time
}

func NewFakeGateway() (*FakeGateway, error) {
	f := &FakeGateway{
		errs:  make(map[string]error),
		gates: make(map[string]*Gate),
		calls: make(map[string]int),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.users = fakeuserrepo.NewFakeUserRepo()
	f.tokens = newSequentialTokens(f.tick)
	repos := board.Repos{
		Users:   f.users,
		Stories: fakestoryrepo.NewFakeStoryRepo(),
	}
	var err error
	f.service, err = board.NewService(repos, f.tokens, board.WithNowTime(f.tick))
	if err != nil {
		return nil, errors.Wrap(err, "[NewFakeGateway] board.NewService")
	}
	return f, nil
}

// tick advances the service clock a second per call so story order is deterministic.
func (f *FakeGateway) tick() time.Time {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// SetError makes every call of op fail with err until cleared with a nil err. Failing calls are not
// applied.
func (f *FakeGateway) SetError(op string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Block installs a gate on op. Calls made after Block wait on it until it is released or their
// context ends.
func (f *FakeGateway) Block(op string) *Gate {
	f.lock.Lock()
	defer f.lock.Unlock()
	gate := &Gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
	f.gates[op] = gate
	return gate
}

// Unblock removes the gate on op without releasing calls already waiting on it.
func (f *FakeGateway) Unblock(op string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.gates, op)
}

// Calls returns how many times op was invoked.
func (f *FakeGateway) Calls(op string) int {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.calls[op]
}

// Service exposes the underlying service for seeding and assertions.
func (f *FakeGateway) Service() *board.Service {
	return f.service
}

// SeedUser stores an account directly, skipping failure injection and the password rules. No token is
// issued.
func (f *FakeGateway) SeedUser(username, password, name string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return err
	}
	now := f.tick()
	return f.users.Upsert(&users.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Favorites:    []string{},
	})
}

// ExpireToken makes the service reject tok from now on.
func (f *FakeGateway) ExpireToken(tok string) {
	f.tokens.Expire(tok)
}

// SeedStory submits a story for username directly.
func (f *FakeGateway) SeedStory(username string, fields stories.Fields) (stories.Story, error) {
	return f.service.AddStory(username, fields)
}

func (f *FakeGateway) Login(ctx context.Context, username, password string) (*sessions.Session, error) {
	if err := f.enter(gateway.OpLogin); err != nil {
		return nil, err
	}
	account, err := f.service.Login(username, password)
	return f.session(ctx, gateway.OpLogin, account, err)
}

func (f *FakeGateway) Signup(ctx context.Context, username, password, name string) (*sessions.Session, error) {
	if err := f.enter(gateway.OpSignup); err != nil {
		return nil, err
	}
	account, err := f.service.Signup(username, password, name)
	return f.session(ctx, gateway.OpSignup, account, err)
}

func (f *FakeGateway) RestoreSession(ctx context.Context, tok, username string) (*sessions.Session, error) {
	if err := f.enter(gateway.OpRestoreSession); err != nil {
		return nil, err
	}
	if tok == "" || username == "" {
		return nil, nil
	}
	user, _, err := f.service.Authenticate(tok)
	if err != nil || user.Username != username {
		return nil, f.wait(ctx, gateway.OpRestoreSession)
	}
	account, err := f.service.Account(username)
	if err != nil {
		return nil, gateway.Classify(gateway.OpRestoreSession, err)
	}
	account.Token = tok
	return f.session(ctx, gateway.OpRestoreSession, account, nil)
}

func (f *FakeGateway) UpdateProfile(ctx context.Context, tok, username string, fields sessions.ProfileFields) (*sessions.Session, error) {
	if _, err := f.authorize(gateway.OpUpdateProfile, tok, username); err != nil {
		return nil, err
	}
	account, err := f.service.UpdateProfile(username, fields)
	return f.sessionWithToken(ctx, gateway.OpUpdateProfile, tok, account, err)
}

func (f *FakeGateway) DeleteAccount(ctx context.Context, tok, username string) (*sessions.Session, error) {
	claims, err := f.authorize(gateway.OpDeleteAccount, tok, username)
	if err != nil {
		return nil, err
	}
	account, err := f.service.DeleteAccount(username, claims)
	return f.sessionWithToken(ctx, gateway.OpDeleteAccount, tok, account, err)
}

func (f *FakeGateway) FetchAllStories(ctx context.Context) (stories.Collection, error) {
	if err := f.enter(gateway.OpFetchAllStories); err != nil {
		return nil, err
	}
	all, err := f.service.ListStories()
	if err != nil {
		return nil, gateway.Classify(gateway.OpFetchAllStories, err)
	}
	if err := f.wait(ctx, gateway.OpFetchAllStories); err != nil {
		return nil, err
	}
	return all, nil
}

func (f *FakeGateway) AddStory(ctx context.Context, tok string, fields stories.Fields) (stories.Story, error) {
	user, err := f.authenticate(gateway.OpAddStory, tok)
	if err != nil {
		return stories.Story{}, err
	}
	story, err := f.service.AddStory(user.Username, fields)
	return f.story(ctx, gateway.OpAddStory, story, err)
}

func (f *FakeGateway) UpdateStory(ctx context.Context, tok, storyID string, fields stories.Fields) (stories.Story, error) {
	user, err := f.authenticate(gateway.OpUpdateStory, tok)
	if err != nil {
		return stories.Story{}, err
	}
	story, err := f.service.UpdateStory(user.Username, storyID, fields)
	return f.story(ctx, gateway.OpUpdateStory, story, err)
}

func (f *FakeGateway) DeleteStory(ctx context.Context, tok, storyID string) error {
	user, err := f.authenticate(gateway.OpDeleteStory, tok)
	if err != nil {
		return err
	}
	_, err = f.service.DeleteStory(user.Username, storyID)
	_, err = f.story(ctx, gateway.OpDeleteStory, stories.Story{}, err)
	return err
}

func (f *FakeGateway) AddFavorite(ctx context.Context, tok, username, storyID string) (*sessions.Session, error) {
	if _, err := f.authorize(gateway.OpAddFavorite, tok, username); err != nil {
		return nil, err
	}
	account, err := f.service.AddFavorite(username, storyID)
	return f.sessionWithToken(ctx, gateway.OpAddFavorite, tok, account, err)
}

func (f *FakeGateway) RemoveFavorite(ctx context.Context, tok, username, storyID string) (*sessions.Session, error) {
	if _, err := f.authorize(gateway.OpRemoveFavorite, tok, username); err != nil {
		return nil, err
	}
	account, err := f.service.RemoveFavorite(username, storyID)
	return f.sessionWithToken(ctx, gateway.OpRemoveFavorite, tok, account, err)
}

// enter counts the call and returns the injected error for op, if any.
func (f *FakeGateway) enter(op string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls[op]++
	if err := f.errs[op]; err != nil {
		return gateway.Classify(op, err)
	}
	return nil
}

func (f *FakeGateway) authenticate(op, tok string) (*users.User, error) {
	if err := gateway.RequireToken(op, tok); err != nil {
		return nil, err
	}
	if err := f.enter(op); err != nil {
		return nil, err
	}
	user, _, err := f.service.Authenticate(tok)
	if err != nil {
		return nil, gateway.Classify(op, err)
	}
	return user, nil
}

func (f *FakeGateway) authorize(op, tok, username string) (*token.Claims, error) {
	if err := gateway.RequireToken(op, tok); err != nil {
		return nil, err
	}
	if err := f.enter(op); err != nil {
		return nil, err
	}
	user, claims, err := f.service.Authenticate(tok)
	if err != nil {
		return nil, gateway.Classify(op, err)
	}
	if user.Username != username {
		return nil, gateway.Classify(op, board.ErrForbidden)
	}
	return claims, nil
}

// wait blocks on the gate for op, if one is installed.
func (f *FakeGateway) wait(ctx context.Context, op string) error {
	f.lock.RLock()
	gate := f.gates[op]
	f.lock.RUnlock()
	if gate == nil {
		return nil
	}

	select {
	case gate.entered <- struct{}{}:
	default:
	}
	select {
	case <-gate.release:
		return nil
	case <-ctx.Done():
		return gateway.NewError(op, gateway.ErrTransport, 0, ctx.Err().Error())
	}
}

func (f *FakeGateway) session(ctx context.Context, op string, account *board.Account, err error) (*sessions.Session, error) {
	if err != nil {
		return nil, gateway.Classify(op, err)
	}
	if err := f.wait(ctx, op); err != nil {
		return nil, err
	}
	return account.Session(), nil
}

func (f *FakeGateway) sessionWithToken(ctx context.Context, op, tok string, account *board.Account, err error) (*sessions.Session, error) {
	if account != nil {
		account.Token = tok
	}
	return f.session(ctx, op, account, err)
}

func (f *FakeGateway) story(ctx context.Context, op string, story stories.Story, err error) (stories.Story, error) {
	if err != nil {
		return stories.Story{}, gateway.Classify(op, err)
	}
	if err := f.wait(ctx, op); err != nil {
		return stories.Story{}, err
	}
	return story, nil
}
