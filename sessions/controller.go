package sessions

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// State is the controller's position in the Anonymous/Authenticated state machine.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Controller owns the single current session. It derives it from stored credentials or a fresh
// login/signup, replaces it wholesale on every successful mutation and drops it on logout or
// account deletion. Entering Authenticated persists the credentials; leaving it clears them before
// the in-memory session goes away.
type Controller struct {
	auth  Authenticator
	store Store

	lock    sync.RWMutex
	current *Session
}

// NewController creates a controller in the Anonymous state. Call Start to restore a stored session.
func NewController(auth Authenticator, store Store) (*Controller, error) {
	if auth == nil {
		return nil, errors.New("[NewController] authenticator is required")
	}
	if store == nil {
		return nil, errors.New("[NewController] credential store is required")
	}
	return &Controller{auth: auth, store: store}, nil
}

// Start restores the session from the store. Missing, malformed or rejected credentials leave the
// controller Anonymous without an error; rejected ones are also removed from the store. A failure to
// reach the service is returned, the controller stays Anonymous and the credentials are kept.
func (c *Controller) Start(ctx context.Context) (State, error) {
	creds, err := c.store.Read(ctx)
	if err != nil {
		return Anonymous, errors.Wrap(apperrors.StoreUnavailable(err), "[Controller.Start] store.Read")
	}
	if creds == nil || creds.Validate() != nil {
		log.Debug().Msg("no stored credentials, starting anonymous")
		return Anonymous, nil
	}

	session, err := c.auth.RestoreSession(ctx, creds.Token, creds.Username)
	if err != nil {
		return Anonymous, errors.Wrap(err, "[Controller.Start] RestoreSession")
	}
	if session == nil || session.Validate() != nil || session.Username != creds.Username {
		log.Info().Str("username", creds.Username).Msg("stored credentials rejected, starting anonymous")
		if err := c.store.Clear(ctx); err != nil {
			log.Error().Err(err).Msg("failed to clear rejected credentials")
		}
		return Anonymous, nil
	}

	if err := c.enter(ctx, session); err != nil {
		return Anonymous, errors.Wrap(err, "[Controller.Start] enter")
	}
	return Authenticated, nil
}

// Login authenticates with the service. On failure the current session is left untouched.
func (c *Controller) Login(ctx context.Context, username, password string) (*Session, error) {
	session, err := c.auth.Login(ctx, username, password)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Login] Login")
	}
	if err := c.enter(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Controller.Login] enter")
	}
	return session.Clone(), nil
}

// Signup creates an account and logs into it.
func (c *Controller) Signup(ctx context.Context, username, password, name string) (*Session, error) {
	session, err := c.auth.Signup(ctx, username, password, name)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Signup] Signup")
	}
	if err := c.enter(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Controller.Signup] enter")
	}
	return session.Clone(), nil
}

// Reload re-fetches the current user with the held credentials and replaces the session with the
// result. Used after story mutations, whose own results do not carry a session.
func (c *Controller) Reload(ctx context.Context) (*Session, error) {
	creds, ok := c.Credentials()
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotAuthenticated, "[Controller.Reload]")
	}
	session, err := c.auth.RestoreSession(ctx, creds.Token, creds.Username)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Reload] RestoreSession")
	}
	if session == nil {
		return nil, errors.Wrap(apperrors.ErrAuth, "[Controller.Reload] credentials no longer accepted")
	}
	if err := c.Replace(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Controller.Reload] Replace")
	}
	return session.Clone(), nil
}

// UpdateProfile changes the display name and, optionally, the password.
func (c *Controller) UpdateProfile(ctx context.Context, fields ProfileFields) (*Session, error) {
	creds, ok := c.Credentials()
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotAuthenticated, "[Controller.UpdateProfile]")
	}
	session, err := c.auth.UpdateProfile(ctx, creds.Token, creds.Username, fields)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.UpdateProfile] UpdateProfile")
	}
	if err := c.Replace(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Controller.UpdateProfile] Replace")
	}
	return session.Clone(), nil
}

// Replace installs a fresh snapshot for the logged in user. Nothing from the previous snapshot is
// carried over. Snapshots for a different user, or arriving after logout, are rejected.
func (c *Controller) Replace(ctx context.Context, session *Session) error {
	if err := session.Validate(); err != nil {
		return errors.Wrap(err, "[Controller.Replace] invalid session")
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.current == nil {
		return errors.Wrap(apperrors.ErrNotAuthenticated, "[Controller.Replace]")
	}
	if c.current.Username != session.Username {
		return errors.Errorf("[Controller.Replace] snapshot for %q does not belong to %q", session.Username, c.current.Username)
	}
	if c.current.Token != session.Token {
		if err := c.store.Write(ctx, session.Credentials()); err != nil {
			return errors.Wrap(apperrors.StoreUnavailable(err), "[Controller.Replace] store.Write")
		}
	}
	c.current = session.Clone()
	log.Debug().Str("username", session.Username).Int("favorites", len(session.Favorites)).Msg("session replaced")
	return nil
}

// Logout clears the stored credentials, then drops the session.
func (c *Controller) Logout(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return errors.Wrap(apperrors.StoreUnavailable(err), "[Controller.Logout] store.Clear")
	}
	if c.current != nil {
		log.Debug().Str("username", c.current.Username).Msg("logged out")
	}
	c.current = nil
	return nil
}

// DeleteAccount deletes the account on the service and tears the session down. The service's reply is
// only a signal; it is never installed as a session.
func (c *Controller) DeleteAccount(ctx context.Context) error {
	creds, ok := c.Credentials()
	if !ok {
		return errors.Wrap(apperrors.ErrNotAuthenticated, "[Controller.DeleteAccount]")
	}
	if _, err := c.auth.DeleteAccount(ctx, creds.Token, creds.Username); err != nil {
		return errors.Wrap(err, "[Controller.DeleteAccount] DeleteAccount")
	}
	if err := c.Logout(ctx); err != nil {
		return errors.Wrap(err, "[Controller.DeleteAccount] Logout")
	}
	log.Info().Str("username", creds.Username).Msg("account deleted")
	return nil
}

// Current returns a copy of the current session.
func (c *Controller) Current() (*Session, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.current == nil {
		return nil, false
	}
	return c.current.Clone(), true
}

func (c *Controller) State() State {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.current == nil {
		return Anonymous
	}
	return Authenticated
}

// Credentials returns the token and username of the current session.
func (c *Controller) Credentials() (Credentials, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.current == nil {
		return Credentials{}, false
	}
	return c.current.Credentials(), true
}

// enter persists the credentials and installs the session. If the store write fails the previous
// state is kept.
func (c *Controller) enter(ctx context.Context, session *Session) error {
	if err := session.Validate(); err != nil {
		return errors.Wrap(err, "invalid session")
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.store.Write(ctx, session.Credentials()); err != nil {
		log.Error().Err(err).Str("username", session.Username).Msg("failed to persist credentials")
		return apperrors.StoreUnavailable(err)
	}
	c.current = session.Clone()
	log.Debug().Str("username", session.Username).Msg("session established")
	return nil
}
