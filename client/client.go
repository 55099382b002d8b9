// Package client is the story board core: one value that owns the session, the story views and the
// favorite stars, and exposes every user intent as a request/response method.
package client

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-story-client/favorites"
	"github.com/jrsteele09/go-story-client/gateway"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
	"github.com/jrsteele09/go-story-client/views"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Snapshot is what the presentation layer renders: the session (nil when anonymous), the three
// story lists and the star of every listed story, all taken at one moment.
type Snapshot struct {
	Session *sessions.Session
	Views   views.Views

	stars map[string]favorites.Star
}

// Star returns the star shown for storyID.
func (s Snapshot) Star(storyID string) favorites.Star {
	if star, ok := s.stars[storyID]; ok {
		return star
	}
	return favorites.Far
}

// Authenticated reports whether a user is logged in.
func (s Snapshot) Authenticated() bool {
	return s.Session != nil
}

type Client struct {
	gateway   gateway.Gateway
	sessions  *sessions.Controller
	views     *views.View
	favorites *favorites.Controller
}

func New(gw gateway.Gateway, store sessions.Store) (*Client, error) {
	if gw == nil {
		return nil, errors.New("[client.New] gateway is required")
	}
	sessionController, err := sessions.NewController(gw, store)
	if err != nil {
		return nil, errors.Wrap(err, "[client.New]")
	}
	view, err := views.New(gw, sessionController)
	if err != nil {
		return nil, errors.Wrap(err, "[client.New]")
	}
	favoriteController, err := favorites.NewController(gw, sessionController, view)
	if err != nil {
		return nil, errors.Wrap(err, "[client.New]")
	}
	return &Client{
		gateway:   gw,
		sessions:  sessionController,
		views:     view,
		favorites: favoriteController,
	}, nil
}

// Start restores the stored session and loads the stories. Stories are loaded even when restoring
// fails; the first error is returned.
func (c *Client) Start(ctx context.Context) (Snapshot, error) {
	state, startErr := c.sessions.Start(ctx)
	log.Debug().Stringer("state", state).Msg("client started")

	_, refreshErr := c.views.Refresh(ctx)
	if startErr != nil {
		return c.Snapshot(), errors.Wrap(startErr, "[Client.Start]")
	}
	if refreshErr != nil {
		return c.Snapshot(), errors.Wrap(refreshErr, "[Client.Start]")
	}
	return c.Snapshot(), nil
}

func (c *Client) Login(ctx context.Context, username, password string) (Snapshot, error) {
	if strings.TrimSpace(username) == "" {
		return c.Snapshot(), apperrors.Validation("username", "is required")
	}
	if password == "" {
		return c.Snapshot(), apperrors.Validation("password", "is required")
	}
	if _, err := c.sessions.Login(ctx, strings.TrimSpace(username), password); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.Login]")
	}
	return c.sessionChanged(ctx)
}

func (c *Client) Signup(ctx context.Context, username, password, name string) (Snapshot, error) {
	if strings.TrimSpace(username) == "" {
		return c.Snapshot(), apperrors.Validation("username", "is required")
	}
	if password == "" {
		return c.Snapshot(), apperrors.Validation("password", "is required")
	}
	if strings.TrimSpace(name) == "" {
		return c.Snapshot(), apperrors.Validation("name", "is required")
	}
	if _, err := c.sessions.Signup(ctx, strings.TrimSpace(username), password, strings.TrimSpace(name)); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.Signup]")
	}
	return c.sessionChanged(ctx)
}

// Logout clears the stored credentials and drops the session. No request is made.
func (c *Client) Logout(ctx context.Context) (Snapshot, error) {
	if err := c.sessions.Logout(ctx); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.Logout]")
	}
	c.favorites.Reset()
	c.views.Recompute()
	return c.Snapshot(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, fields sessions.ProfileFields) (Snapshot, error) {
	if err := c.requireSession(); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.UpdateProfile]")
	}
	fields.Name = strings.TrimSpace(fields.Name)
	if err := fields.Validate(); err != nil {
		return c.Snapshot(), err
	}
	if _, err := c.sessions.UpdateProfile(ctx, fields); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.UpdateProfile]")
	}
	c.views.Recompute()
	return c.Snapshot(), nil
}

// DeleteAccount deletes the account, logs out and reloads the stories, which no longer include the
// account's own.
func (c *Client) DeleteAccount(ctx context.Context) (Snapshot, error) {
	if err := c.requireSession(); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.DeleteAccount]")
	}
	if err := c.sessions.DeleteAccount(ctx); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.DeleteAccount]")
	}
	c.favorites.Reset()
	c.views.Recompute()
	if _, err := c.views.Refresh(ctx); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.DeleteAccount]")
	}
	return c.Snapshot(), nil
}

func (c *Client) SubmitStory(ctx context.Context, fields stories.Fields) (stories.Story, error) {
	creds, err := c.credentials(fields.Validate)
	if err != nil {
		return stories.Story{}, errors.Wrap(err, "[Client.SubmitStory]")
	}
	story, err := c.gateway.AddStory(ctx, creds.Token, fields.Normalized())
	if err != nil {
		return stories.Story{}, errors.Wrap(err, "[Client.SubmitStory] AddStory")
	}
	return story, c.storiesChanged(ctx)
}

// EditStory changes a story of the logged in user. The service answers not found for stories owned by
// someone else.
func (c *Client) EditStory(ctx context.Context, storyID string, fields stories.Fields) (stories.Story, error) {
	creds, err := c.credentials(func() error {
		if storyID == "" {
			return apperrors.Validation("storyId", "is required")
		}
		return fields.Validate()
	})
	if err != nil {
		return stories.Story{}, errors.Wrap(err, "[Client.EditStory]")
	}
	story, err := c.gateway.UpdateStory(ctx, creds.Token, storyID, fields.Normalized())
	if err != nil {
		return stories.Story{}, errors.Wrap(err, "[Client.EditStory] UpdateStory")
	}
	return story, c.storiesChanged(ctx)
}

func (c *Client) DeleteStory(ctx context.Context, storyID string) error {
	creds, err := c.credentials(func() error {
		if storyID == "" {
			return apperrors.Validation("storyId", "is required")
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "[Client.DeleteStory]")
	}
	if err := c.gateway.DeleteStory(ctx, creds.Token, storyID); err != nil {
		return errors.Wrap(err, "[Client.DeleteStory] DeleteStory")
	}
	return c.storiesChanged(ctx)
}

// ToggleFavorite flips the star of storyID. See favorites.Controller.Toggle.
func (c *Client) ToggleFavorite(ctx context.Context, storyID string) (favorites.Star, error) {
	star, err := c.favorites.Toggle(ctx, storyID)
	if err != nil {
		return star, errors.Wrap(err, "[Client.ToggleFavorite]")
	}
	return star, nil
}

// Refresh reloads the session and the stories and settles stars left over from failed toggles.
func (c *Client) Refresh(ctx context.Context) (Snapshot, error) {
	if err := c.favorites.Reconcile(ctx); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client.Refresh]")
	}
	return c.Snapshot(), nil
}

// OwnStory looks storyID up among the logged in user's stories, to pre-fill an edit.
func (c *Client) OwnStory(storyID string) (stories.Story, bool) {
	session, ok := c.sessions.Current()
	if !ok {
		return stories.Story{}, false
	}
	return session.OwnStories.Find(storyID)
}

func (c *Client) State() sessions.State {
	return c.sessions.State()
}

// Snapshot returns the current state for rendering.
func (c *Client) Snapshot() Snapshot {
	session, _ := c.sessions.Current()
	current := c.views.Current()

	stars := make(map[string]favorites.Star)
	for _, list := range []stories.Collection{current.All, current.Own, current.Favorites} {
		for _, story := range list {
			stars[story.ID] = c.favorites.Star(story.ID)
		}
	}
	return Snapshot{Session: session, Views: current, stars: stars}
}

func (c *Client) requireSession() error {
	if c.sessions.State() != sessions.Authenticated {
		return apperrors.ErrNotAuthenticated
	}
	return nil
}

// credentials gates a story mutation: logged in first, then valid input.
func (c *Client) credentials(validate func() error) (sessions.Credentials, error) {
	creds, ok := c.sessions.Credentials()
	if !ok {
		return sessions.Credentials{}, apperrors.ErrNotAuthenticated
	}
	if err := validate(); err != nil {
		return sessions.Credentials{}, err
	}
	return creds, nil
}

// sessionChanged resets per-user state after login or signup and reloads the stories.
func (c *Client) sessionChanged(ctx context.Context) (Snapshot, error) {
	c.favorites.Reset()
	c.views.Recompute()
	if _, err := c.views.Refresh(ctx); err != nil {
		return c.Snapshot(), errors.Wrap(err, "[Client] Refresh")
	}
	return c.Snapshot(), nil
}

// storiesChanged re-fetches the user, whose own and favorite lists may have changed, then the stories.
func (c *Client) storiesChanged(ctx context.Context) error {
	if _, err := c.sessions.Reload(ctx); err != nil {
		return errors.Wrap(err, "[Client] Reload")
	}
	if _, err := c.views.Refresh(ctx); err != nil {
		return errors.Wrap(err, "[Client] Refresh")
	}
	return nil
}
