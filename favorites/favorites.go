// Package favorites drives the favorite star of each story: it flips the star as soon as the user asks,
// then settles it against the story service.
package favorites

import (
	"context"
	"sync"

	"codeberg.org/gruf/go-mutexes"
	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/views"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Star is the favorite state shown for a story.
type Star string

const (
	Far Star = "far" // not favorited
	Fas Star = "fas" // favorited
)

func (s Star) Opposite() Star {
	if s == Fas {
		return Far
	}
	return Fas
}

// Marker is the part of the story service that changes favorites.
type Marker interface {
	AddFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error)
	RemoveFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error)
}

// SessionController is the session owner the toggles report back to.
type SessionController interface {
	Current() (*sessions.Session, bool)
	Credentials() (sessions.Credentials, bool)
	Replace(ctx context.Context, session *sessions.Session) error
	Reload(ctx context.Context) (*sessions.Session, error)
}

// Refresher rebuilds the story views.
type Refresher interface {
	Refresh(ctx context.Context) (views.Views, error)
	Recompute() views.Views
}

type override struct {
	star        Star
	seq         uint64
	pending     bool // request in flight
	unconfirmed bool // result could not be confirmed against the session
}

// Controller keeps one optimistic override per story while toggles are unsettled. The star shown for a
// story is its override when one exists, otherwise the session's favorite membership.
type Controller struct {
	marker   Marker
	sessions SessionController
	views    Refresher

	// held from request to settle, per story id
	locks mutexes.MutexMap

	lock      sync.RWMutex
	overrides map[string]override
	seqs      map[string]uint64
}

func NewController(marker Marker, sessions SessionController, refresher Refresher) (*Controller, error) {
	if marker == nil {
		return nil, errors.New("[favorites.NewController] favorite marker is required")
	}
	if sessions == nil {
		return nil, errors.New("[favorites.NewController] session controller is required")
	}
	if refresher == nil {
		return nil, errors.New("[favorites.NewController] view refresher is required")
	}
	return &Controller{
		marker:    marker,
		sessions:  sessions,
		views:     refresher,
		overrides: make(map[string]override),
		seqs:      make(map[string]uint64),
	}, nil
}

// Star returns the star to display for storyID.
func (c *Controller) Star(storyID string) Star {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.star(storyID)
}

func (c *Controller) star(storyID string) Star {
	if o, ok := c.overrides[storyID]; ok {
		return o.star
	}
	if session, ok := c.sessions.Current(); ok && session.HasFavorite(storyID) {
		return Fas
	}
	return Far
}

// Pending reports whether storyID has an override that the service has not settled.
func (c *Controller) Pending(storyID string) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	_, ok := c.overrides[storyID]
	return ok
}

// Toggle flips the star of storyID and asks the service to match. Requests for one story reach the
// service in the order they were toggled, and only the latest toggle of a story settles it; results of
// superseded toggles are dropped. When the request fails the star is reconciled with a forced reload;
// if that fails too, the flipped star stays until the next Reconcile. The request error is always
// returned.
func (c *Controller) Toggle(ctx context.Context, storyID string) (Star, error) {
	creds, ok := c.sessions.Credentials()
	if !ok {
		return Far, errors.Wrap(apperrors.ErrNotAuthenticated, "[Controller.Toggle]")
	}
	if storyID == "" {
		return Far, apperrors.Validation("storyId", "is required")
	}

	c.lock.Lock()
	target := c.star(storyID).Opposite()
	c.seqs[storyID]++
	seq := c.seqs[storyID]
	c.overrides[storyID] = override{star: target, seq: seq, pending: true}
	c.lock.Unlock()

	unlock := c.locks.Lock(storyID)
	defer unlock()

	var (
		session *sessions.Session
		err     error
	)
	if target == Fas {
		session, err = c.marker.AddFavorite(ctx, creds.Token, creds.Username, storyID)
	} else {
		session, err = c.marker.RemoveFavorite(ctx, creds.Token, creds.Username, storyID)
	}
	if err != nil {
		return c.fail(ctx, storyID, seq, err)
	}
	return c.settle(ctx, storyID, seq, session)
}

// settle and fail run with the story's lock held.
func (c *Controller) settle(ctx context.Context, storyID string, seq uint64, session *sessions.Session) (Star, error) {
	if !c.isLatest(storyID, seq) {
		log.Debug().Str("storyId", storyID).Uint64("seq", seq).Msg("discarding superseded favorite result")
		return c.Star(storyID), nil
	}
	if err := c.sessions.Replace(ctx, session); err != nil {
		log.Warn().Err(err).Str("storyId", storyID).Msg("favorite applied but session not replaced, keeping optimistic star")
		c.unconfirm(storyID, seq)
		return c.Star(storyID), errors.Wrap(err, "[Controller.Toggle] Replace")
	}
	c.clear(storyID, seq)
	c.refresh(ctx)
	return c.Star(storyID), nil
}

func (c *Controller) fail(ctx context.Context, storyID string, seq uint64, cause error) (Star, error) {
	cause = errors.Wrap(cause, "[Controller.Toggle] favorite request failed")
	if !c.isLatest(storyID, seq) {
		return c.Star(storyID), cause
	}
	c.unconfirm(storyID, seq)

	if _, err := c.sessions.Reload(ctx); err != nil {
		log.Warn().Err(err).Str("storyId", storyID).Msg("favorite reconciliation failed, keeping optimistic star")
		return c.Star(storyID), cause
	}
	c.clear(storyID, seq)
	c.refresh(ctx)
	return c.Star(storyID), cause
}

// Reconcile reloads the session and the views, then drops every override that is not waiting on a
// request.
func (c *Controller) Reconcile(ctx context.Context) error {
	if _, ok := c.sessions.Credentials(); ok {
		if _, err := c.sessions.Reload(ctx); err != nil {
			return errors.Wrap(err, "[Controller.Reconcile] Reload")
		}
	}
	if _, err := c.views.Refresh(ctx); err != nil {
		return errors.Wrap(err, "[Controller.Reconcile] Refresh")
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	for id, o := range c.overrides {
		if !o.pending {
			delete(c.overrides, id)
		}
	}
	return nil
}

// Reset drops all overrides. Results still in flight are discarded when they arrive.
func (c *Controller) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	for id := range c.overrides {
		c.seqs[id]++
	}
	c.overrides = make(map[string]override)
}

func (c *Controller) isLatest(storyID string, seq uint64) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.seqs[storyID] == seq
}

// unconfirm keeps the override for storyID until Reconcile, if it still belongs to seq.
func (c *Controller) unconfirm(storyID string, seq uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if o, ok := c.overrides[storyID]; ok && o.seq == seq {
		o.pending = false
		o.unconfirmed = true
		c.overrides[storyID] = o
	}
}

// clear drops the override for storyID if it still belongs to seq.
func (c *Controller) clear(storyID string, seq uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if o, ok := c.overrides[storyID]; ok && o.seq == seq {
		delete(c.overrides, storyID)
	}
}

func (c *Controller) refresh(ctx context.Context) {
	if _, err := c.views.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("views refresh failed after favorite change")
		c.views.Recompute()
	}
}
