// Package views derives the three story lists the UI shows from the story service and the current
// session.
package views

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// StoryFetcher is the part of the story service the view reads from.
type StoryFetcher interface {
	FetchAllStories(ctx context.Context) (stories.Collection, error)
}

// SessionSource supplies the current session, if any.
type SessionSource interface {
	Current() (*sessions.Session, bool)
}

// Views is one consistent set of lists, rebuilt together on every refresh.
type Views struct {
	All       stories.Collection // Every story, in server order
	Own       stories.Collection // Stories in All authored by the session user
	Favorites stories.Collection // The session's favorites, as the service reported them

	favoriteIDs map[string]struct{}
}

// Derive builds the views from the full collection and the session; session may be nil.
func Derive(all stories.Collection, session *sessions.Session) Views {
	v := Views{
		All:         all.Clone(),
		Own:         stories.Collection{},
		Favorites:   stories.Collection{},
		favoriteIDs: map[string]struct{}{},
	}
	if v.All == nil {
		v.All = stories.Collection{}
	}
	if session == nil {
		return v
	}
	v.Own = v.All.OwnedBy(session.Username)
	v.Favorites = session.Favorites.Clone()
	if v.Favorites == nil {
		v.Favorites = stories.Collection{}
	}
	v.favoriteIDs = session.FavoriteIDs()
	return v
}

// IsFavorite reports whether storyID is in the session's favorites. It ignores pending toggles.
func (v Views) IsFavorite(storyID string) bool {
	_, ok := v.favoriteIDs[storyID]
	return ok
}

func (v Views) clone() Views {
	ids := make(map[string]struct{}, len(v.favoriteIDs))
	for id := range v.favoriteIDs {
		ids[id] = struct{}{}
	}
	return Views{
		All:         v.All.Clone(),
		Own:         v.Own.Clone(),
		Favorites:   v.Favorites.Clone(),
		favoriteIDs: ids,
	}
}

// View holds the installed views. Refreshes may overlap; a refresh that finishes after a later one
// has been installed is returned to its caller but not installed.
type View struct {
	fetcher  StoryFetcher
	sessions SessionSource

	lock      sync.RWMutex
	current   Views
	started   uint64 // sequence of the last refresh started
	installed uint64 // sequence of the refresh whose result is installed
}

func New(fetcher StoryFetcher, sessions SessionSource) (*View, error) {
	if fetcher == nil {
		return nil, errors.New("[views.New] story fetcher is required")
	}
	if sessions == nil {
		return nil, errors.New("[views.New] session source is required")
	}
	return &View{
		fetcher:  fetcher,
		sessions: sessions,
		current:  Derive(nil, nil),
	}, nil
}

// Refresh fetches every story and rebuilds all three lists against the current session. On failure
// the installed views are kept.
func (v *View) Refresh(ctx context.Context) (Views, error) {
	v.lock.Lock()
	v.started++
	seq := v.started
	v.lock.Unlock()

	all, err := v.fetcher.FetchAllStories(ctx)
	if err != nil {
		return v.Current(), errors.Wrap(err, "[View.Refresh] FetchAllStories")
	}

	session, _ := v.sessions.Current()
	fresh := Derive(all, session)

	v.lock.Lock()
	defer v.lock.Unlock()
	if seq < v.installed {
		log.Debug().Uint64("seq", seq).Uint64("installed", v.installed).Msg("discarding stale refresh")
		return fresh.clone(), nil
	}
	v.installed = seq
	v.current = fresh
	return fresh.clone(), nil
}

// Recompute re-derives Own and Favorites from the installed All and the current session without
// fetching.
func (v *View) Recompute() Views {
	session, _ := v.sessions.Current()

	v.lock.Lock()
	defer v.lock.Unlock()
	v.current = Derive(v.current.All, session)
	return v.current.clone()
}

// Current returns the installed views.
func (v *View) Current() Views {
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.current.clone()
}
