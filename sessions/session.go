package sessions

import (
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/stories"
)

// Session is a snapshot of the authenticated user as returned by the story service. A snapshot is never
// modified after construction: every successful mutation yields a new one that replaces it wholesale.
type Session struct {
	Token      string             // Opaque credential issued at login/signup
	Username   string             // Unique identity, fixed for the lifetime of the session
	Name       string             // Display name
	CreatedAt  time.Time          // Account creation date
	OwnStories stories.Collection // Stories authored by this user
	Favorites  stories.Collection // Stories favorited by this user, the authority for favorite membership
}

// Validate enforces the token/username pairing: a session carries both or it is not a session.
func (s *Session) Validate() error {
	if s == nil {
		return apperrors.ErrNotAuthenticated
	}
	return s.Credentials().Validate()
}

// Credentials returns the persisted part of the session.
func (s *Session) Credentials() Credentials {
	return Credentials{Token: s.Token, Username: s.Username}
}

// HasFavorite reports whether storyID is in the favorite set.
func (s *Session) HasFavorite(storyID string) bool {
	if s == nil {
		return false
	}
	return s.Favorites.Contains(storyID)
}

// FavoriteIDs returns the favorite set keyed by story id.
func (s *Session) FavoriteIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	if s == nil {
		return ids
	}
	for _, story := range s.Favorites {
		ids[story.ID] = struct{}{}
	}
	return ids
}

// Clone returns a deep copy so callers can hold on to it without sharing slices with the controller.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	clone.OwnStories = s.OwnStories.Clone()
	clone.Favorites = s.Favorites.Clone()
	return &clone
}

// ProfileFields are the editable parts of a user profile. An empty Password leaves it unchanged.
type ProfileFields struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

func (p ProfileFields) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.Validation("name", "is required")
	}
	return nil
}

// Credentials are what survives a restart: the token and the username it was issued to.
type Credentials struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Validate reports malformed credentials; both fields must be present.
func (c Credentials) Validate() error {
	if c.Token == "" && c.Username == "" {
		return apperrors.ErrNotAuthenticated
	}
	if c.Token == "" || c.Username == "" {
		return apperrors.Wrapf(apperrors.ErrValidation, "token and username must both be present")
	}
	return nil
}
