package stories

import (
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/internal/utils"
)

// Story is a submitted link. Values are never mutated once built; changes are made server side and re-fetched.
type Story struct {
	ID        string    `json:"storyId"`             // Stable id assigned by the service
	Title     string    `json:"title"`               // Link title
	URL       string    `json:"url"`                 // Target of the link
	Author    string    `json:"author"`              // Display name of the author
	Username  string    `json:"username"`            // Owner identity
	CreatedAt time.Time `json:"createdAt"`           // Submission time
	UpdatedAt time.Time `json:"updatedAt,omitempty"` // Last edit
}

// Fields are the user supplied parts of a story, used both for submission and edits.
type Fields struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// Validate checks that every field is present and that URL is an absolute http(s) link.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Author) == "" {
		return apperrors.Validation("author", "is required")
	}
	if strings.TrimSpace(f.Title) == "" {
		return apperrors.Validation("title", "is required")
	}
	u, err := url.Parse(strings.TrimSpace(f.URL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperrors.Validation("url", "must be an absolute http(s) link")
	}
	return nil
}

// Normalized returns the fields with surrounding whitespace removed.
func (f Fields) Normalized() Fields {
	return Fields{
		Author: strings.TrimSpace(f.Author),
		Title:  strings.TrimSpace(f.Title),
		URL:    strings.TrimSpace(f.URL),
	}
}

// Collection is the ordered set of stories known at a point in time, in server order.
type Collection []Story

// Find returns the story with the given id.
func (c Collection) Find(storyID string) (Story, bool) {
	for _, s := range c {
		if s.ID == storyID {
			return s, true
		}
	}
	return Story{}, false
}

// Contains reports whether a story with the given id is present.
func (c Collection) Contains(storyID string) bool {
	_, ok := c.Find(storyID)
	return ok
}

// OwnedBy returns the subsequence authored by username, keeping order.
func (c Collection) OwnedBy(username string) Collection {
	owned := make(Collection, 0)
	for _, s := range c {
		if s.Username == username {
			owned = append(owned, s)
		}
	}
	return owned
}

// IDs returns the story ids in order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, s := range c {
		ids = append(ids, s.ID)
	}
	return ids
}

// Clone returns a copy that shares no backing array with c.
func (c Collection) Clone() Collection {
	return utils.CloneSlice(c)
}
