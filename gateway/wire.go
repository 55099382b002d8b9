package gateway

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
)

// JSON bodies exchanged with the story service.

type UserPayload struct {
	Username  string             `json:"username"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Stories   stories.Collection `json:"stories"`
	Favorites stories.Collection `json:"favorites"`
}

// Session builds a session snapshot from the payload and the token it was fetched with.
func (u UserPayload) Session(token string) *sessions.Session {
	return &sessions.Session{
		Token:      token,
		Username:   u.Username,
		Name:       u.Name,
		CreatedAt:  u.CreatedAt,
		OwnStories: nonNil(u.Stories),
		Favorites:  nonNil(u.Favorites),
	}
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type CredentialsRequest struct {
	User Credentials `json:"user"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  UserPayload `json:"user"`
}

type ProfileRequest struct {
	User sessions.ProfileFields `json:"user"`
}

type UserResponse struct {
	Message string      `json:"message,omitempty"`
	User    UserPayload `json:"user"`
}

type StoriesResponse struct {
	Stories stories.Collection `json:"stories"`
}

type StoryRequest struct {
	Story stories.Fields `json:"story"`
}

type StoryResponse struct {
	Message string        `json:"message,omitempty"`
	Story   stories.Story `json:"story"`
}

type ErrorBody struct {
	Status  int    `json:"status"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// KindForStatus maps a failed HTTP status to an error kind.
func KindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusConflict:
		return ErrAuth
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrTransport
	}
}

func nonNil(c stories.Collection) stories.Collection {
	if c == nil {
		return stories.Collection{}
	}
	return c
}
