// Package gateway is the contract between the client core and the remote story service.
package gateway

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-story-client/internal/errors"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/stories"
)

var (
	ErrAuth         = apperrors.ErrAuth
	ErrNotFound     = apperrors.ErrNotFound
	ErrTransport    = apperrors.ErrTransport
	ErrValidation   = apperrors.ErrValidation
	ErrMissingToken = apperrors.ErrMissingToken
)

// Operation names carried in Error.Op
const (
	OpLogin           = "Login"
	OpSignup          = "Signup"
	OpRestoreSession  = "RestoreSession"
	OpUpdateProfile   = "UpdateProfile"
	OpDeleteAccount   = "DeleteAccount"
	OpFetchAllStories = "FetchAllStories"
	OpAddStory        = "AddStory"
	OpUpdateStory     = "UpdateStory"
	OpDeleteStory     = "DeleteStory"
	OpAddFavorite     = "AddFavorite"
	OpRemoveFavorite  = "RemoveFavorite"
)

// Gateway is the remote story service. Operations that return a *sessions.Session hand back a full
// fresh snapshot of the user; callers replace their session with it.
type Gateway interface {
	sessions.Authenticator

	FetchAllStories(ctx context.Context) (stories.Collection, error)
	AddStory(ctx context.Context, token string, fields stories.Fields) (stories.Story, error)
	UpdateStory(ctx context.Context, token, storyID string, fields stories.Fields) (stories.Story, error)
	DeleteStory(ctx context.Context, token, storyID string) error

	AddFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error)
	RemoveFavorite(ctx context.Context, token, username, storyID string) (*sessions.Session, error)
}

// Error describes a failed gateway operation. It unwraps to its Kind.
type Error struct {
	Op      string // Gateway operation, e.g. "Login"
	Kind    error  // One of the error kinds above
	Status  int    // HTTP status when the service answered, 0 otherwise
	Message string // Message from the service or the transport
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %v (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds an *Error for op.
func NewError(op string, kind error, status int, message string) *Error {
	return &Error{Op: op, Kind: kind, Status: status, Message: message}
}

// RequireToken rejects an empty token before any I/O.
func RequireToken(op, token string) error {
	if token == "" {
		return NewError(op, ErrMissingToken, 0, "")
	}
	return nil
}

// Classify turns err into an *Error for op, keeping its kind when it has one of the known kinds and
// reporting anything else as a transport failure.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if apperrors.As(err, &gwErr) {
		return gwErr
	}
	kind := apperrors.Kind(err)
	if kind == nil {
		kind = ErrTransport
	}
	return NewError(op, kind, 0, err.Error())
}
