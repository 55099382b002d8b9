package sessions

import "context"

// Authenticator is the part of the story service the controller needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*Session, error)
	Signup(ctx context.Context, username, password, name string) (*Session, error)

	// RestoreSession returns nil, nil when the credentials are missing or no longer accepted
	RestoreSession(ctx context.Context, token, username string) (*Session, error)

	UpdateProfile(ctx context.Context, token, username string, fields ProfileFields) (*Session, error)
	DeleteAccount(ctx context.Context, token, username string) (*Session, error)
}
