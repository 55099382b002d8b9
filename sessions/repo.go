package sessions

import "context"

// Store persists the current credentials across restarts. It performs no freshness checks; the story
// service decides whether a stored token is still good.
type Store interface {
	// Read returns the stored credentials, or nil when none (or only half of them) are stored
	Read(ctx context.Context) (*Credentials, error)

	// Write replaces the stored credentials
	Write(ctx context.Context, creds Credentials) error

	// Clear removes both keys in one step
	Clear(ctx context.Context) error
}
