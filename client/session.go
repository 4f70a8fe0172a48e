package client

import (
	"context"
	"errors"
)

// Restore loads the persisted session at application start. The cached
// session is returned optimistically so the UI can render protected content
// immediately; callers should follow up with Confirm to validate it. Missing
// or unparseable stored state yields ErrNotAuthenticated with the store
// already purged.
func (c *Client) Restore(ctx context.Context) (*Session, error) {
	session, err := c.store.Load()
	if err != nil {
		_ = c.store.Clear()
		return nil, ErrNotAuthenticated
	}
	if session == nil {
		return nil, ErrNotAuthenticated
	}
	return session, nil
}

// Confirm validates a restored session by re-fetching the profile. An
// authentication failure logs the user out (the refresh-and-retry protocol
// inside the client has already purged the store); transient network errors
// are returned as-is so the caller can keep the optimistic session and retry.
func (c *Client) Confirm(ctx context.Context) (*User, error) {
	user, err := c.Me(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrNotAuthenticated) {
			return nil, err
		}
		return nil, err
	}

	// Keep the cached profile current.
	if session, loadErr := c.store.Load(); loadErr == nil && session != nil {
		session.User = *user
		_ = c.store.Save(session)
	}

	return user, nil
}
