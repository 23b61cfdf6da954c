// Package session maintains server-side authenticated sessions.
//
// WHY SERVER-SIDE SESSIONS (NOT JWTs)?
// The session cookie carries an opaque random ID; everything it means lives
// on the server. That costs a store lookup per request, but it buys the one
// property stateless tokens cannot give: logout actually logs you out.
// Destroying the server-side entry invalidates the session immediately, on
// every device, with no waiting for an expiry.
//
// The Store interface keeps the backing storage swappable: the in-memory
// store is the zero-dependency default, the redis store survives restarts
// and works across multiple server processes.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNoSession is returned by Store.Get when the session ID is unknown or
// has expired. Callers treat it as "anonymous", never as a failure.
var ErrNoSession = errors.New("session: no such session")

// Store maps opaque session IDs to user IDs, with a TTL.
//
// IDs are bearer credentials — implementations must never log them.
type Store interface {
	// Get returns the user ID bound to the session, or ErrNoSession.
	Get(ctx context.Context, id string) (int64, error)

	// Set binds a session ID to a user ID for the given lifetime.
	Set(ctx context.Context, id string, userID int64, ttl time.Duration) error

	// Destroy removes the session. Destroying an unknown ID is not an error.
	Destroy(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
