// Package guard serializes checkout attempts per user. While a user holds
// the guard, further attempts for the same user are rejected instead of
// queued.
package guard

import (
	"context"
	"errors"
)

// ErrHeld is returned by Acquire when the user already holds the guard.
var ErrHeld = errors.New("guard already held for user")

// Guard grants exclusive per-user access for the duration of a checkout.
// The returned release function must be called exactly once; releasing is
// always safe even after the holder's context expired.
type Guard interface {
	Acquire(ctx context.Context, userID string) (release func(), err error)
}
