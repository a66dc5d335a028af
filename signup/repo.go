package signup

import "context"

// SessionRepo stores pending signup sessions. Implementations must make
// Update linearizable per session: the mutation closure runs under exclusion
// so increment-then-check of attempts/resends cannot interleave across
// concurrent callers.
type SessionRepo interface {
	// Put stores a new session under its ID.
	Put(ctx context.Context, session *Session) error

	// Get retrieves a session by ID, or errors.ErrSessionNotFound.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Update applies fn to the stored session atomically. fn receives the
	// stored copy and may mutate it; a non-nil return aborts the update
	// and is passed through. Returns the post-update session.
	Update(ctx context.Context, sessionID string, fn func(*Session) error) (*Session, error)

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
