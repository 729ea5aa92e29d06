// Package session persists layout contexts between layout passes.
//
// A layout pass only stays stable if it sees the context the previous pass
// returned. Sessions carry that context across CLI invocations and API
// requests, keyed by a UUID. Backends:
//   - memory: in-process storage for tests and single-shot runs
//   - file: JSON files for the CLI (~/.config/treepack/sessions/)
//   - redis: shared storage for multi-instance servers
//   - mongo: durable storage with a TTL index
//
// # Usage
//
//	store, err := session.NewFileStore("")
//	if err != nil {
//	    return err
//	}
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    sess = session.New(session.DefaultTTL)
//	}
//	res, err := layout.Compute(root, sess.Context, opts)
//	sess.Update(res.Context)
//	err = store.Set(ctx, sess)
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/treepack/pkg/core/history"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 30 * 24 * time.Hour

// Session is a stored layout context.
type Session struct {
	ID      string          `json:"id" bson:"_id"`
	Context history.Context `json:"context" bson:"context"`
	// Source describes what was laid out, such as a scanned directory.
	Source string `json:"source,omitempty" bson:"source,omitempty"`
	// Passes counts the layout passes that updated the context.
	Passes    int       `json:"passes" bson:"passes"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// New creates an empty session with a fresh id.
func New(ttl time.Duration) *Session {
	return NewWithID(NewID(), ttl)
}

// NewWithID creates an empty session with the given id.
func NewWithID(id string, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Context:   history.Empty(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// NewID returns a random session id.
func NewID() string { return uuid.NewString() }

// IsExpired reports whether the session has exceeded its TTL.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Update replaces the context after a layout pass and extends the expiry by
// the session's original TTL.
func (s *Session) Update(ctx history.Context) {
	ttl := s.ExpiresAt.Sub(s.UpdatedAt)
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.Context = ctx
	s.Passes++
	s.UpdatedAt = time.Now().UTC()
	s.ExpiresAt = s.UpdatedAt.Add(ttl)
}

// TTL returns the time left before the session expires.
func (s *Session) TTL() time.Duration {
	return time.Until(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by id.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all live sessions, most recently updated first.
	List(ctx context.Context) ([]*Session, error)

	// Close releases backend resources.
	Close() error
}
