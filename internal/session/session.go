// Package session holds server-side login sessions and the set of users who
// have explicitly logged out. Both are owned by the auth service; nothing
// else should read or write them directly.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session maps an opaque identifier to an authenticated user.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Get returns ErrSessionNotFound for unknown or
// expired ids. Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, userID uint64, ttl time.Duration) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Destroy(ctx context.Context, id string) error
	List(ctx context.Context) ([]Session, error)
	Clear(ctx context.Context) (int, error)
	Close() error
}

// TombstoneSet records users who logged out. A tombstoned user cannot be
// resolved from any session until a fresh login removes the tombstone.
type TombstoneSet interface {
	Add(ctx context.Context, userID uint64) error
	Remove(ctx context.Context, userID uint64) error
	Contains(ctx context.Context, userID uint64) (bool, error)
	Clear(ctx context.Context) error
}
