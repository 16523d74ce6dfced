// Package storage defines the persistent key-value port used for the toggle
// cache and the session id, together with the built-in implementations.
package storage

import "context"

// Keys the client persists under.
const (
	KeyRepository = "repo"
	KeySessionID  = "sessionId"
)

// Store is the persistence port. Get reports found=false for absent keys;
// durability is best-effort and callers must tolerate Save failures.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Save(ctx context.Context, key string, value []byte) error
}
