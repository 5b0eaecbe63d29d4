// Package kvstore is the small persistence port behind the cart handle and
// the session token records. Implementations only need string get/set/delete;
// expiry of what they hold is discovered by the callers, not tracked here.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound reports an absent key.
var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
