// Package session keeps per-conversation routing state and in-progress dialog
// state. Everything here is transient by contract: values are fetched and
// saved explicitly on every turn so that turns for one conversation may be
// processed on different worker instances. Durable profile rows live in the
// database, not here.
package session

import "context"

// Store is a minimal key-value contract over opaque JSON values.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

const (
	dialogKeyPrefix = "dialogstate:"
	flagsKeyPrefix  = "sessionflags:"
)

// DialogKey returns the store key holding waterfall progress for a conversation.
func DialogKey(conversationID string) string {
	return dialogKeyPrefix + conversationID
}

// FlagsKey returns the store key holding routing flags for a conversation.
func FlagsKey(conversationID string) string {
	return flagsKeyPrefix + conversationID
}
