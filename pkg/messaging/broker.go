// Package messaging carries change notifications between API instances.
package messaging

import (
	"context"
)

// Broker is a fire-and-forget pub/sub transport. Delivery is at most once: a subscriber that
// misses a message catches up on its next refetch.
type Broker interface {
	// Publish JSON-encodes message onto channel.
	Publish(ctx context.Context, channel string, message interface{}) error
	// Subscribe streams raw payloads until ctx ends or the broker closes.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
