package analytics

import "context"

// Store persists consumed events. Implementations must tolerate redelivery.
type Store interface {
	SaveURLCreated(ctx context.Context, event *URLCreatedEvent) error
	SaveURLAccessed(ctx context.Context, event *URLAccessedEvent) error
}
