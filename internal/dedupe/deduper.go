package dedupe

import "context"

// Guard against at-least-once redelivery. Handlers are idempotent regardless;
// skipping a seen log id just makes redelivered batches cheap. Seen only
// checks; the caller records the id with Mark once the event was actually
// applied, so a failed handler stays eligible for redelivery.
type Deduper interface {
	// Seen returns true when id was recorded inside the TTL window
	Seen(ctx context.Context, id string) (bool, error)
	// Mark records id for the TTL window
	Mark(ctx context.Context, id string) error
}
