package pubsub

import "context"

// Fan-out for recomputed stats patches; consumers are websocket gateways and
// downstream caches
type Broadcaster interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Health(ctx context.Context) error
}
