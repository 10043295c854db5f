package bus

import "context"

// Bus fans serialized change events out to every API process.
type Bus interface {
	Publish(ctx context.Context, msg []byte) error
	// Deliver lets a Bus stand in as a realtime.Sink.
	Deliver(ctx context.Context, msg []byte) error
	StartForwarder(ctx context.Context, onMsg func(msg []byte)) error
	Close() error
}
