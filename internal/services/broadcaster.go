package services

import (
	"context"
	"time"

	"github.com/yungbote/catalog-backend/internal/platform/ctxutil"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime"
)

// Broadcaster turns completed mutations into change events. Publish never
// blocks on subscribers and never fails the caller.
type Broadcaster interface {
	Publish(ctx context.Context, entity string, op realtime.Operation, payload any)
}

// Enqueuer accepts serialized events for asynchronous delivery.
type Enqueuer interface {
	Enqueue(msg []byte) bool
}

type changeBroadcaster struct {
	log *logger.Logger
	out Enqueuer
	now func() time.Time
}

func NewBroadcaster(log *logger.Logger, out Enqueuer) Broadcaster {
	return &changeBroadcaster{
		log: log.With("service", "ChangeBroadcaster"),
		out: out,
		now: time.Now,
	}
}

func (b *changeBroadcaster) Publish(ctx context.Context, entity string, op realtime.Operation, payload any) {
	if b == nil || b.out == nil {
		return
	}
	fields := append([]interface{}{"entity", entity, "type", op}, ctxutil.LogFields(ctx)...)
	if !op.Valid() {
		b.log.Error("unknown change operation; dropping", fields...)
		return
	}

	raw, err := realtime.NewChangeEvent(entity, op, payload, b.now()).Marshal()
	if err != nil {
		b.log.Error("change event serialization failed; dropping", append(fields, "error", err)...)
		return
	}
	if !b.out.Enqueue(raw) {
		b.log.Warn("change event not queued; dropping", fields...)
		return
	}
	b.log.Debug("change event queued", fields...)
}

// NopBroadcaster discards every event.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(context.Context, string, realtime.Operation, any) {}
