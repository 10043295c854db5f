package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/realtime"
	"github.com/yungbote/catalog-backend/internal/realtime/bus"
)

// Realtime groups the subscriber registry and the dispatchers feeding it.
// Without Redis, Outbound delivers straight to the registry. With Redis,
// Outbound publishes to the bus and Inbound delivers what the bus forwards.
type Realtime struct {
	Registry *realtime.Registry
	Outbound *realtime.Dispatcher
	Inbound  *realtime.Dispatcher
	Bus      bus.Bus
	WS       *realtime.WSEndpoint
	SSE      *realtime.SSEEndpoint
}

func wireRealtime(log *logger.Logger, cfg Config) (Realtime, error) {
	log.Info("Wiring realtime...")
	reg := realtime.NewRegistry(log)
	rt := Realtime{
		Registry: reg,
		WS:       realtime.NewWSEndpoint(log, reg, cfg.SubscriberBuffer),
		SSE:      realtime.NewSSEEndpoint(log, reg, cfg.SubscriberBuffer),
	}

	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		rt.Outbound = realtime.NewDispatcher(log, reg, cfg.BroadcastQueueSize, cfg.BroadcastWorkers)
		return rt, nil
	}

	b, err := bus.NewRedisBus(log, cfg.Redis)
	if err != nil {
		return Realtime{}, fmt.Errorf("init redis bus: %w", err)
	}
	rt.Bus = b
	rt.Outbound = realtime.NewDispatcher(log.With("direction", "outbound"), b, cfg.BroadcastQueueSize, cfg.BroadcastWorkers)
	rt.Inbound = realtime.NewDispatcher(log.With("direction", "inbound"), reg, cfg.BroadcastQueueSize, cfg.BroadcastWorkers)
	return rt, nil
}

// Start launches the dispatchers and, with Redis, the bus forwarder.
func (rt Realtime) Start(ctx context.Context) error {
	rt.Outbound.Start(ctx)
	if rt.Inbound != nil {
		rt.Inbound.Start(ctx)
	}
	if rt.Bus != nil {
		return rt.Bus.StartForwarder(ctx, func(msg []byte) {
			rt.Inbound.Enqueue(msg)
		})
	}
	return nil
}

// Stop flushes queued events, then disconnects every subscriber.
func (rt Realtime) Stop() {
	rt.Outbound.Stop()
	if rt.Inbound != nil {
		rt.Inbound.Stop()
	}
	rt.Registry.Close()
	if rt.Bus != nil {
		_ = rt.Bus.Close()
	}
}
