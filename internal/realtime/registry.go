package realtime

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

// Subscriber is one connected realtime listener.
type Subscriber interface {
	ID() string
	Send(msg []byte) error
	Close()
}

const defaultFanout = 32

// Registry owns the set of connected subscribers. Every method is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	fanout int
	log    *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		subs:   make(map[string]Subscriber),
		fanout: defaultFanout,
		log:    log.With("component", "SubscriberRegistry"),
	}
}

// Register adds sub. Registering the same connection twice is a no-op and
// returns false.
func (r *Registry) Register(sub Subscriber) bool {
	if sub == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.ID()]; ok {
		return false
	}
	r.subs[sub.ID()] = sub
	r.log.Debug("subscriber registered", "subscriber_id", sub.ID(), "subscribers", len(r.subs))
	return true
}

// Unregister removes sub and closes it. Calling it for a subscriber that is
// already gone does nothing.
func (r *Registry) Unregister(sub Subscriber) {
	if sub == nil {
		return
	}
	r.mu.Lock()
	cur, ok := r.subs[sub.ID()]
	if ok && cur == sub {
		delete(r.subs, sub.ID())
	}
	remaining := len(r.subs)
	r.mu.Unlock()

	if ok && cur == sub {
		sub.Close()
		r.log.Debug("subscriber unregistered", "subscriber_id", sub.ID(), "subscribers", remaining)
	}
}

// Broadcast sends msg to every registered subscriber and returns how many
// accepted it. Sends run independently; a subscriber whose send fails is
// unregistered.
func (r *Registry) Broadcast(msg []byte) int {
	r.mu.RLock()
	targets := make([]Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		targets = append(targets, s)
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	var (
		mu        sync.Mutex
		delivered int
		failed    []Subscriber
	)
	var g errgroup.Group
	g.SetLimit(r.fanout)
	for _, s := range targets {
		s := s
		g.Go(func() error {
			if err := s.Send(msg); err != nil {
				r.log.Warn("subscriber send failed; disconnecting", "subscriber_id", s.ID(), "error", err)
				mu.Lock()
				failed = append(failed, s)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			delivered++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, s := range failed {
		r.Unregister(s)
	}
	return delivered
}

// Deliver lets the registry act as the local dispatch sink.
func (r *Registry) Deliver(_ context.Context, msg []byte) error {
	r.Broadcast(msg)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Close disconnects every subscriber.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[string]Subscriber)
	r.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}
