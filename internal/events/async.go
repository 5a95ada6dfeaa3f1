package events

import (
	"context"
	"sync"
	"sync/atomic"
)

// Async decouples a slow Sink from the goroutines publishing to it. Events are
// queued in a buffered channel and delivered by a single goroutine; when the
// buffer is full the event is dropped rather than stalling the publisher.
type Async struct {
	sink    Sink
	queue   chan asyncItem
	dropped atomic.Int64
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

type asyncItem struct {
	ctx context.Context
	e   Event
}

// NewAsync starts the delivery goroutine. Close must be called to stop it.
func NewAsync(sink Sink, buffer int) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	a := &Async{
		sink:  sink,
		queue: make(chan asyncItem, buffer),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for item := range a.queue {
		a.sink.Publish(item.ctx, item.e)
	}
}

// Publish enqueues e without blocking. Events published after Close are
// counted as dropped.
func (a *Async) Publish(ctx context.Context, e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return
	}

	// Delivery happens after the publisher may have returned and cancelled
	// its context, so only the values are kept.
	ctx = context.WithoutCancel(ctx)
	select {
	case a.queue <- asyncItem{ctx: ctx, e: e}:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of events lost to a full buffer or a closed sink.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting events and waits until the queued ones are delivered.
// It is safe to call more than once.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
