package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/agencyledger-backend/internal/realtime"
)

// MemoryBus delivers events in-process. Used when REDIS_ADDR is unset and in tests.
type MemoryBus struct {
	mu        sync.RWMutex
	closed    bool
	published []realtime.Event
	handlers  []func(realtime.Event)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

func (b *MemoryBus) Publish(ctx context.Context, ev realtime.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("event bus closed")
	}
	b.published = append(b.published, ev)
	handlers := append([]func(realtime.Event){}, b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *MemoryBus) StartForwarder(ctx context.Context, onEvent func(ev realtime.Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("event bus closed")
	}
	b.handlers = append(b.handlers, func(ev realtime.Event) {
		if ctx.Err() == nil {
			onEvent(ev)
		}
	})
	return nil
}

// Published returns a copy of every event seen so far.
func (b *MemoryBus) Published() []realtime.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]realtime.Event(nil), b.published...)
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.handlers = nil
	b.mu.Unlock()
	return nil
}
