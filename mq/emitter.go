package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"keyboardquipo/models"

	"github.com/redis/go-redis/v9"
)

// BookingChannel is the pub/sub channel carrying booking events.
const BookingChannel = "booking-events"

// Bus publishes booking events and delivers them to listeners.
type Bus interface {
	Emit(ctx context.Context, ev models.Event)
	// Listen blocks, calling fn for each event until ctx is done.
	Listen(ctx context.Context, fn func(models.Event)) error
}

// RedisBus fans events out through Redis so every instance's listeners see them.
type RedisBus struct {
	Conn    *redis.Client
	Channel string
}

func NewRedisBus(conn *redis.Client) *RedisBus {
	return &RedisBus{Conn: conn, Channel: BookingChannel}
}

// Emit publishes ev; failures are logged, not returned, since events are best-effort.
func (b *RedisBus) Emit(ctx context.Context, ev models.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Emit] Failed to marshal event: %v", err)
		return
	}
	if err := b.Conn.Publish(ctx, b.Channel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s for booking %s: %v", ev.Type, ev.BookingID, err)
	}
}

func (b *RedisBus) Listen(ctx context.Context, fn func(models.Event)) error {
	sub := b.Conn.Subscribe(ctx, b.Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.Channel, err)
	}
	log.Printf("[BookingEvents] Listening on %s", b.Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[BookingEvents] Failed to parse event: %v", err)
				continue
			}
			fn(ev)
		}
	}
}

// LocalBus delivers events in-process; used when Redis is not configured.
type LocalBus struct {
	mu        sync.RWMutex
	listeners map[int]func(models.Event)
	next      int
}

func NewLocalBus() *LocalBus {
	return &LocalBus{listeners: make(map[int]func(models.Event))}
}

func (b *LocalBus) Emit(_ context.Context, ev models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.listeners {
		fn(ev)
	}
}

func (b *LocalBus) Listen(ctx context.Context, fn func(models.Event)) error {
	b.mu.Lock()
	id := b.next
	b.next++
	b.listeners[id] = fn
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.listeners, id)
	b.mu.Unlock()
	return nil
}
