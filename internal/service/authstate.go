package service

import (
	"sync"
	"time"

	"github.com/driveguard/driveguard-api/internal/models"
)

// AuthEvent describes one auth state transition delivered to subscribers.
type AuthEvent struct {
	Action models.AuditAction
	UserID string
	Email  string
	At     time.Time
}

// AuthEventListener receives auth events. Listeners must not block and must
// not subscribe or unsubscribe from inside the callback.
type AuthEventListener func(AuthEvent)

// AuthEvents is an in-process broker for auth state changes. Each published
// event is delivered exactly once to every listener registered at publish
// time. Unsubscribe is idempotent and blocks until any in-flight delivery to
// the listener completes, so once it returns the listener is never invoked
// again.
type AuthEvents struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]AuthEventListener
}

// NewAuthEvents constructs an empty broker.
func NewAuthEvents() *AuthEvents {
	return &AuthEvents{listeners: make(map[int]AuthEventListener)}
}

// Subscribe registers a listener and returns its unsubscribe function.
func (b *AuthEvents) Subscribe(fn AuthEventListener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers the event to all current listeners. Delivery happens under
// a read lock so a concurrent unsubscribe cannot return mid-delivery.
func (b *AuthEvents) Publish(event AuthEvent) {
	if b == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.listeners {
		fn(event)
	}
}
