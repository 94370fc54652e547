package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/driveguard/driveguard-api/internal/models"
)

func TestAuthEventsDeliveredToAllListeners(t *testing.T) {
	broker := NewAuthEvents()
	var first, second []AuthEvent
	broker.Subscribe(func(e AuthEvent) { first = append(first, e) })
	broker.Subscribe(func(e AuthEvent) { second = append(second, e) })

	broker.Publish(AuthEvent{Action: models.AuditActionLogin, UserID: "p1"})

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.False(t, first[0].At.IsZero())
}

func TestAuthEventsUnsubscribeStopsDelivery(t *testing.T) {
	broker := NewAuthEvents()
	var events []AuthEvent
	unsubscribe := broker.Subscribe(func(e AuthEvent) { events = append(events, e) })

	broker.Publish(AuthEvent{Action: models.AuditActionLogin, UserID: "p1"})
	unsubscribe()
	broker.Publish(AuthEvent{Action: models.AuditActionLogout, UserID: "p1"})

	assert.Len(t, events, 1)
	assert.Equal(t, models.AuditActionLogin, events[0].Action)
}

func TestAuthEventsUnsubscribeIdempotent(t *testing.T) {
	broker := NewAuthEvents()
	calls := 0
	stale := broker.Subscribe(func(AuthEvent) { calls++ })
	kept := 0
	broker.Subscribe(func(AuthEvent) { kept++ })

	stale()
	stale()
	broker.Publish(AuthEvent{Action: models.AuditActionLogin})

	assert.Zero(t, calls)
	assert.Equal(t, 1, kept)
}

func TestAuthEventsUnsubscribeWaitsForInFlightDelivery(t *testing.T) {
	broker := NewAuthEvents()

	started := make(chan struct{})
	release := make(chan struct{})
	var delivered atomic.Int32
	unsubscribe := broker.Subscribe(func(AuthEvent) {
		close(started)
		<-release
		delivered.Add(1)
	})

	go broker.Publish(AuthEvent{Action: models.AuditActionLogin, UserID: "p1"})
	<-started

	done := make(chan struct{})
	go func() {
		unsubscribe()
		close(done)
	}()

	// While the listener is mid-delivery, unsubscribe must not return.
	select {
	case <-done:
		t.Fatal("unsubscribe returned during in-flight delivery")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unsubscribe did not return after delivery completed")
	}

	count := delivered.Load()
	broker.Publish(AuthEvent{Action: models.AuditActionLogout, UserID: "p1"})
	assert.Equal(t, count, delivered.Load())
}

func TestAuthEventsNilListenerIgnored(t *testing.T) {
	broker := NewAuthEvents()
	unsubscribe := broker.Subscribe(nil)
	unsubscribe()
	broker.Publish(AuthEvent{Action: models.AuditActionLogin})
}
