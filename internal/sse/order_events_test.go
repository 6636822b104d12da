package sse

import (
	"context"
	"testing"
	"time"

	"campusbites/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(outletID, userID string, status models.OrderStatus) OrderEvent {
	return OrderEvent{
		Order: models.Order{
			ID:       "order-1",
			OutletID: outletID,
			UserID:   userID,
			Status:   status,
		},
		Status: status,
	}
}

func TestEmitReachesOutletAndUserSubscribers(t *testing.T) {
	emitter := NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outletChan := emitter.SubscribeToOutlet(ctx, "outlet-1")
	userChan := emitter.SubscribeToUser(ctx, "user-1")

	emitter.EmitOrderEvent(testEvent("outlet-1", "user-1", models.StatusPending))

	select {
	case ev := <-outletChan:
		assert.Equal(t, "order-1", ev.Order.ID)
	case <-time.After(time.Second):
		t.Fatal("outlet subscriber did not receive event")
	}

	select {
	case ev := <-userChan:
		assert.Equal(t, models.StatusPending, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("user subscriber did not receive event")
	}
}

func TestEmitSkipsUnrelatedSubscribers(t *testing.T) {
	emitter := NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otherChan := emitter.SubscribeToOutlet(ctx, "outlet-2")

	emitter.EmitOrderEvent(testEvent("outlet-1", "user-1", models.StatusReady))

	select {
	case <-otherChan:
		t.Fatal("subscriber for a different outlet received the event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscriptionRemovedOnContextCancel(t *testing.T) {
	emitter := NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := emitter.SubscribeToUser(ctx, "user-1")
	cancel()

	// Channel is closed once the removal goroutine runs.
	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// Emitting afterwards must not panic.
	emitter.EmitOrderEvent(testEvent("outlet-1", "user-1", models.StatusReady))
}

func TestSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	emitter := NewOrderEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	emitter.SubscribeToOutlet(ctx, "outlet-1")

	done := make(chan struct{})
	go func() {
		// Fill well past the channel buffer without anyone reading.
		for i := 0; i < 100; i++ {
			emitter.EmitOrderEvent(testEvent("outlet-1", "user-1", models.StatusPending))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked on a slow subscriber")
	}
}
