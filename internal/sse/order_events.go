package sse

import (
	"context"
	"sync"

	"campusbites/internal/models"
)

// OrderEvent is what flows to connected clients: the order, optionally its
// items (new-order events), and the status it just moved to.
type OrderEvent struct {
	Order  models.Order       `json:"order"`
	Items  []models.OrderItem `json:"items,omitempty"`
	Status models.OrderStatus `json:"status"`
}

// OrderEventEmitter fans order events out to SSE subscribers. Outlet owners
// subscribe by outlet to watch incoming orders; students subscribe by user
// to watch their own status changes. The registry is process-local and
// rebuilt on restart; events are best-effort and never persisted.
type OrderEventEmitter struct {
	outletClients     map[string][]chan OrderEvent
	outletClientMutex sync.RWMutex

	userClients     map[string][]chan OrderEvent
	userClientMutex sync.RWMutex
}

func NewOrderEventEmitter() *OrderEventEmitter {
	return &OrderEventEmitter{
		outletClients: make(map[string][]chan OrderEvent),
		userClients:   make(map[string][]chan OrderEvent),
	}
}

// SubscribeToOutlet adds a client to the outlet's incoming-order feed.
// The subscription is removed when ctx is done.
func (e *OrderEventEmitter) SubscribeToOutlet(ctx context.Context, outletID string) chan OrderEvent {
	clientChan := make(chan OrderEvent, 10)

	e.outletClientMutex.Lock()
	e.outletClients[outletID] = append(e.outletClients[outletID], clientChan)
	e.outletClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeOutletClient(outletID, clientChan)
	}()

	return clientChan
}

// SubscribeToUser adds a client to the user's order-status feed.
func (e *OrderEventEmitter) SubscribeToUser(ctx context.Context, userID string) chan OrderEvent {
	clientChan := make(chan OrderEvent, 10)

	e.userClientMutex.Lock()
	e.userClients[userID] = append(e.userClients[userID], clientChan)
	e.userClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeUserClient(userID, clientChan)
	}()

	return clientChan
}

// EmitOrderEvent broadcasts to the order's outlet and owning user.
func (e *OrderEventEmitter) EmitOrderEvent(ev OrderEvent) {
	e.outletClientMutex.RLock()
	outletChans := e.outletClients[ev.Order.OutletID]
	e.outletClientMutex.RUnlock()

	for _, clientChan := range outletChans {
		// Non-blocking send so a slow client never stalls the emitter.
		select {
		case clientChan <- ev:
		default:
		}
	}

	e.userClientMutex.RLock()
	userChans := e.userClients[ev.Order.UserID]
	e.userClientMutex.RUnlock()

	for _, clientChan := range userChans {
		select {
		case clientChan <- ev:
		default:
		}
	}
}

func (e *OrderEventEmitter) removeOutletClient(outletID string, clientChan chan OrderEvent) {
	e.outletClientMutex.Lock()
	defer e.outletClientMutex.Unlock()

	clients := e.outletClients[outletID]
	for i, c := range clients {
		if c == clientChan {
			e.outletClients[outletID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.outletClients[outletID]) == 0 {
		delete(e.outletClients, outletID)
	}
}

func (e *OrderEventEmitter) removeUserClient(userID string, clientChan chan OrderEvent) {
	e.userClientMutex.Lock()
	defer e.userClientMutex.Unlock()

	clients := e.userClients[userID]
	for i, c := range clients {
		if c == clientChan {
			e.userClients[userID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}
	if len(e.userClients[userID]) == 0 {
		delete(e.userClients, userID)
	}
}
