package notify

import (
	"encoding/json"
	"fmt"

	"campusbites/internal/config"
	"campusbites/internal/logger"
	"campusbites/internal/models"
	"campusbites/internal/sse"
)

// Notifier is the outbound push channel of the core. Every call is
// fire-and-forget: a failed notification is logged and never fails the
// operation that triggered it.
type Notifier interface {
	NotifyNewOrder(outletID string, order models.Order, items []models.OrderItem)
	NotifyOrderStatusUpdate(userID, orderID string, status models.OrderStatus)
	NotifyChillChange(outletID string, active bool)
	NotifyRewardClaim(claim models.RewardClaim)
}

type Publisher interface {
	Publish(topic, key string, value []byte) error
}

// Service fans notifications out to connected SSE clients and to Kafka.
// The SSE registry is process-local; Kafka carries the events to other
// consumers (push gateways, analytics).
type Service struct {
	Emitter  *sse.OrderEventEmitter
	Producer Publisher
	Topics   config.TopicConfig
	Logger   *logger.Logger
}

func NewService(emitter *sse.OrderEventEmitter, producer Publisher, topics config.TopicConfig, log *logger.Logger) *Service {
	return &Service{Emitter: emitter, Producer: producer, Topics: topics, Logger: log}
}

func (s *Service) NotifyNewOrder(outletID string, order models.Order, items []models.OrderItem) {
	s.Emitter.EmitOrderEvent(sse.OrderEvent{Order: order, Items: items, Status: order.Status})
	s.publish(s.Topics.OrderCreated, order.ID, sse.OrderEvent{Order: order, Items: items, Status: order.Status})
}

func (s *Service) NotifyOrderStatusUpdate(userID, orderID string, status models.OrderStatus) {
	ev := sse.OrderEvent{
		Order:  models.Order{ID: orderID, UserID: userID, Status: status},
		Status: status,
	}
	s.Emitter.EmitOrderEvent(ev)
	s.publish(s.Topics.OrderStatus, orderID, ev)
}

func (s *Service) NotifyChillChange(outletID string, active bool) {
	s.publish(s.Topics.OutletChill, outletID, map[string]interface{}{
		"outlet_id": outletID,
		"active":    active,
	})
}

func (s *Service) NotifyRewardClaim(claim models.RewardClaim) {
	s.publish(s.Topics.RewardClaimed, claim.UserID, claim)
}

func (s *Service) publish(topic, key string, payload interface{}) {
	if s.Producer == nil {
		return
	}
	value, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Error("NOTIFY", fmt.Sprintf("failed to marshal event for %s: %v", topic, err))
		return
	}
	if err := s.Producer.Publish(topic, key, value); err != nil {
		s.Logger.Error("NOTIFY", fmt.Sprintf("kafka publish failed for %s: %v", topic, err))
	}
}
