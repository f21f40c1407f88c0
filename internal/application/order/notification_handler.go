package order

import (
	"context"
	"fmt"

	"github.com/agrofamilia/backend/internal/domain/order"
	"github.com/agrofamilia/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderNotification represents a notification about an order lifecycle change
type OrderNotification struct {
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	Kind       string `json:"kind"` // "placed", "status_changed", "cancelled"
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
}

// OrderNotifier is the interface for delivering order notifications.
// Implementations can support different channels (in-app, email, push).
type OrderNotifier interface {
	Notify(ctx context.Context, notification OrderNotification) error
}

// NotificationHandler turns order lifecycle events into user notifications
type NotificationHandler struct {
	logger   *zap.Logger
	notifier OrderNotifier
}

// NewNotificationHandler creates a new handler for order lifecycle events
func NewNotificationHandler(logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{logger: logger}
}

// WithNotifier sets the notifier used for delivery
func (h *NotificationHandler) WithNotifier(notifier OrderNotifier) *NotificationHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		order.EventTypeOrderPlaced,
		order.EventTypeOrderStatusChanged,
		order.EventTypeOrderCancelled,
	}
}

// Handle processes an order lifecycle event
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	notification, err := h.toNotification(event)
	if err != nil {
		h.logger.Error("unexpected event type",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("order notification",
		zap.String("order_id", notification.OrderID),
		zap.String("user_id", notification.UserID),
		zap.String("kind", notification.Kind),
		zap.String("from_status", notification.FromStatus),
		zap.String("to_status", notification.ToStatus),
	)

	if h.notifier == nil {
		return nil
	}
	return h.notifier.Notify(ctx, notification)
}

func (h *NotificationHandler) toNotification(event shared.DomainEvent) (OrderNotification, error) {
	switch e := event.(type) {
	case *order.OrderPlacedEvent:
		return OrderNotification{
			OrderID: e.AggregateID().String(),
			UserID:  e.UserID.String(),
			Kind:    "placed",
		}, nil
	case *order.OrderStatusChangedEvent:
		return OrderNotification{
			OrderID:    e.AggregateID().String(),
			UserID:     e.UserID.String(),
			Kind:       "status_changed",
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
		}, nil
	case *order.OrderCancelledEvent:
		return OrderNotification{
			OrderID:    e.AggregateID().String(),
			UserID:     e.UserID.String(),
			Kind:       "cancelled",
			FromStatus: string(e.FromStatus),
		}, nil
	default:
		return OrderNotification{}, fmt.Errorf("unexpected event type %s", event.EventType())
	}
}
