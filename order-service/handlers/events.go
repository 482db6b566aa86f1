package handlers

import (
	"context"
	"log/slog"

	"github.com/draftea/food-ordering/order-service/application"
	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/events"
	"github.com/draftea/food-ordering/shared/saga"
)

// OrderEventHandlers handles the payment and restaurant replies that drive the order saga
type OrderEventHandlers struct {
	processPaymentResponse  *application.ProcessPaymentResponse
	processApprovalResponse *application.ProcessApprovalResponse
}

// NewOrderEventHandlers creates new order event handlers
func NewOrderEventHandlers(
	processPaymentResponse *application.ProcessPaymentResponse,
	processApprovalResponse *application.ProcessApprovalResponse,
) *OrderEventHandlers {
	return &OrderEventHandlers{
		processPaymentResponse:  processPaymentResponse,
		processApprovalResponse: processApprovalResponse,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *OrderEventHandlers) HandlerID() string {
	return "order-service-event-handler"
}

// Handle implements the events.EventHandler interface
func (h *OrderEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.PaymentResponseTopic:
		return h.HandlePaymentResponse(ctx, event)
	case events.RestaurantApprovalResponseTopic:
		return h.HandleApprovalResponse(ctx, event)
	default:
		return nil
	}
}

// RegisterRoutes subscribes the handlers to their topics
func (h *OrderEventHandlers) RegisterRoutes(router *saga.EventRouter) {
	router.RegisterHandler(events.PaymentResponseTopic, eventHandlerFunc(h.HandlePaymentResponse))
	router.RegisterHandler(events.RestaurantApprovalResponseTopic, eventHandlerFunc(h.HandleApprovalResponse))
}

// HandlePaymentResponse handles payment service replies
func (h *OrderEventHandlers) HandlePaymentResponse(ctx context.Context, event *events.Event) error {
	var response application.PaymentResponse
	if err := event.UnmarshalPayload(&response); err != nil {
		return h.reject(ctx, event, err)
	}

	return h.settle(ctx, event, h.processPaymentResponse.Execute(ctx, &response))
}

// HandleApprovalResponse handles restaurant approval replies
func (h *OrderEventHandlers) HandleApprovalResponse(ctx context.Context, event *events.Event) error {
	var response application.ApprovalResponse
	if err := event.UnmarshalPayload(&response); err != nil {
		return h.reject(ctx, event, err)
	}

	return h.settle(ctx, event, h.processApprovalResponse.Execute(ctx, &response))
}

// settle decides whether a failed message is acked or redelivered. Business
// rejections and unknown orders will fail the same way every time.
func (h *OrderEventHandlers) settle(ctx context.Context, event *events.Event, err error) error {
	if err == nil {
		return nil
	}

	if domain.IsDomainError(err) || domain.IsNotFound(err) || application.IsInvalidCommand(err) {
		return h.reject(ctx, event, err)
	}

	return err
}

func (h *OrderEventHandlers) reject(ctx context.Context, event *events.Event, err error) error {
	slog.WarnContext(ctx, "discarding saga message",
		"topic", event.Topic.String(),
		"event_id", event.ID.String(),
		"error", err,
	)
	return nil
}

type eventHandlerFunc func(ctx context.Context, event *events.Event) error

func (f eventHandlerFunc) Handle(ctx context.Context, event *events.Event) error {
	return f(ctx, event)
}
