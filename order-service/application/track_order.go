package application

import (
	"context"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/draftea/food-ordering/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TrackOrderQuery looks an order up by its tracking id
type TrackOrderQuery struct {
	OrderTrackingID string `json:"order_tracking_id"`
}

// TrackOrderResponse is the status snapshot returned to customers
type TrackOrderResponse struct {
	OrderTrackingID string             `json:"order_tracking_id"`
	OrderStatus     domain.OrderStatus `json:"order_status"`
	FailureMessages []string           `json:"failure_messages"`
}

// TrackOrder use case
type TrackOrder struct {
	orderRepository domain.OrderRepository
}

// NewTrackOrder creates a new TrackOrder use case
func NewTrackOrder(orderRepository domain.OrderRepository) *TrackOrder {
	return &TrackOrder{orderRepository: orderRepository}
}

// Execute returns the current status of an order
func (uc *TrackOrder) Execute(ctx context.Context, query *TrackOrderQuery) (*TrackOrderResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "track_order",
		trace.WithAttributes(attribute.String("tracking_id", query.OrderTrackingID)),
	)
	defer span.End()

	trackingID, err := models.NewID(query.OrderTrackingID)
	if err != nil {
		return nil, invalidCommand("invalid tracking ID")
	}

	order, err := uc.orderRepository.FindByTrackingID(ctx, trackingID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, &domain.OrderNotFoundError{Key: trackingID.String()}
	}

	failureMessages := order.FailureMessages
	if failureMessages == nil {
		failureMessages = []string{}
	}

	return &TrackOrderResponse{
		OrderTrackingID: order.TrackingID.String(),
		OrderStatus:     order.Status,
		FailureMessages: failureMessages,
	}, nil
}
