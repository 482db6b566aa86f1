package application

import (
	"context"
	"log/slog"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/sagalog"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/draftea/food-ordering/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultCancelReason = "order cancelled by customer"

// CancelOrderCommand is a customer's cancellation request
type CancelOrderCommand struct {
	OrderTrackingID string `json:"order_tracking_id"`
	Reason          string `json:"reason"`
}

// CancelOrderResponse reports the status the order ended in
type CancelOrderResponse struct {
	OrderTrackingID string             `json:"order_tracking_id"`
	OrderStatus     domain.OrderStatus `json:"order_status"`
	Message         string             `json:"message"`
}

// CancelOrder use case. A PENDING order is cancelled at once, a PAID order
// starts compensation and waits for the refund. In both cases the payment
// context is told through an OrderCancelledEvent.
type CancelOrder struct {
	orderRepository domain.OrderRepository
	domainService   *domain.OrderDomainService
	sagaLog         sagalog.Repository
	locks           *OrderLocks
}

// NewCancelOrder creates a new CancelOrder use case
func NewCancelOrder(
	orderRepository domain.OrderRepository,
	domainService *domain.OrderDomainService,
	sagaLog sagalog.Repository,
	locks *OrderLocks,
) *CancelOrder {
	return &CancelOrder{
		orderRepository: orderRepository,
		domainService:   domainService,
		sagaLog:         sagaLog,
		locks:           locks,
	}
}

// Execute cancels an order
func (uc *CancelOrder) Execute(ctx context.Context, cmd *CancelOrderCommand) (*CancelOrderResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "cancel_order",
		trace.WithAttributes(attribute.String("tracking_id", cmd.OrderTrackingID)),
	)
	defer span.End()

	trackingID, err := models.NewID(cmd.OrderTrackingID)
	if err != nil {
		return nil, invalidCommand("invalid tracking ID")
	}

	reason := cmd.Reason
	if reason == "" {
		reason = defaultCancelReason
	}

	found, err := uc.orderRepository.FindByTrackingID(ctx, trackingID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find order")
	}
	if found == nil {
		return nil, &domain.OrderNotFoundError{Key: trackingID.String()}
	}

	var (
		order          *domain.Order
		cancelledEvent *domain.OrderCancelledEvent
	)
	err = uc.locks.WithLock(found.ID, func() error {
		return retryOnConflict(ctx, found.ID, func() error {
			cancelledEvent = nil

			var err error
			order, err = loadOrder(ctx, uc.orderRepository, found.ID)
			if err != nil {
				return err
			}

			switch order.Status {
			case domain.OrderStatusCancelled:
				slog.InfoContext(ctx, "order is already cancelled", "order_id", order.ID.String())
				return nil
			case domain.OrderStatusPending:
				if err := uc.domainService.CancelOrder(ctx, order, []string{reason}); err != nil {
					return err
				}
				cancelledEvent = domain.NewOrderCancelledEvent(order)
			case domain.OrderStatusPaid:
				cancelledEvent, err = uc.domainService.CancelOrderPayment(ctx, order, []string{reason})
				if err != nil {
					return err
				}
			default:
				return domain.NewOrderDomainError("order %s cannot be cancelled in status %s", order.ID, order.Status)
			}

			if err := uc.orderRepository.Save(ctx, order, cancelledEvent); err != nil {
				return errors.Wrap(err, "failed to save order")
			}
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if cancelledEvent != nil {
		appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, order.ID.String(), sagalog.OrderSaga,
			sagalog.StatusCompensating, "cancel_order", string(order.Status), []string{reason}))
	}

	return &CancelOrderResponse{
		OrderTrackingID: order.TrackingID.String(),
		OrderStatus:     order.Status,
		Message:         "Order cancellation accepted",
	}, nil
}
