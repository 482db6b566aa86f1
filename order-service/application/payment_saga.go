package application

import (
	"context"
	"log/slog"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/saga"
	"github.com/pkg/errors"
)

var _ saga.Step[PaymentResponse, *domain.OrderPaidEvent, saga.EmptyEvent] = (*OrderPaymentSaga)(nil)

// OrderPaymentSaga applies payment context responses to orders.
//
// Process handles a completed charge. Rollback handles both a rejected charge
// (the order is still PENDING and is cancelled directly) and a confirmed
// refund (the order is CANCELLING and compensation ends).
type OrderPaymentSaga struct {
	orderRepository domain.OrderRepository
	domainService   *domain.OrderDomainService
	locks           *OrderLocks
}

// NewOrderPaymentSaga creates a new OrderPaymentSaga
func NewOrderPaymentSaga(orderRepository domain.OrderRepository, domainService *domain.OrderDomainService, locks *OrderLocks) *OrderPaymentSaga {
	return &OrderPaymentSaga{
		orderRepository: orderRepository,
		domainService:   domainService,
		locks:           locks,
	}
}

// Process marks the order as paid and stores the OrderPaidEvent with it. It
// returns nil when the payment had already been applied.
func (s *OrderPaymentSaga) Process(ctx context.Context, response PaymentResponse) (*domain.OrderPaidEvent, error) {
	slog.InfoContext(ctx, "completing payment for order", "order_id", response.OrderID.String())

	var paidEvent *domain.OrderPaidEvent
	err := s.locks.WithLock(response.OrderID, func() error {
		return retryOnConflict(ctx, response.OrderID, func() error {
			paidEvent = nil

			order, err := loadOrder(ctx, s.orderRepository, response.OrderID)
			if err != nil {
				return err
			}

			if order.Status != domain.OrderStatusPending {
				slog.InfoContext(ctx, "payment already applied, skipping",
					"order_id", order.ID.String(),
					"order_status", string(order.Status),
				)
				return nil
			}

			event, err := s.domainService.PayOrder(ctx, order)
			if err != nil {
				return err
			}

			if err := s.orderRepository.Save(ctx, order, event); err != nil {
				return errors.Wrap(err, "failed to save order")
			}

			paidEvent = event
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return paidEvent, nil
}

// Rollback cancels the order after a failed charge or a completed refund
func (s *OrderPaymentSaga) Rollback(ctx context.Context, response PaymentResponse) (saga.EmptyEvent, error) {
	slog.InfoContext(ctx, "cancelling order after payment response",
		"order_id", response.OrderID.String(),
		"payment_status", string(response.Status),
	)

	err := s.locks.WithLock(response.OrderID, func() error {
		return retryOnConflict(ctx, response.OrderID, func() error {
			order, err := loadOrder(ctx, s.orderRepository, response.OrderID)
			if err != nil {
				return err
			}

			switch order.Status {
			case domain.OrderStatusCancelled:
				slog.InfoContext(ctx, "order already cancelled, skipping", "order_id", order.ID.String())
				return nil
			case domain.OrderStatusPending, domain.OrderStatusCancelling:
			default:
				return domain.NewOrderDomainError("order %s is in status %s and cannot be cancelled by payment", order.ID, order.Status)
			}

			if err := s.domainService.CancelOrder(ctx, order, response.FailureMessages); err != nil {
				return err
			}

			if err := s.orderRepository.Save(ctx, order); err != nil {
				return errors.Wrap(err, "failed to save order")
			}
			return nil
		})
	})

	return saga.EmptyEvent{}, err
}
