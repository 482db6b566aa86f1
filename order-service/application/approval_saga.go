package application

import (
	"context"
	"log/slog"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/shared/saga"
	"github.com/pkg/errors"
)

var _ saga.Step[ApprovalResponse, *domain.OrderApprovedEvent, *domain.OrderCancelledEvent] = (*OrderApprovalSaga)(nil)

// OrderApprovalSaga applies restaurant approval responses to orders
type OrderApprovalSaga struct {
	orderRepository domain.OrderRepository
	domainService   *domain.OrderDomainService
	locks           *OrderLocks
}

// NewOrderApprovalSaga creates a new OrderApprovalSaga
func NewOrderApprovalSaga(orderRepository domain.OrderRepository, domainService *domain.OrderDomainService, locks *OrderLocks) *OrderApprovalSaga {
	return &OrderApprovalSaga{
		orderRepository: orderRepository,
		domainService:   domainService,
		locks:           locks,
	}
}

// Process approves a paid order. It returns nil when the order was already
// approved.
func (s *OrderApprovalSaga) Process(ctx context.Context, response ApprovalResponse) (*domain.OrderApprovedEvent, error) {
	slog.InfoContext(ctx, "approving order", "order_id", response.OrderID.String())

	var approvedEvent *domain.OrderApprovedEvent
	err := s.locks.WithLock(response.OrderID, func() error {
		return retryOnConflict(ctx, response.OrderID, func() error {
			approvedEvent = nil

			order, err := loadOrder(ctx, s.orderRepository, response.OrderID)
			if err != nil {
				return err
			}

			if order.Status == domain.OrderStatusApproved {
				slog.InfoContext(ctx, "order already approved, skipping", "order_id", order.ID.String())
				return nil
			}

			if err := s.domainService.ApproveOrder(ctx, order); err != nil {
				return err
			}

			event := domain.NewOrderApprovedEvent(order)
			if err := s.orderRepository.Save(ctx, order, event); err != nil {
				return errors.Wrap(err, "failed to save order")
			}

			approvedEvent = event
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return approvedEvent, nil
}

// Rollback starts compensating a paid order the restaurant rejected. The
// returned event asks the payment context for a refund; the refund reply
// finishes the cancellation through OrderPaymentSaga.Rollback. It returns
// nil when compensation had already started.
func (s *OrderApprovalSaga) Rollback(ctx context.Context, response ApprovalResponse) (*domain.OrderCancelledEvent, error) {
	slog.InfoContext(ctx, "cancelling order after restaurant rejection", "order_id", response.OrderID.String())

	var cancelledEvent *domain.OrderCancelledEvent
	err := s.locks.WithLock(response.OrderID, func() error {
		return retryOnConflict(ctx, response.OrderID, func() error {
			cancelledEvent = nil

			order, err := loadOrder(ctx, s.orderRepository, response.OrderID)
			if err != nil {
				return err
			}

			if order.Status == domain.OrderStatusCancelling || order.Status == domain.OrderStatusCancelled {
				slog.InfoContext(ctx, "order already compensating, skipping",
					"order_id", order.ID.String(),
					"order_status", string(order.Status),
				)
				return nil
			}

			event, err := s.domainService.CancelOrderPayment(ctx, order, response.FailureMessages)
			if err != nil {
				return err
			}

			if err := s.orderRepository.Save(ctx, order, event); err != nil {
				return errors.Wrap(err, "failed to save order")
			}

			cancelledEvent = event
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return cancelledEvent, nil
}
