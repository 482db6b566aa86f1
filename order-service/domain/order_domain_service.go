package domain

import (
	"context"
	"log/slog"
)

// OrderDomainService drives Order transitions and decides which event each
// business action produces. It holds no state.
type OrderDomainService struct{}

// NewOrderDomainService creates a new OrderDomainService
func NewOrderDomainService() *OrderDomainService {
	return &OrderDomainService{}
}

// ValidateAndInitiateOrder reconciles the order against the restaurant
// snapshot, validates it and puts it in PENDING. On failure order is left
// exactly as it was passed in.
func (s *OrderDomainService) ValidateAndInitiateOrder(ctx context.Context, order *Order, restaurant *Restaurant) (*OrderCreatedEvent, error) {
	if restaurant == nil || !restaurant.Active {
		return nil, NewOrderDomainError("restaurant with id %s is currently not active", order.RestaurantID)
	}

	working := order.Clone()
	s.setOrderProductInformation(working, restaurant)

	if err := working.ValidateOrder(); err != nil {
		return nil, err
	}
	if err := working.InitializeOrder(); err != nil {
		return nil, err
	}

	*order = *working
	slog.InfoContext(ctx, "order is initiated", "order_id", order.ID.String(), "tracking_id", order.TrackingID.String())

	return NewOrderCreatedEvent(order), nil
}

// PayOrder marks the order as paid
func (s *OrderDomainService) PayOrder(ctx context.Context, order *Order) (*OrderPaidEvent, error) {
	if err := order.Pay(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order is paid", "order_id", order.ID.String())
	return NewOrderPaidEvent(order), nil
}

// ApproveOrder marks the order as approved. Approval is terminal and has no
// follow-up event at this level.
func (s *OrderDomainService) ApproveOrder(ctx context.Context, order *Order) error {
	if err := order.Approve(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "order is approved", "order_id", order.ID.String())
	return nil
}

// CancelOrderPayment starts compensation of a paid order. The returned event
// asks the payment context for a refund.
func (s *OrderDomainService) CancelOrderPayment(ctx context.Context, order *Order, failureMessages []string) (*OrderCancelledEvent, error) {
	if err := order.InitCancel(failureMessages); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order payment is cancelling", "order_id", order.ID.String())
	return NewOrderCancelledEvent(order), nil
}

// CancelOrder terminates the order
func (s *OrderDomainService) CancelOrder(ctx context.Context, order *Order, failureMessages []string) error {
	if err := order.Cancel(failureMessages); err != nil {
		return err
	}

	slog.InfoContext(ctx, "order is cancelled", "order_id", order.ID.String())
	return nil
}

// setOrderProductInformation copies the restaurant's current name and price
// into every item whose product is in the snapshot. Unmatched items keep
// what the client sent.
func (s *OrderDomainService) setOrderProductInformation(order *Order, restaurant *Restaurant) {
	for i := range order.Items {
		product, ok := restaurant.FindProduct(order.Items[i].Product)
		if !ok {
			continue
		}
		order.Items[i].Product.updateWithConfirmedNameAndPrice(product.Name, product.Price)
		order.Items[i].Product.Available = product.Available
	}
}
