package domain

import (
	"github.com/draftea/food-ordering/shared/models"
)

// OrderStatus is the persistent progress marker of the order saga
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusCancelling OrderStatus = "CANCELLING"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no transition leaves this status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusCancelled
}

// StreetAddress is the delivery address of an order
type StreetAddress struct {
	ID         models.ID `json:"id"`
	Street     string    `json:"street"`
	PostalCode string    `json:"postal_code"`
	City       string    `json:"city"`
}

// Order aggregate root
type Order struct {
	ID              models.ID     `json:"id"`
	TrackingID      models.ID     `json:"tracking_id"`
	CustomerID      models.ID     `json:"customer_id"`
	RestaurantID    models.ID     `json:"restaurant_id"`
	DeliveryAddress StreetAddress `json:"delivery_address"`
	Price           models.Money  `json:"price"`
	Items           []OrderItem   `json:"items"`
	Status          OrderStatus   `json:"status"`
	FailureMessages []string      `json:"failure_messages"`
	Timestamps      models.Timestamps
	Version         models.Version
}

// NewOrder builds an order as submitted by a client. It has no identity and
// no status until it is validated and initialized.
func NewOrder(customerID, restaurantID models.ID, address StreetAddress, price models.Money, items []OrderItem) *Order {
	return &Order{
		CustomerID:      customerID,
		RestaurantID:    restaurantID,
		DeliveryAddress: address,
		Price:           price,
		Items:           items,
	}
}

// InitializeOrder assigns identities and puts the order in PENDING
func (o *Order) InitializeOrder() error {
	if !o.isFresh() {
		return NewOrderDomainError("order is already initialized")
	}
	if len(o.Items) == 0 {
		return NewOrderDomainError("order must contain at least one item")
	}

	o.ID = models.GenerateUUID()
	o.TrackingID = models.GenerateUUID()
	if o.DeliveryAddress.ID.IsEmpty() {
		o.DeliveryAddress.ID = models.GenerateUUID()
	}
	for i := range o.Items {
		o.Items[i].ID = OrderItemID(i + 1)
	}
	o.Status = OrderStatusPending
	o.FailureMessages = []string{}
	o.Timestamps = models.NewTimestamps()
	o.Version = models.NewVersion()

	return nil
}

// ValidateOrder checks the pricing invariants of a fresh order. It never
// modifies the order.
func (o *Order) ValidateOrder() error {
	if !o.isFresh() {
		return NewOrderDomainError("order is not in correct state for initialization")
	}
	if !o.Price.IsGreaterThanZero() {
		return NewOrderDomainError("total price must be greater than zero")
	}

	itemsTotal := models.ZeroMoney
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return NewOrderDomainError("quantity %d is not valid for product %s", item.Quantity, item.Product.ID)
		}
		if !item.isPriceValid() {
			return NewOrderDomainError("order item price %s is not valid for product %s", item.Price, item.Product.ID)
		}
		itemsTotal = itemsTotal.Add(item.SubTotal)
	}

	if !o.Price.Equal(itemsTotal) {
		return NewOrderDomainError("total price %s is not equal to order items total %s", o.Price, itemsTotal)
	}

	return nil
}

// Pay moves a PENDING order to PAID
func (o *Order) Pay() error {
	if o.Status != OrderStatusPending {
		return NewOrderDomainError("order %s is not in correct state for pay operation: %s", o.ID, o.Status)
	}

	o.transitionTo(OrderStatusPaid)
	return nil
}

// Approve moves a PAID order to APPROVED
func (o *Order) Approve() error {
	if o.Status != OrderStatusPaid {
		return NewOrderDomainError("order %s is not in correct state for approve operation: %s", o.ID, o.Status)
	}

	o.transitionTo(OrderStatusApproved)
	return nil
}

// InitCancel starts compensating a PAID order and records why
func (o *Order) InitCancel(failureMessages []string) error {
	if o.Status != OrderStatusPaid {
		return NewOrderDomainError("order %s is not in correct state for initCancel operation: %s", o.ID, o.Status)
	}

	o.appendFailureMessages(failureMessages)
	o.transitionTo(OrderStatusCancelling)
	return nil
}

// Cancel terminates a PENDING or CANCELLING order. Cancelling an order that
// is already CANCELLED changes nothing.
func (o *Order) Cancel(failureMessages []string) error {
	if o.Status == OrderStatusCancelled {
		return nil
	}
	if o.Status != OrderStatusPending && o.Status != OrderStatusCancelling {
		return NewOrderDomainError("order %s is not in correct state for cancel operation: %s", o.ID, o.Status)
	}

	o.appendFailureMessages(failureMessages)
	o.transitionTo(OrderStatusCancelled)
	return nil
}

// Clone returns a deep copy that can be mutated without touching o
func (o *Order) Clone() *Order {
	clone := *o
	if o.Items != nil {
		clone.Items = make([]OrderItem, len(o.Items))
		copy(clone.Items, o.Items)
	}
	if o.FailureMessages != nil {
		clone.FailureMessages = make([]string, len(o.FailureMessages))
		copy(clone.FailureMessages, o.FailureMessages)
	}
	return &clone
}

func (o *Order) isFresh() bool {
	return o.ID.IsEmpty() && o.Status == ""
}

func (o *Order) transitionTo(status OrderStatus) {
	o.Status = status
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()
}

func (o *Order) appendFailureMessages(messages []string) {
	for _, m := range messages {
		if m != "" {
			o.FailureMessages = append(o.FailureMessages, m)
		}
	}
}
