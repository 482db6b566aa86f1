package domain

import (
	"time"

	"github.com/draftea/food-ordering/shared/events"
	"github.com/draftea/food-ordering/shared/models"
)

// OrderEvent is implemented by every order domain event. Events are plain
// data, saved together with the order they describe and published later from
// the outbox.
type OrderEvent interface {
	Topic() events.Topic
	Envelope() *events.Event
}

type orderEvent struct {
	Order     *Order
	CreatedAt time.Time
}

func newOrderEvent(order *Order) orderEvent {
	return orderEvent{Order: order.Clone(), CreatedAt: time.Now().UTC()}
}

func (e orderEvent) envelope(topic events.Topic) *events.Event {
	return events.NewEvent(e.Order.ID, topic, NewOrderEventData(e.Order)).
		WithCorrelationID(e.Order.TrackingID).
		WithTimestamp(e.CreatedAt).
		WithMetadata("order_status", string(e.Order.Status))
}

// OrderCreatedEvent asks the payment context to charge the customer
type OrderCreatedEvent struct{ orderEvent }

func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{newOrderEvent(order)}
}

func (e *OrderCreatedEvent) Topic() events.Topic { return events.OrderCreatedTopic }

func (e *OrderCreatedEvent) Envelope() *events.Event { return e.envelope(e.Topic()) }

// OrderPaidEvent asks the restaurant context to approve the order
type OrderPaidEvent struct{ orderEvent }

func NewOrderPaidEvent(order *Order) *OrderPaidEvent {
	return &OrderPaidEvent{newOrderEvent(order)}
}

func (e *OrderPaidEvent) Topic() events.Topic { return events.OrderPaidTopic }

func (e *OrderPaidEvent) Envelope() *events.Event { return e.envelope(e.Topic()) }

// OrderApprovedEvent reports that the order reached its happy-path end
type OrderApprovedEvent struct{ orderEvent }

func NewOrderApprovedEvent(order *Order) *OrderApprovedEvent {
	return &OrderApprovedEvent{newOrderEvent(order)}
}

func (e *OrderApprovedEvent) Topic() events.Topic { return events.OrderApprovedTopic }

func (e *OrderApprovedEvent) Envelope() *events.Event { return e.envelope(e.Topic()) }

// OrderCancelledEvent asks the payment context to refund a paid order
type OrderCancelledEvent struct{ orderEvent }

func NewOrderCancelledEvent(order *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{newOrderEvent(order)}
}

func (e *OrderCancelledEvent) Topic() events.Topic { return events.OrderCancelledTopic }

func (e *OrderCancelledEvent) Envelope() *events.Event { return e.envelope(e.Topic()) }

// OrderEventData is the wire payload of every order event
type OrderEventData struct {
	OrderID         models.ID          `json:"order_id"`
	TrackingID      models.ID          `json:"tracking_id"`
	CustomerID      models.ID          `json:"customer_id"`
	RestaurantID    models.ID          `json:"restaurant_id"`
	Price           models.Money       `json:"price"`
	Status          OrderStatus        `json:"status"`
	FailureMessages []string           `json:"failure_messages,omitempty"`
	Items           []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID models.ID    `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Price     models.Money `json:"price"`
	SubTotal  models.Money `json:"sub_total"`
}

// NewOrderEventData flattens an order snapshot into the event payload
func NewOrderEventData(order *Order) OrderEventData {
	items := make([]OrderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemPayload{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			SubTotal:  item.SubTotal,
		})
	}

	return OrderEventData{
		OrderID:         order.ID,
		TrackingID:      order.TrackingID,
		CustomerID:      order.CustomerID,
		RestaurantID:    order.RestaurantID,
		Price:           order.Price,
		Status:          order.Status,
		FailureMessages: order.FailureMessages,
		Items:           items,
	}
}
