package application

import (
	"context"
	"time"

	"github.com/draftea/food-ordering/order-service/domain"
	"github.com/draftea/food-ordering/order-service/sagalog"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/draftea/food-ordering/shared/telemetry"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateOrderCommand represents a customer's order request
type CreateOrderCommand struct {
	CustomerID   string             `json:"customer_id"`
	RestaurantID string             `json:"restaurant_id"`
	Price        decimal.Decimal    `json:"price"`
	Items        []OrderItemCommand `json:"items"`
	Address      OrderAddress       `json:"address"`
}

// OrderItemCommand is one line of a CreateOrderCommand
type OrderItemCommand struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	SubTotal  decimal.Decimal `json:"sub_total"`
}

// OrderAddress is the delivery address of a CreateOrderCommand
type OrderAddress struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderTrackingID string             `json:"order_tracking_id"`
	OrderStatus     domain.OrderStatus `json:"order_status"`
	Message         string             `json:"message"`
}

// CreateOrder use case validates a new order against the restaurant catalog,
// stores it as PENDING and asks the payment context to charge it. The
// OrderCreatedEvent is saved with the order and relayed from the outbox.
type CreateOrder struct {
	orderRepository      domain.OrderRepository
	restaurantRepository domain.RestaurantRepository
	domainService        *domain.OrderDomainService
	sagaLog              sagalog.Repository
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	restaurantRepository domain.RestaurantRepository,
	domainService *domain.OrderDomainService,
	sagaLog sagalog.Repository,
) *CreateOrder {
	return &CreateOrder{
		orderRepository:      orderRepository,
		restaurantRepository: restaurantRepository,
		domainService:        domainService,
		sagaLog:              sagaLog,
	}
}

// Execute creates an order
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "create_order",
		trace.WithAttributes(
			attribute.String("customer_id", cmd.CustomerID),
			attribute.String("restaurant_id", cmd.RestaurantID),
			attribute.Int("items", len(cmd.Items)),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordHistogram(ctx, "order_operation_duration_seconds", "Order operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "create_order"),
			attribute.String("status", status),
		)
	}()

	order, productIDs, err := uc.toOrder(cmd)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	restaurant, err := uc.restaurantRepository.FindRestaurantInformation(ctx, order.RestaurantID, productIDs)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to find restaurant")
	}
	if restaurant == nil {
		err := domain.NewOrderDomainError("could not find restaurant with id %s", order.RestaurantID)
		span.RecordError(err)
		return nil, err
	}

	createdEvent, err := uc.domainService.ValidateAndInitiateOrder(ctx, order, restaurant)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := uc.orderRepository.Save(ctx, order, createdEvent); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to save order")
	}

	appendSagaLog(ctx, uc.sagaLog, sagalog.NewEntry(ctx, order.ID.String(), sagalog.OrderSaga,
		sagalog.StatusStarted, "create_order", string(order.Status), nil))

	status = "success"
	span.SetAttributes(
		attribute.String("order_id", order.ID.String()),
		attribute.String("tracking_id", order.TrackingID.String()),
	)
	telemetry.RecordCounter(ctx, "orders_created_total", "Total orders created", 1)

	return &CreateOrderResponse{
		OrderTrackingID: order.TrackingID.String(),
		OrderStatus:     order.Status,
		Message:         "Order created successfully",
	}, nil
}

// toOrder validates the shape of the command and builds the submitted order
func (uc *CreateOrder) toOrder(cmd *CreateOrderCommand) (*domain.Order, []models.ID, error) {
	customerID, err := models.NewID(cmd.CustomerID)
	if err != nil {
		return nil, nil, invalidCommand("invalid customer ID")
	}

	restaurantID, err := models.NewID(cmd.RestaurantID)
	if err != nil {
		return nil, nil, invalidCommand("invalid restaurant ID")
	}

	if len(cmd.Items) == 0 {
		return nil, nil, invalidCommand("order must contain at least one item")
	}

	if cmd.Address.Street == "" || cmd.Address.City == "" {
		return nil, nil, invalidCommand("delivery address is required")
	}

	items := make([]domain.OrderItem, 0, len(cmd.Items))
	productIDs := make([]models.ID, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		productID, err := models.NewID(item.ProductID)
		if err != nil {
			return nil, nil, invalidCommand("invalid product ID")
		}

		items = append(items, domain.NewOrderItem(
			domain.NewProduct(productID),
			item.Quantity,
			models.NewMoney(item.Price),
			models.NewMoney(item.SubTotal),
		))
		productIDs = append(productIDs, productID)
	}

	address := domain.StreetAddress{
		Street:     cmd.Address.Street,
		PostalCode: cmd.Address.PostalCode,
		City:       cmd.Address.City,
	}

	return domain.NewOrder(customerID, restaurantID, address, models.NewMoney(cmd.Price), items), productIDs, nil
}
